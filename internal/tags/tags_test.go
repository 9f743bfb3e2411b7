package tags

import (
	"strings"
	"testing"
)

func TestTagString(t *testing.T) {
	tests := []struct {
		tag  Tag
		want string
	}{
		{SOPInstanceUID, "(0008, 0018)"},
		{SeriesInstanceUID, "(0020, 000e)"},
		{PixelData, "(7fe0, 0010)"},
		{Tag{0, 0}, "(0000, 0000)"},
	}

	for _, tt := range tests {
		if got := tt.tag.String(); got != tt.want {
			t.Errorf("Tag%v.String() = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	long := strings.Repeat("x", 300)

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"plain", "CT", "CT"},
		{"empty", "", ""},
		{"truncated", long, long[:256] + "..."},
		{"multiline quoted", "a\nb", `"a\nb"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.value); got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestNewRecord(t *testing.T) {
	rec := NewRecord(SeriesDescription, "SeriesDescription", "LO", "T1 AXIAL")

	if rec.Tag != SeriesDescription {
		t.Errorf("Tag = %v, want %v", rec.Tag, SeriesDescription)
	}
	if rec.Rendered != "T1 AXIAL" {
		t.Errorf("Rendered = %q, want %q", rec.Rendered, "T1 AXIAL")
	}
}

func TestSetLookup(t *testing.T) {
	set := NewSet([]Record{
		NewRecord(SOPInstanceUID, "SOPInstanceUID", "UI", "1.2.3"),
		NewRecord(InstanceNumber, "InstanceNumber", "IS", " 12 "),
		NewRecord(Modality, "Modality", "CS", "MR"),
	})

	if set.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", set.Len())
	}

	rec, ok := set.Get(Modality)
	if !ok || rec.Value != "MR" {
		t.Errorf("Get(Modality) = %+v, %v", rec, ok)
	}

	if _, ok := set.Get(PatientName); ok {
		t.Error("Get on absent tag reported found")
	}

	if got := set.Value(SOPInstanceUID); got != "1.2.3" {
		t.Errorf("Value(SOPInstanceUID) = %q", got)
	}
	if got := set.Value(PatientName); got != "" {
		t.Errorf("Value on absent tag = %q, want empty", got)
	}

	n, ok := set.IntValue(InstanceNumber)
	if !ok || n != 12 {
		t.Errorf("IntValue(InstanceNumber) = %d, %v, want 12, true", n, ok)
	}
	if _, ok := set.IntValue(Modality); ok {
		t.Error("IntValue on non-numeric value reported ok")
	}
	if _, ok := set.IntValue(PatientName); ok {
		t.Error("IntValue on absent tag reported ok")
	}
}

func TestSetDuplicateTagFirstWins(t *testing.T) {
	set := NewSet([]Record{
		NewRecord(Modality, "Modality", "CS", "MR"),
		NewRecord(Modality, "Modality", "CS", "CT"),
	})

	rec, ok := set.Get(Modality)
	if !ok || rec.Value != "MR" {
		t.Errorf("Get(Modality) = %+v, %v, want first occurrence MR", rec, ok)
	}
}
