package filter

import (
	"errors"
	"testing"

	"dicom-browser/internal/tags"
)

func sampleRecords() []tags.Record {
	return []tags.Record{
		tags.NewRecord(tags.PatientName, "PatientName", "PN", "DOE^JANE"),
		tags.NewRecord(tags.SeriesDescription, "SeriesDescription", "LO", "T1 AXIAL"),
		tags.NewRecord(tags.Modality, "Modality", "CS", "MR"),
	}
}

func TestCompileEmptyIsIdentity(t *testing.T) {
	f, err := Compile("")
	if err != nil {
		t.Fatalf("Compile(\"\") error: %v", err)
	}
	if !f.IsIdentity() {
		t.Error("empty pattern is not the identity filter")
	}
	for _, rec := range sampleRecords() {
		if !f.Matches(rec) {
			t.Errorf("identity filter rejected %+v", rec)
		}
	}
}

func TestCompileInvalidPattern(t *testing.T) {
	_, err := Compile("(unbalanced")
	if err == nil {
		t.Fatal("expected compile error for unbalanced group")
	}

	var invalid *InvalidPatternError
	if !errors.As(err, &invalid) {
		t.Errorf("error %v is not an *InvalidPatternError", err)
	}
	if invalid.Pattern != "(unbalanced" {
		t.Errorf("error pattern = %q", invalid.Pattern)
	}
}

func TestMatchesFields(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    []string // keywords expected to match
	}{
		{"keyword", "patientname", []string{"PatientName"}},
		{"keyword case-insensitive", "PATIENT", []string{"PatientName"}},
		{"tag id hex", `0008, 103e`, []string{"SeriesDescription"}},
		{"rendered value", "axial", []string{"SeriesDescription"}},
		{"value exact", "^MR$", []string{"Modality"}},
		{"no match", "ultrasound", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.pattern)
			if err != nil {
				t.Fatalf("Compile(%q) error: %v", tt.pattern, err)
			}

			var got []string
			for _, rec := range f.Apply(sampleRecords()) {
				got = append(got, rec.Keyword)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("matched %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("matched %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestMatchesMultilineValue(t *testing.T) {
	rec := tags.NewRecord(tags.Tag{Group: 0x0008, Element: 0x0008}, "ImageType", "CS", "ORIGINAL\nPRIMARY")

	f, err := Compile("original.primary")
	if err != nil {
		t.Fatal(err)
	}
	if !f.Matches(rec) {
		t.Error("dot did not match across the rendered multi-line value")
	}
}

func TestEngineKeepsLastKnownGood(t *testing.T) {
	e := NewEngine()

	if !e.Active().IsIdentity() {
		t.Fatal("new engine is not the identity filter")
	}

	if err := e.SetPattern("axial"); err != nil {
		t.Fatalf("SetPattern error: %v", err)
	}
	if e.Active().Pattern() != "axial" {
		t.Fatalf("active pattern = %q", e.Active().Pattern())
	}

	err := e.SetPattern("(broken")
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	var invalid *InvalidPatternError
	if !errors.As(err, &invalid) {
		t.Errorf("error %v is not an *InvalidPatternError", err)
	}

	// Prior filter remains active.
	if e.Active().Pattern() != "axial" {
		t.Errorf("active pattern after failed compile = %q, want axial", e.Active().Pattern())
	}

	// Clearing back to identity works.
	if err := e.SetPattern(""); err != nil {
		t.Fatalf("SetPattern(\"\") error: %v", err)
	}
	if !e.Active().IsIdentity() {
		t.Error("empty pattern did not restore the identity filter")
	}
}

func TestApplyPreservesOrder(t *testing.T) {
	f, err := Compile("a")
	if err != nil {
		t.Fatal(err)
	}

	recs := f.Apply(sampleRecords())
	if len(recs) != 3 {
		// PatientName (keyword), SeriesDescription (AXIAL), Modality (keyword).
		t.Fatalf("matched %d records, want 3", len(recs))
	}
	if recs[0].Keyword != "PatientName" || recs[1].Keyword != "SeriesDescription" {
		t.Errorf("order not preserved: %v, %v", recs[0].Keyword, recs[1].Keyword)
	}
}
