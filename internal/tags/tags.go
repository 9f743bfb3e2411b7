package tags

import (
	"fmt"
	"strconv"
	"strings"
)

// maxRenderedSize bounds the rendered form of a tag value so that very large
// elements (lookup tables, private payloads) stay displayable.
const maxRenderedSize = 256

// Tag identifies one DICOM data element by its (group, element) pair.
type Tag struct {
	Group   uint16 `json:"group"`
	Element uint16 `json:"element"`
}

// String formats the tag as a hex pair, e.g. "(0008, 0018)".
func (t Tag) String() string {
	return fmt.Sprintf("(%04x, %04x)", t.Group, t.Element)
}

// Tags needed for grouping and for the default series columns.
var (
	SOPInstanceUID    = Tag{0x0008, 0x0018}
	Modality          = Tag{0x0008, 0x0060}
	StudyDescription  = Tag{0x0008, 0x1030}
	SeriesDescription = Tag{0x0008, 0x103E}
	PatientName       = Tag{0x0010, 0x0010}
	TriggerTime       = Tag{0x0018, 0x1060}
	StudyInstanceUID  = Tag{0x0020, 0x000D}
	SeriesInstanceUID = Tag{0x0020, 0x000E}
	SeriesNumber      = Tag{0x0020, 0x0011}
	InstanceNumber    = Tag{0x0020, 0x0013}
	PixelData         = Tag{0x7FE0, 0x0010}
)

// Record is the normalized view of one parsed data element. Records are
// immutable once attached to an instance.
type Record struct {
	Tag      Tag    `json:"tag"`
	Keyword  string `json:"keyword"`
	VR       string `json:"vr"`
	Value    string `json:"value"`
	Rendered string `json:"rendered"`
}

// NewRecord builds a Record, deriving the bounded human-readable rendering
// from the raw value.
func NewRecord(tag Tag, keyword, vr, value string) Record {
	return Record{
		Tag:      tag,
		Keyword:  keyword,
		VR:       vr,
		Value:    value,
		Rendered: Render(value),
	}
}

// Render produces the display form of a raw value: multiline data is shown
// quoted, and anything longer than maxRenderedSize is truncated with an
// ellipsis.
func Render(value string) string {
	if strings.ContainsAny(value, "\n\r") {
		value = strconv.Quote(value)
	}
	if len(value) > maxRenderedSize {
		return value[:maxRenderedSize] + "..."
	}
	return value
}

// Set is an ordered collection of records with tag lookup. The order is the
// order elements appeared in the dataset.
type Set struct {
	records []Record
	byTag   map[Tag]int
}

// NewSet builds a Set from records in dataset order. If a tag appears more
// than once the first occurrence wins for lookup.
func NewSet(records []Record) *Set {
	byTag := make(map[Tag]int, len(records))
	for i, r := range records {
		if _, ok := byTag[r.Tag]; !ok {
			byTag[r.Tag] = i
		}
	}
	return &Set{records: records, byTag: byTag}
}

// Len returns the number of records in the set.
func (s *Set) Len() int {
	return len(s.records)
}

// Records returns the records in dataset order. Callers must not mutate the
// returned slice.
func (s *Set) Records() []Record {
	return s.records
}

// Get returns the record for a tag, reporting whether it was present.
func (s *Set) Get(tag Tag) (Record, bool) {
	i, ok := s.byTag[tag]
	if !ok {
		return Record{}, false
	}
	return s.records[i], true
}

// Value returns the raw value for a tag, or the empty string if absent.
func (s *Set) Value(tag Tag) string {
	r, ok := s.Get(tag)
	if !ok {
		return ""
	}
	return r.Value
}

// IntValue returns the value of a tag parsed as an integer, reporting
// whether the tag was present and numeric. Leading/trailing whitespace and
// DICOM's trailing-space padding are tolerated.
func (s *Set) IntValue(tag Tag) (int, bool) {
	r, ok := s.Get(tag)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(r.Value))
	if err != nil {
		return 0, false
	}
	return n, true
}
