package dataset

import (
	"archive/zip"
	"context"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"

	"dicom-browser/internal/tags"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// FileRef locates the bytes a dataset was parsed from: a plain file, or an
// entry inside a zip archive when Entry is non-empty.
type FileRef struct {
	Path  string `json:"path"`
	Entry string `json:"entry,omitempty"`
}

// String renders the ref the way the source list displays it.
func (f FileRef) String() string {
	if f.Entry == "" {
		return f.Path
	}
	return f.Path + "?" + f.Entry
}

// Dataset is the parsed, index-ready view of one DICOM object.
type Dataset struct {
	Ref       FileRef
	StudyUID  string
	SeriesUID string
	SOPUID    string
	Size      int64
	Tags      *tags.Set
}

// Reader parses byte streams into datasets. Implementations must be safe
// for concurrent use; the scanner calls them from multiple workers.
type Reader interface {
	// ReadFile parses the file at path, skipping pixel data.
	ReadFile(ctx context.Context, path string) (*Dataset, error)

	// Read parses size bytes from r, skipping pixel data. name identifies
	// the stream in errors and in the resulting dataset ref.
	Read(ctx context.Context, r io.Reader, size int64, ref FileRef) (*Dataset, error)
}

// FrameDecoder decodes pixel data on demand. The index never holds decoded
// pixels; callers cache the result themselves.
type FrameDecoder interface {
	DecodeFrame(ctx context.Context, ref FileRef, frameIndex int) (image.Image, error)
}

// DICOMReader is the production Reader and FrameDecoder backed by
// github.com/suyashkumar/dicom.
type DICOMReader struct{}

// NewReader returns a Reader backed by the external DICOM library.
func NewReader() *DICOMReader {
	return &DICOMReader{}
}

// ReadFile parses the file at path with pixel data skipped.
func (d *DICOMReader) ReadFile(ctx context.Context, path string) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, &UnreadableFileError{Name: path, Err: err}
	}

	return fromParsed(FileRef{Path: path}, ds, 0)
}

// Read parses size bytes from r with pixel data skipped.
func (d *DICOMReader) Read(ctx context.Context, r io.Reader, size int64, ref FileRef) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds, err := dicom.Parse(r, size, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, &UnreadableFileError{Name: ref.String(), Err: err}
	}

	return fromParsed(ref, ds, size)
}

// DecodeFrame re-reads the referenced object with pixel data and returns the
// requested frame as an image. Decompression is handled by the library.
func (d *DICOMReader) DecodeFrame(ctx context.Context, ref FileRef, frameIndex int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ds dicom.Dataset
	var err error

	if ref.Entry == "" {
		ds, err = dicom.ParseFile(ref.Path, nil)
		if err != nil {
			return nil, &UnreadableFileError{Name: ref.String(), Err: err}
		}
	} else {
		zr, zerr := zip.OpenReader(ref.Path)
		if zerr != nil {
			return nil, &SourceOpenError{Path: ref.Path, Err: zerr}
		}
		defer zr.Close()

		ds, err = parseZipEntry(&zr.Reader, ref)
		if err != nil {
			return nil, err
		}
	}

	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, &UnreadableFileError{Name: ref.String(), Err: fmt.Errorf("no pixel data: %w", err)}
	}

	info := dicom.MustGetPixelDataInfo(el.Value)
	if frameIndex < 0 || frameIndex >= len(info.Frames) {
		return nil, fmt.Errorf("frame %d out of range (%d frames)", frameIndex, len(info.Frames))
	}

	img, err := info.Frames[frameIndex].GetImage()
	if err != nil {
		return nil, &UnreadableFileError{Name: ref.String(), Err: fmt.Errorf("decode frame %d: %w", frameIndex, err)}
	}
	return img, nil
}

// parseZipEntry finds and fully parses one archive member.
func parseZipEntry(zr *zip.Reader, ref FileRef) (dicom.Dataset, error) {
	for _, f := range zr.File {
		if f.Name != ref.Entry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return dicom.Dataset{}, &UnreadableFileError{Name: ref.String(), Err: err}
		}
		defer rc.Close()

		ds, err := dicom.Parse(rc, int64(f.UncompressedSize64), nil)
		if err != nil {
			return dicom.Dataset{}, &UnreadableFileError{Name: ref.String(), Err: err}
		}
		return ds, nil
	}
	return dicom.Dataset{}, &UnreadableFileError{Name: ref.String(), Err: fmt.Errorf("entry not found in archive")}
}

// fromParsed flattens a parsed dataset into records and extracts the
// identity fields. A dataset missing its series or SOP UID is unreadable
// because it cannot be grouped.
func fromParsed(ref FileRef, ds dicom.Dataset, size int64) (*Dataset, error) {
	records := make([]tags.Record, 0, len(ds.Elements))
	for _, el := range ds.Elements {
		records = append(records, toRecord(el))
	}
	set := tags.NewSet(records)

	out := &Dataset{
		Ref:       ref,
		StudyUID:  strings.TrimSpace(set.Value(tags.StudyInstanceUID)),
		SeriesUID: strings.TrimSpace(set.Value(tags.SeriesInstanceUID)),
		SOPUID:    strings.TrimSpace(set.Value(tags.SOPInstanceUID)),
		Size:      size,
		Tags:      set,
	}

	if out.SeriesUID == "" || out.SOPUID == "" {
		return nil, &UnreadableFileError{Name: ref.String(), Err: ErrMissingIdentity}
	}
	return out, nil
}

// toRecord converts one parsed element into a tag record.
func toRecord(el *dicom.Element) tags.Record {
	t := tags.Tag{Group: el.Tag.Group, Element: el.Tag.Element}

	keyword := "Unknown"
	if info, err := tag.Find(el.Tag); err == nil && info.Name != "" {
		keyword = info.Name
	}

	return tags.NewRecord(t, keyword, el.RawValueRepresentation, rawValue(el))
}

// rawValue renders an element value to its raw string form. Sequences and
// bulk byte payloads are summarized rather than dumped.
func rawValue(el *dicom.Element) string {
	if el.Value == nil {
		return ""
	}

	switch v := el.Value.GetValue().(type) {
	case []string:
		return strings.Join(v, "\\")
	case []int:
		parts := make([]string, len(v))
		for i, n := range v {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, "\\")
	case []float64:
		parts := make([]string, len(v))
		for i, f := range v {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return strings.Join(parts, "\\")
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(v))
	case []*dicom.SequenceItemValue:
		return fmt.Sprintf("<sequence of %d items>", len(v))
	default:
		return el.Value.String()
	}
}
