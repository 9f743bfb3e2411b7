package dataset

import (
	"errors"
	"fmt"
)

// ErrMissingIdentity indicates a dataset parsed cleanly but carries no
// series or SOP instance UID, so it cannot be grouped.
var ErrMissingIdentity = errors.New("dataset has no series or SOP instance UID")

// UnreadableFileError reports a single file that could not be parsed as a
// usable DICOM dataset: wrong magic, truncated data, an unsupported transfer
// syntax, or missing identity tags. Imports recover from these by skipping
// the file.
type UnreadableFileError struct {
	Name string
	Err  error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("unreadable file %s: %v", e.Name, e.Err)
}

func (e *UnreadableFileError) Unwrap() error {
	return e.Err
}

// SourceOpenError reports that a source (directory or archive) could not be
// opened at all. The import for that source fails; anything indexed before
// the failure is retained.
type SourceOpenError struct {
	Path string
	Err  error
}

func (e *SourceOpenError) Error() string {
	return fmt.Sprintf("cannot open source %s: %v", e.Path, e.Err)
}

func (e *SourceOpenError) Unwrap() error {
	return e.Err
}
