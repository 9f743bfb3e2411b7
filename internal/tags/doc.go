// Package tags defines the normalized tag record model for DICOM metadata.
//
// A Record is the flattened, display-ready view of one data element as
// produced by the dataset reader. A Set groups the records of one instance
// and provides typed lookup by tag id: missing tags report a not-found
// result instead of panicking, which keeps partially populated datasets
// browsable.
package tags
