// Package dataset is the boundary to the external DICOM parsing library.
//
// The Reader interface turns a file or byte stream into an ordered set of
// tag records plus the identity fields the index groups by. The production
// implementation wraps github.com/suyashkumar/dicom and skips pixel data
// while indexing; pixel frames are decoded separately and lazily through
// DecodeFrame. Parse failures surface as typed errors so the scanner can
// tell a skippable file from a failed source.
package dataset
