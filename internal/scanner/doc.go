// Package scanner walks DICOM sources and feeds the series index.
//
// BeginImport starts one asynchronous import per source path: an enumerator
// (directory walk or zip listing) discovers candidate files and dispatches
// them to a bounded pool of parse workers, each of which reads the file
// through the dataset boundary and ingests the result. Unreadable files are
// counted and skipped; only a source that cannot be opened at all fails its
// import, and even then everything indexed before the failure is retained.
//
// Cancellation is cooperative: the enumerator checks the context between
// files, workers finish what they hold, and nothing is rolled back.
package scanner
