// Package index holds the in-memory Source → Series → Instance store built
// by the import pipeline.
//
// Writers are the scanner workers, which call Ingest with a parsed dataset;
// a source-level lock covers series creation and a per-series lock covers
// instance insertion, so ingests for different series barely contend while
// same-series ingests serialize. No lock is ever held across I/O.
//
// Readers never touch live structures: Snapshot deep-copies the index into
// plain views that stay valid while imports keep running. Change interest is
// expressed through Subscribe, which delivers coalesced notification tokens
// rather than callbacks.
//
// Identity rules: a source is its absolute path; a series is the
// (StudyUID, SeriesUID) pair scoped to one source, so the same series seen
// under two sources stays two records; an instance is its SOP instance UID
// within a series, and re-importing a path with a known SOP UID overwrites
// in place.
package index
