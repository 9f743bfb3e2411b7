// Package progress tracks per-import counters for the scanning pipeline.
//
// Counters are monotonic atomics updated by scanner workers. Consumers only
// ever see whole snapshots published through an atomic.Value, so a reader
// never observes a half-updated view and never blocks the scanner.
// Publication is throttled to every N processed files or a fixed interval
// (whichever comes sooner) to bound the update volume on huge imports
// without starving a consumer on slow ones.
package progress
