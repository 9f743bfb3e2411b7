// Package metrics defines the Prometheus collectors for the DICOM browser.
//
// All collectors are registered with the default registry via promauto at
// package initialization and exposed on /metrics. Import pipeline counters
// mirror the progress tracker's per-import counters but accumulate across
// the process lifetime.
package metrics
