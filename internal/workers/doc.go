// Package workers determines worker pool sizes for the scanning pipeline.
//
// Worker counts are derived from GOMAXPROCS, which Go 1.19+ sets from the
// container CPU limit, so pool sizes respect cgroup constraints rather than
// the host CPU count reported by runtime.NumCPU(). DICOM file parsing is a
// mixed workload (read the file, decode the element stream), so the scanner
// uses ForMixed by default.
//
// The SCAN_WORKERS environment variable overrides the calculation, which is
// useful when the source lives on network storage that degrades under
// parallel reads.
package workers
