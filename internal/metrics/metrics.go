package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_browser_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dicom_browser_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dicom_browser_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Import pipeline metrics
var (
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_browser_imports_total",
			Help: "Total number of source imports by kind and outcome",
		},
		[]string{"kind", "status"}, // kind: "directory", "archive"; status: "ok", "error", "cancelled"
	)

	ImportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dicom_browser_import_duration_seconds",
			Help:    "Duration of a complete source import in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	ImportsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dicom_browser_imports_active",
			Help: "Number of imports currently in flight",
		},
	)

	FilesDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_browser_files_discovered_total",
			Help: "Total number of candidate files discovered by the scanner",
		},
	)

	FilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_browser_files_processed_total",
			Help: "Total number of files successfully parsed and indexed",
		},
	)

	FilesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_browser_files_skipped_total",
			Help: "Total number of unreadable files skipped by the scanner",
		},
	)

	BytesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_browser_bytes_processed_total",
			Help: "Total bytes of source data fed to the dataset reader",
		},
	)

	ScanWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dicom_browser_scan_workers",
			Help: "Number of parallel scan workers in use",
		},
	)
)

// Series index metrics
var (
	IndexSources = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dicom_browser_index_sources",
			Help: "Number of sources currently held in the series index",
		},
	)

	IndexSeries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dicom_browser_index_series",
			Help: "Number of series currently held in the series index",
		},
	)

	IndexInstances = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dicom_browser_index_instances",
			Help: "Number of instances currently held in the series index",
		},
	)

	IndexSnapshots = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_browser_index_snapshots_total",
			Help: "Total number of index snapshots taken",
		},
	)
)

// Pixel cache metrics
var (
	PixelCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_browser_pixel_cache_hits_total",
			Help: "Total number of pixel cache hits",
		},
	)

	PixelCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_browser_pixel_cache_misses_total",
			Help: "Total number of pixel cache misses",
		},
	)

	PixelCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_browser_pixel_cache_evictions_total",
			Help: "Total number of pixel cache evictions",
		},
	)

	PixelDecodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dicom_browser_pixel_decode_duration_seconds",
			Help:    "Pixel data decode duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

// Tag filter metrics
var (
	FilterCompilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_browser_filter_compiles_total",
			Help: "Total number of tag filter compilations by outcome",
		},
		[]string{"status"}, // "ok", "error"
	)
)
