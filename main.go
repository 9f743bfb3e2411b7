package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dicom-browser/internal/dataset"
	"dicom-browser/internal/filter"
	"dicom-browser/internal/handlers"
	"dicom-browser/internal/index"
	"dicom-browser/internal/logging"
	"dicom-browser/internal/middleware"
	"dicom-browser/internal/pixels"
	"dicom-browser/internal/scanner"
	"dicom-browser/internal/startup"
	"dicom-browser/internal/watch"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()
	flag.Parse()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Build the pipeline: reader -> scanner -> index
	idx := index.New()
	reader := dataset.NewReader()

	scanConfig := scanner.DefaultConfig()
	if config.ScanWorkers > 0 {
		scanConfig.Workers = config.ScanWorkers
	}
	scanConfig.SkipHidden = config.SkipHidden
	sc := scanner.New(idx, reader, scanConfig)

	// Pixel cache for rendered frames
	cache, err := pixels.NewCache(reader, config.PixelCacheEntries)
	if err != nil {
		startup.LogFatal("Failed to initialize pixel cache: %v", err)
	}

	engine := filter.NewEngine()

	// Watch directory sources for changes; a change re-imports the source,
	// which is idempotent against the index.
	var watcher *watch.Watcher
	if config.WatchEnabled {
		watcher, err = watch.New(config.WatchDebounce, func(root string) {
			if _, err := sc.BeginImport(context.Background(), root); err != nil {
				logging.Error("Re-import of %s failed: %v", root, err)
			}
		})
		if err != nil {
			logging.Warn("File watching unavailable: %v", err)
			watcher = nil
		}
	}

	// Initialize handlers and router
	h := handlers.New(idx, sc, engine, cache, watcher)
	router := setupRouter(h, config)

	// Import any sources given on the command line
	for _, path := range flag.Args() {
		im, err := sc.BeginImport(context.Background(), path)
		if err != nil {
			logging.Error("Cannot import %s: %v", path, err)
			continue
		}
		if watcher != nil && im.Kind == index.SourceDirectory {
			if werr := watcher.Add(im.Path); werr != nil {
				logging.Warn("Cannot watch %s: %v", im.Path, werr)
			}
		}
	}

	// Apply middleware
	var handler http.Handler = router
	if config.MetricsEnabled {
		handler = middleware.Metrics()(handler)
	}
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, sc, watcher)

	// Start server
	startup.LogServerStarted(config, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	if config.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sources", h.ListSources).Methods("GET")
	api.HandleFunc("/sources", h.ImportSource).Methods("POST")
	api.HandleFunc("/sources", h.RemoveSource).Methods("DELETE")
	api.HandleFunc("/series", h.ListSeries).Methods("GET")
	api.HandleFunc("/instances", h.ListInstances).Methods("GET")
	api.HandleFunc("/tags", h.ListInstanceTags).Methods("GET")
	api.HandleFunc("/filter", h.GetFilter).Methods("GET")
	api.HandleFunc("/filter", h.SetFilter).Methods("PUT")
	api.HandleFunc("/imports", h.ListImports).Methods("GET")
	api.HandleFunc("/imports/{id}", h.GetImport).Methods("GET")
	api.HandleFunc("/imports/{id}/cancel", h.CancelImport).Methods("POST")
	api.HandleFunc("/frame", h.GetFrame).Methods("GET")

	return r
}

func handleShutdown(srv *http.Server, sc *scanner.Scanner, watcher *watch.Watcher) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	if watcher != nil {
		if err := watcher.Close(); err != nil {
			logging.Warn("Watcher close error: %v", err)
		}
	}

	// Cancel running imports and wait briefly for them to drain
	for _, im := range sc.Imports() {
		select {
		case <-im.Done():
		default:
			logging.Info("Cancelling import %s", im.ID)
			im.Cancel()
		}
	}
	deadline := time.After(10 * time.Second)
	for _, im := range sc.Imports() {
		select {
		case <-im.Done():
		case <-deadline:
			logging.Warn("Import %s did not drain before shutdown", im.ID)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown error: %v", err)
	}
	logging.Info("Server stopped")
}
