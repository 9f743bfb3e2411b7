package handlers

import (
	"net/http"
	"runtime"
	"time"

	"dicom-browser/internal/startup"
)

// HealthResponse contains the health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Importing bool   `json:"importing"`

	Sources   int   `json:"sources"`
	Series    int64 `json:"series"`
	Instances int64 `json:"instances"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports service health and index totals.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	series, instances := h.idx.Counts()

	importing := false
	for _, im := range h.scanner.Imports() {
		select {
		case <-im.Done():
		default:
			importing = true
		}
		if importing {
			break
		}
	}

	response := HealthResponse{
		Status:       "healthy",
		Version:      startup.Version,
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		Importing:    importing,
		Sources:      len(h.idx.Snapshot().Sources),
		Series:       series,
		Instances:    instances,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	writeJSON(w, http.StatusOK, response)
}

// LivenessCheck reports that the process is alive.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessCheck reports readiness to serve. The index starts empty and
// serves immediately, so the service is ready as soon as it listens.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// GetVersion returns build information.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, startup.GetBuildInfo())
}
