package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"dicom-browser/internal/filter"
	"dicom-browser/internal/index"
	"dicom-browser/internal/pixels"
	"dicom-browser/internal/scanner"
	"dicom-browser/internal/watch"
)

// Handlers wires the HTTP API to the index, the scanner and the pixel cache.
type Handlers struct {
	idx     *index.Index
	scanner *scanner.Scanner
	engine  *filter.Engine
	cache   *pixels.Cache
	watcher *watch.Watcher // nil when watching is disabled
	started time.Time
}

func New(idx *index.Index, sc *scanner.Scanner, engine *filter.Engine, cache *pixels.Cache, watcher *watch.Watcher) *Handlers {
	return &Handlers{
		idx:     idx,
		scanner: sc,
		engine:  engine,
		cache:   cache,
		watcher: watcher,
		started: time.Now(),
	}
}

func decodeJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorResponse is the JSON body for all error statuses.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
