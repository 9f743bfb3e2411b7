package handlers

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"dicom-browser/internal/dataset"
	"dicom-browser/internal/index"
	"dicom-browser/internal/logging"
)

// SourceSummary is one imported source without its per-instance detail.
type SourceSummary struct {
	Path      string           `json:"path"`
	Display   string           `json:"display"`
	Kind      index.SourceKind `json:"kind"`
	Series    int              `json:"series"`
	Instances int              `json:"instances"`
}

// ListSources returns all sources in discovery order.
func (h *Handlers) ListSources(w http.ResponseWriter, _ *http.Request) {
	snap := h.idx.Snapshot()

	out := make([]SourceSummary, 0, len(snap.Sources))
	for _, src := range snap.Sources {
		instances := 0
		for _, ser := range src.Series {
			instances += ser.NumImages
		}
		out = append(out, SourceSummary{
			Path:      src.Path,
			Display:   src.Display,
			Kind:      src.Kind,
			Series:    len(src.Series),
			Instances: instances,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

type importRequest struct {
	Path string `json:"path"`
}

// ImportSource starts an asynchronous import of a directory or zip archive
// and returns the import handle. The import outlives the request.
func (h *Handlers) ImportSource(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSONBody(r, &req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "request body must be {\"path\": \"...\"}")
		return
	}

	im, err := h.scanner.BeginImport(context.Background(), req.Path)
	if err != nil {
		var openErr *dataset.SourceOpenError
		if errors.As(err, &openErr) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.watcher != nil && im.Kind == index.SourceDirectory {
		if werr := h.watcher.Add(im.Path); werr != nil {
			logging.Warn("Cannot watch %s: %v", im.Path, werr)
		}
	}

	writeJSON(w, http.StatusAccepted, importView(im))
}

// RemoveSource removes a source and everything indexed under it. An import
// still running against it keeps draining but indexes nothing further.
func (h *Handlers) RemoveSource(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}
	// Sources are indexed under their absolute path.
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	if !h.idx.RemoveSource(path) {
		writeError(w, http.StatusNotFound, "source not found: "+path)
		return
	}

	if h.watcher != nil {
		h.watcher.Remove(path)
	}
	h.cache.Purge()

	w.WriteHeader(http.StatusNoContent)
}
