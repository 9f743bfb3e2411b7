package handlers

import (
	"net/http"
	"time"

	"dicom-browser/internal/index"
	"dicom-browser/internal/progress"
	"dicom-browser/internal/scanner"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ImportView is one import handle with its latest progress snapshot.
type ImportView struct {
	ID       uuid.UUID         `json:"id"`
	Path     string            `json:"path"`
	Kind     index.SourceKind  `json:"kind"`
	Started  time.Time         `json:"started"`
	Progress progress.Snapshot `json:"progress"`
}

func importView(im *scanner.Import) ImportView {
	return ImportView{
		ID:       im.ID,
		Path:     im.Path,
		Kind:     im.Kind,
		Started:  im.Started,
		Progress: im.Progress(),
	}
}

// ListImports returns all known imports, newest first.
func (h *Handlers) ListImports(w http.ResponseWriter, _ *http.Request) {
	imports := h.scanner.Imports()

	out := make([]ImportView, 0, len(imports))
	for _, im := range imports {
		out = append(out, importView(im))
	}

	writeJSON(w, http.StatusOK, out)
}

// GetImport returns one import's progress by id.
func (h *Handlers) GetImport(w http.ResponseWriter, r *http.Request) {
	im, ok := h.lookupImport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, importView(im))
}

// CancelImport requests cooperative cancellation of a running import.
// Already indexed instances are retained; cancelling a finished import is a
// no-op.
func (h *Handlers) CancelImport(w http.ResponseWriter, r *http.Request) {
	im, ok := h.lookupImport(w, r)
	if !ok {
		return
	}

	im.Cancel()
	writeJSON(w, http.StatusAccepted, importView(im))
}

func (h *Handlers) lookupImport(w http.ResponseWriter, r *http.Request) (*scanner.Import, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid import id")
		return nil, false
	}

	im, ok := h.scanner.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "import not found")
		return nil, false
	}
	return im, true
}
