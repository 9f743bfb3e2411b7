package handlers

import (
	"net/http"
	"strconv"

	"dicom-browser/internal/index"
	"dicom-browser/internal/logging"
	"dicom-browser/internal/pixels"

	"github.com/disintegration/imaging"
)

const (
	// maxThumbnailSize caps the size query so a request cannot ask for an
	// arbitrarily large resample.
	maxThumbnailSize = 2048

	jpegQuality = 90
)

// GetFrame renders one frame of an instance as JPEG. The frame query selects
// the frame of a multi-frame instance (default 0); a size query bounds the
// longer edge, preserving aspect ratio.
func (h *Handlers) GetFrame(w http.ResponseWriter, r *http.Request) {
	key := index.SeriesKey{
		StudyUID:  r.URL.Query().Get("study"),
		SeriesUID: r.URL.Query().Get("series"),
	}
	sop := r.URL.Query().Get("sop")
	if key.SeriesUID == "" || sop == "" {
		writeError(w, http.StatusBadRequest, "series and sop query parameters are required")
		return
	}

	frame := 0
	if v := r.URL.Query().Get("frame"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "frame must be a non-negative integer")
			return
		}
		frame = n
	}

	size := 0
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxThumbnailSize {
			writeError(w, http.StatusBadRequest, "size must be between 1 and 2048")
			return
		}
		size = n
	}

	inst, ok := h.idx.Snapshot().FindInstance(key, sop)
	if !ok {
		writeError(w, http.StatusNotFound, "instance not found")
		return
	}

	img, err := h.cache.Frame(r.Context(), pixels.Key{
		SeriesUID: key.SeriesUID,
		SOPUID:    sop,
		Frame:     frame,
	}, inst.Ref)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		logging.Error("Frame decode failed for %s frame %d: %v", inst.Ref, frame, err)
		writeError(w, http.StatusInternalServerError, "frame decode failed")
		return
	}

	if size > 0 {
		img = imaging.Fit(img, size, size, imaging.Lanczos)
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "max-age=3600")
	if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		logging.Debug("Frame write aborted for %s: %v", inst.Ref, err)
	}
}
