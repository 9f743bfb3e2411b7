package handlers

import (
	"net/http"

	"dicom-browser/internal/filter"
	"dicom-browser/internal/index"
	"dicom-browser/internal/tags"
)

// SeriesSummary is one series in the flattened listing, without instances.
type SeriesSummary struct {
	Source      string          `json:"source"`
	Key         index.SeriesKey `json:"key"`
	Description string          `json:"description"`
	Modality    string          `json:"modality"`
	NumImages   int             `json:"numImages"`
}

// ListSeries returns all series across all sources, sources in discovery
// order and series in first-seen order within each.
func (h *Handlers) ListSeries(w http.ResponseWriter, _ *http.Request) {
	snap := h.idx.Snapshot()

	out := make([]SeriesSummary, 0)
	for _, src := range snap.Sources {
		for _, ser := range src.Series {
			out = append(out, SeriesSummary{
				Source:      src.Path,
				Key:         ser.Key,
				Description: ser.Description,
				Modality:    ser.Modality,
				NumImages:   ser.NumImages,
			})
		}
	}

	writeJSON(w, http.StatusOK, out)
}

// ListInstances returns one series with its instances in display order.
func (h *Handlers) ListInstances(w http.ResponseWriter, r *http.Request) {
	key := index.SeriesKey{
		StudyUID:  r.URL.Query().Get("study"),
		SeriesUID: r.URL.Query().Get("series"),
	}
	if key.SeriesUID == "" {
		writeError(w, http.StatusBadRequest, "series query parameter is required")
		return
	}

	snap := h.idx.Snapshot()
	for _, src := range snap.Sources {
		for _, ser := range src.Series {
			if ser.Key == key {
				writeJSON(w, http.StatusOK, ser)
				return
			}
		}
	}

	writeError(w, http.StatusNotFound, "series not found")
}

// tagListResponse is the filtered tag listing for one instance.
type tagListResponse struct {
	Pattern string        `json:"pattern"`
	Total   int           `json:"total"`
	Matched int           `json:"matched"`
	Records []tags.Record `json:"records"`
}

// ListInstanceTags returns the tag records of one instance, filtered by the
// pattern query parameter if present, otherwise by the active filter.
func (h *Handlers) ListInstanceTags(w http.ResponseWriter, r *http.Request) {
	key := index.SeriesKey{
		StudyUID:  r.URL.Query().Get("study"),
		SeriesUID: r.URL.Query().Get("series"),
	}
	sop := r.URL.Query().Get("sop")
	if key.SeriesUID == "" || sop == "" {
		writeError(w, http.StatusBadRequest, "series and sop query parameters are required")
		return
	}

	inst, ok := h.idx.Snapshot().FindInstance(key, sop)
	if !ok {
		writeError(w, http.StatusNotFound, "instance not found")
		return
	}

	f := h.engine.Active()
	if pattern, explicit := r.URL.Query()["pattern"]; explicit {
		var err error
		if f, err = filter.Compile(pattern[0]); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	records := inst.Tags().Records()
	matched := f.Apply(records)

	writeJSON(w, http.StatusOK, tagListResponse{
		Pattern: f.Pattern(),
		Total:   len(records),
		Matched: len(matched),
		Records: matched,
	})
}

type filterState struct {
	Pattern string `json:"pattern"`
}

// GetFilter returns the active filter pattern.
func (h *Handlers) GetFilter(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, filterState{Pattern: h.engine.Active().Pattern()})
}

// SetFilter activates a new filter pattern. An invalid pattern is rejected
// and the previous filter stays active.
func (h *Handlers) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req filterState
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be {\"pattern\": \"...\"}")
		return
	}

	if err := h.engine.SetPattern(req.Pattern); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, filterState{Pattern: req.Pattern})
}
