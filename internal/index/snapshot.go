package index

import (
	"dicom-browser/internal/dataset"
	"dicom-browser/internal/metrics"
	"dicom-browser/internal/tags"
)

// Snapshot is an immutable point-in-time view of the index. It shares the
// per-instance tag sets with the index (they never mutate) but owns all of
// its slices, so iterating a snapshot is safe while imports continue.
type Snapshot struct {
	Version uint64       `json:"version"`
	Sources []SourceView `json:"sources"`
}

// SourceView is one imported source in a snapshot.
type SourceView struct {
	Path    string       `json:"path"`
	Display string       `json:"display"`
	Kind    SourceKind   `json:"kind"`
	Series  []SeriesView `json:"series"`
}

// SeriesView is one series in a snapshot, instances in display order.
type SeriesView struct {
	Key         SeriesKey      `json:"key"`
	Description string         `json:"description"`
	Modality    string         `json:"modality"`
	NumImages   int            `json:"numImages"`
	Instances   []InstanceView `json:"instances"`
}

// InstanceView is one instance in a snapshot.
type InstanceView struct {
	SOPUID         string          `json:"sopUid"`
	Ref            dataset.FileRef `json:"ref"`
	InstanceNumber int             `json:"instanceNumber,omitempty"`
	HasNumber      bool            `json:"hasNumber"`

	tagSet *tags.Set
}

// Tags returns the instance's tag records.
func (v InstanceView) Tags() *tags.Set {
	return v.tagSet
}

// Snapshot copies the live index into an independently iterable view.
// Series keep their first-seen order within a source; instances are sorted
// by their derived sort key.
func (idx *Index) Snapshot() Snapshot {
	idx.mu.RLock()
	srcs := make([]*source, len(idx.sources))
	copy(srcs, idx.sources)
	version := idx.version.Load()
	idx.mu.RUnlock()

	snap := Snapshot{Version: version, Sources: make([]SourceView, 0, len(srcs))}

	for _, src := range srcs {
		if src.removed.Load() {
			continue
		}

		src.mu.Lock()
		serList := make([]*series, len(src.series))
		copy(serList, src.series)
		src.mu.Unlock()

		sv := SourceView{
			Path:    src.path,
			Display: src.display,
			Kind:    src.kind,
			Series:  make([]SeriesView, 0, len(serList)),
		}

		for _, ser := range serList {
			ser.mu.Lock()
			recs := make([]*instanceRec, 0, len(ser.instances))
			for _, rec := range ser.instances {
				recs = append(recs, rec)
			}
			description := ser.description
			modality := ser.modality
			ser.mu.Unlock()

			sortInstances(recs)

			view := SeriesView{
				Key:         ser.key,
				Description: description,
				Modality:    modality,
				NumImages:   len(recs),
				Instances:   make([]InstanceView, 0, len(recs)),
			}
			for _, rec := range recs {
				view.Instances = append(view.Instances, InstanceView{
					SOPUID:         rec.sop,
					Ref:            rec.ref,
					InstanceNumber: rec.number,
					HasNumber:      rec.hasNum,
					tagSet:         rec.tagSet,
				})
			}
			sv.Series = append(sv.Series, view)
		}

		snap.Sources = append(snap.Sources, sv)
	}

	metrics.IndexSnapshots.Inc()
	return snap
}

// FindSeries locates a series view in the snapshot by source path and key.
func (s Snapshot) FindSeries(sourcePath string, key SeriesKey) (SeriesView, bool) {
	for _, src := range s.Sources {
		if src.Path != sourcePath {
			continue
		}
		for _, ser := range src.Series {
			if ser.Key == key {
				return ser, true
			}
		}
	}
	return SeriesView{}, false
}

// FindInstance locates an instance view by series key and SOP UID anywhere
// in the snapshot.
func (s Snapshot) FindInstance(key SeriesKey, sopUID string) (InstanceView, bool) {
	for _, src := range s.Sources {
		for _, ser := range src.Series {
			if ser.Key != key {
				continue
			}
			for _, inst := range ser.Instances {
				if inst.SOPUID == sopUID {
					return inst, true
				}
			}
		}
	}
	return InstanceView{}, false
}
