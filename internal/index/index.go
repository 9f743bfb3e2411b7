package index

import (
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"dicom-browser/internal/dataset"
	"dicom-browser/internal/logging"
	"dicom-browser/internal/metrics"
	"dicom-browser/internal/tags"
)

// ErrSourceRemoved is returned by Ingest when the target source was removed
// while the import was still in flight. Callers treat it as a no-op.
var ErrSourceRemoved = errors.New("source has been removed")

// SourceKind distinguishes directory sources from zip archive sources.
type SourceKind string

const (
	// SourceDirectory is a filesystem directory source.
	SourceDirectory SourceKind = "directory"
	// SourceArchive is a zip archive source.
	SourceArchive SourceKind = "archive"
)

// SeriesKey identifies a series within one source.
type SeriesKey struct {
	StudyUID  string `json:"studyUid"`
	SeriesUID string `json:"seriesUid"`
}

// Index is the concurrent store of Sources, their Series, and Instances.
// Scanner workers mutate it through Ingest; everything else reads
// point-in-time copies through Snapshot.
type Index struct {
	mu      sync.RWMutex
	sources []*source // discovery order
	byPath  map[string]*source

	version   atomic.Uint64
	seriesN   atomic.Int64
	instanceN atomic.Int64

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

type source struct {
	path    string
	display string
	kind    SourceKind
	removed atomic.Bool

	mu     sync.Mutex // guards series and byKey
	series []*series  // first-seen order
	byKey  map[SeriesKey]*series
}

type series struct {
	key         SeriesKey
	description string
	modality    string

	mu        sync.Mutex // guards instances
	instances map[string]*instanceRec
}

type instanceRec struct {
	sop    string
	ref    dataset.FileRef
	number int
	hasNum bool
	tagSet *tags.Set
}

// New creates an empty index.
func New() *Index {
	return &Index{
		byPath: make(map[string]*source),
		subs:   make(map[int]chan struct{}),
	}
}

// SourceRef is the handle an import uses to file instances under its source.
// It stays valid after removal, at which point ingests become no-ops.
type SourceRef struct {
	idx *Index
	src *source
}

// Path returns the absolute source path.
func (r *SourceRef) Path() string { return r.src.path }

// Kind returns the source kind.
func (r *SourceRef) Kind() SourceKind { return r.src.kind }

// Removed reports whether the source was removed from the index.
func (r *SourceRef) Removed() bool { return r.src.removed.Load() }

// AddSource registers a source and returns its ref. Re-adding a live source
// path returns the existing ref so re-imports land in the same source;
// re-adding a removed path creates a fresh record.
func (idx *Index) AddSource(path string, kind SourceKind) *SourceRef {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.byPath[path]; ok && !existing.removed.Load() {
		return &SourceRef{idx: idx, src: existing}
	}

	src := &source{
		path:    path,
		display: filepath.Base(path),
		kind:    kind,
		byKey:   make(map[SeriesKey]*series),
	}
	idx.sources = append(idx.sources, src)
	idx.byPath[path] = src
	metrics.IndexSources.Inc()

	idx.bumpLocked()
	return &SourceRef{idx: idx, src: src}
}

// RemoveSource marks a source logically gone and drops it from future
// snapshots. Safe to call while an import for the same source is running:
// in-flight ingests observe the tombstone and become no-ops. Returns false
// if the path is not a live source.
func (idx *Index) RemoveSource(path string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	src, ok := idx.byPath[path]
	if !ok || src.removed.Load() {
		return false
	}

	src.removed.Store(true)
	delete(idx.byPath, path)
	for i, s := range idx.sources {
		if s == src {
			idx.sources = append(idx.sources[:i], idx.sources[i+1:]...)
			break
		}
	}

	// Account the cascade in the gauges.
	src.mu.Lock()
	for _, ser := range src.series {
		ser.mu.Lock()
		metrics.IndexInstances.Sub(float64(len(ser.instances)))
		idx.instanceN.Add(int64(-len(ser.instances)))
		ser.mu.Unlock()
	}
	metrics.IndexSeries.Sub(float64(len(src.series)))
	idx.seriesN.Add(int64(-len(src.series)))
	src.mu.Unlock()

	metrics.IndexSources.Dec()
	logging.Info("Removed source %s from index", path)

	idx.bumpLocked()
	return true
}

// Ingest files one parsed dataset under its series, creating the series on
// first sight and overwriting any prior instance with the same SOP UID
// (idempotent re-import). Concurrent ingests for different series only
// contend on the short source-level lookup; same-series ingests serialize
// on the series lock.
func (idx *Index) Ingest(ref *SourceRef, ds *dataset.Dataset) (SeriesKey, error) {
	key := SeriesKey{StudyUID: ds.StudyUID, SeriesUID: ds.SeriesUID}

	if ref.src.removed.Load() {
		return key, ErrSourceRemoved
	}

	src := ref.src

	src.mu.Lock()
	ser, ok := src.byKey[key]
	if !ok {
		ser = &series{
			key:         key,
			description: ds.Tags.Value(tags.SeriesDescription),
			modality:    ds.Tags.Value(tags.Modality),
			instances:   make(map[string]*instanceRec),
		}
		src.byKey[key] = ser
		src.series = append(src.series, ser)
		idx.seriesN.Add(1)
		metrics.IndexSeries.Inc()
	}
	src.mu.Unlock()

	number, hasNum := ds.Tags.IntValue(tags.InstanceNumber)
	rec := &instanceRec{
		sop:    ds.SOPUID,
		ref:    ds.Ref,
		number: number,
		hasNum: hasNum,
		tagSet: ds.Tags,
	}

	ser.mu.Lock()
	// Re-check under the lock so an ingest racing RemoveSource never leaks
	// an instance into a later snapshot.
	if src.removed.Load() {
		ser.mu.Unlock()
		return key, ErrSourceRemoved
	}
	if ser.description == "" {
		ser.description = ds.Tags.Value(tags.SeriesDescription)
	}
	_, existed := ser.instances[ds.SOPUID]
	ser.instances[ds.SOPUID] = rec
	ser.mu.Unlock()

	if !existed {
		idx.instanceN.Add(1)
		metrics.IndexInstances.Inc()
	}

	idx.bump()
	return key, nil
}

// Counts returns the live series and instance totals.
func (idx *Index) Counts() (series, instances int64) {
	return idx.seriesN.Load(), idx.instanceN.Load()
}

// Version returns the mutation counter, which increases on every change.
func (idx *Index) Version() uint64 {
	return idx.version.Load()
}

// Subscribe registers for change notifications. The returned channel
// receives a coalesced signal after mutations; the cancel func releases the
// subscription. This replaces direct change callbacks so consumers poll
// snapshots on their own schedule.
func (idx *Index) Subscribe() (<-chan struct{}, func()) {
	idx.subMu.Lock()
	defer idx.subMu.Unlock()

	id := idx.nextSub
	idx.nextSub++
	ch := make(chan struct{}, 1)
	idx.subs[id] = ch

	cancel := func() {
		idx.subMu.Lock()
		delete(idx.subs, id)
		idx.subMu.Unlock()
	}
	return ch, cancel
}

func (idx *Index) bump() {
	idx.version.Add(1)
	idx.notify()
}

// bumpLocked is bump for callers already holding idx.mu.
func (idx *Index) bumpLocked() {
	idx.version.Add(1)
	idx.notify()
}

func (idx *Index) notify() {
	idx.subMu.Lock()
	defer idx.subMu.Unlock()
	for _, ch := range idx.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// instanceLess is the total order of instances within a series: explicit
// instance numbers take precedence over filename order, ties always break on
// the path string.
func instanceLess(a, b *instanceRec) bool {
	if a.hasNum && b.hasNum && a.number != b.number {
		return a.number < b.number
	}
	if a.hasNum != b.hasNum {
		return a.hasNum
	}
	return a.ref.String() < b.ref.String()
}

// sortInstances orders a copied instance slice for a snapshot.
func sortInstances(recs []*instanceRec) {
	sort.Slice(recs, func(i, j int) bool {
		return instanceLess(recs[i], recs[j])
	})
}
