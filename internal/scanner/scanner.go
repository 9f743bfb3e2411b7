package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"dicom-browser/internal/dataset"
	"dicom-browser/internal/index"
	"dicom-browser/internal/logging"
	"dicom-browser/internal/metrics"
	"dicom-browser/internal/progress"
	"dicom-browser/internal/workers"

	"github.com/google/uuid"
)

const (
	// maxScanWorkers caps the pool so network-mounted sources are not
	// hammered by parallel reads on large machines.
	maxScanWorkers = 16

	// defaultChannelBuffer is the size of the job channel buffer.
	defaultChannelBuffer = 256
)

// Config configures the scanning pipeline.
type Config struct {
	// Workers is the number of parallel parse workers (0 = auto).
	Workers int
	// ChannelBuffer is the size of the job channel buffer.
	ChannelBuffer int
	// SkipHidden skips files and directories starting with ".".
	SkipHidden bool
}

// DefaultConfig sizes the pool for a mixed read/parse workload, honoring
// the SCAN_WORKERS override.
func DefaultConfig() Config {
	return Config{
		Workers:       workers.ForMixed(maxScanWorkers),
		ChannelBuffer: defaultChannelBuffer,
		SkipHidden:    true,
	}
}

// Scanner drives asynchronous imports of sources into the series index.
type Scanner struct {
	idx    *index.Index
	reader dataset.Reader
	config Config

	mu      sync.Mutex
	imports map[uuid.UUID]*Import
}

// New creates a scanner feeding the given index through the given reader.
func New(idx *index.Index, reader dataset.Reader, config Config) *Scanner {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.ChannelBuffer < 1 {
		config.ChannelBuffer = defaultChannelBuffer
	}
	return &Scanner{
		idx:     idx,
		reader:  reader,
		config:  config,
		imports: make(map[uuid.UUID]*Import),
	}
}

// Import is the handle for one in-flight or completed source import.
type Import struct {
	ID      uuid.UUID        `json:"id"`
	Path    string           `json:"path"`
	Kind    index.SourceKind `json:"kind"`
	Started time.Time        `json:"started"`

	tracker *progress.Tracker
	cancel  context.CancelFunc
}

// Progress returns the latest published progress snapshot.
func (im *Import) Progress() progress.Snapshot {
	return im.tracker.Current()
}

// Updates returns the coalesced progress notification channel.
func (im *Import) Updates() <-chan struct{} {
	return im.tracker.Updates()
}

// Cancel requests cooperative cancellation: no new files are dispatched,
// in-flight parses run to completion, indexed instances are retained.
func (im *Import) Cancel() {
	im.tracker.MarkCancelled()
	im.cancel()
}

// Done returns a channel closed when the import reaches a terminal state.
func (im *Import) Done() <-chan struct{} {
	return im.tracker.Done()
}

// Wait blocks until the import finishes and returns its terminal error.
// Cancellation is a recognized terminal state, not an error.
func (im *Import) Wait() error {
	<-im.tracker.Done()
	return im.tracker.Err()
}

// BeginImport starts an asynchronous, cancellable import of path, which may
// be a directory or a zip archive. A source that cannot be opened at all
// fails immediately with a *dataset.SourceOpenError.
func (s *Scanner) BeginImport(ctx context.Context, path string) (*Import, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &dataset.SourceOpenError{Path: path, Err: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, &dataset.SourceOpenError{Path: abs, Err: err}
	}

	kind := index.SourceArchive
	if info.IsDir() {
		kind = index.SourceDirectory
	}

	runCtx, cancel := context.WithCancel(ctx)
	im := &Import{
		ID:      uuid.New(),
		Path:    abs,
		Kind:    kind,
		Started: time.Now(),
		tracker: progress.NewTracker(),
		cancel:  cancel,
	}

	s.mu.Lock()
	s.imports[im.ID] = im
	s.mu.Unlock()

	ref := s.idx.AddSource(abs, kind)

	logging.Info("Import %s started: %s (%s, %d workers)", im.ID, abs, kind, s.config.Workers)
	metrics.ImportsActive.Inc()
	metrics.ScanWorkers.Set(float64(s.config.Workers))

	go s.run(runCtx, im, ref)

	return im, nil
}

// Get returns a previously started import by id.
func (s *Scanner) Get(id uuid.UUID) (*Import, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	im, ok := s.imports[id]
	return im, ok
}

// Imports returns all known imports, newest first.
func (s *Scanner) Imports() []*Import {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Import, 0, len(s.imports))
	for _, im := range s.imports {
		out = append(out, im)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Started.After(out[j].Started)
	})
	return out
}

// run executes one import to its terminal state.
func (s *Scanner) run(ctx context.Context, im *Import, ref *index.SourceRef) {
	start := time.Now()

	var err error
	if im.Kind == index.SourceDirectory {
		err = s.scanDirectory(ctx, im, ref)
	} else {
		err = s.scanArchive(ctx, im, ref)
	}

	status := "ok"
	switch {
	case err != nil:
		status = "error"
		logging.Error("Import %s failed: %v", im.ID, err)
	case im.tracker.Cancelled():
		status = "cancelled"
		logging.Info("Import %s cancelled after %v", im.ID, time.Since(start))
	default:
		snap := im.tracker.Current()
		logging.Info("Import %s complete: %d processed, %d skipped in %v",
			im.ID, snap.Processed, snap.Skipped, time.Since(start))
	}

	metrics.ImportsActive.Dec()
	metrics.ImportsTotal.WithLabelValues(string(im.Kind), status).Inc()
	metrics.ImportDuration.WithLabelValues(string(im.Kind)).Observe(time.Since(start).Seconds())

	im.tracker.Finish(err)
	im.cancel()
}

// fileJob is one candidate file handed to the parse workers.
type fileJob struct {
	path string
	size int64
}

// scanDirectory enumerates regular files under the source root and feeds
// them to a bounded worker pool. Per-entry access errors are skipped; the
// walk itself only fails if the root is unreadable.
func (s *Scanner) scanDirectory(ctx context.Context, im *Import, ref *index.SourceRef) error {
	jobs := make(chan fileJob, s.config.ChannelBuffer)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				s.processFile(ctx, im, ref, job)
			}
		}()
	}

	walkErr := filepath.WalkDir(im.Path, func(path string, d fs.DirEntry, err error) error {
		// Cancellation is checked between each file; in-flight workers
		// run to completion.
		select {
		case <-ctx.Done():
			return fs.SkipAll
		default:
		}
		if ref.Removed() {
			return fs.SkipAll
		}

		if err != nil {
			if path == im.Path {
				return &dataset.SourceOpenError{Path: im.Path, Err: err}
			}
			logging.Warn("Error accessing %s: %v", path, err)
			return nil
		}

		if s.config.SkipHidden && strings.HasPrefix(d.Name(), ".") && path != im.Path {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		var size int64
		if info, ierr := d.Info(); ierr == nil {
			size = info.Size()
		}

		im.tracker.AddDiscovered(1)
		metrics.FilesDiscovered.Inc()

		select {
		case jobs <- fileJob{path: path, size: size}:
		case <-ctx.Done():
			return fs.SkipAll
		}
		return nil
	})

	close(jobs)
	wg.Wait()

	if walkErr != nil && !errors.Is(walkErr, fs.SkipAll) {
		return walkErr
	}
	return nil
}

// processFile parses one file and files the result. Unreadable files are
// counted and skipped, never fatal.
func (s *Scanner) processFile(ctx context.Context, im *Import, ref *index.SourceRef, job fileJob) {
	ds, err := s.reader.ReadFile(ctx, job.path)
	if err != nil {
		if ctx.Err() != nil && !isUnreadable(err) {
			return
		}
		im.tracker.FileSkipped(job.size)
		metrics.FilesSkipped.Inc()
		metrics.BytesProcessed.Add(float64(job.size))
		logging.Debug("Skipping unreadable file %s: %v", job.path, err)
		return
	}
	ds.Size = job.size

	s.ingest(im, ref, ds, job.size)
}

// ingest files a parsed dataset and updates the counters. An ingest hitting
// a removed source is dropped silently.
func (s *Scanner) ingest(im *Import, ref *index.SourceRef, ds *dataset.Dataset, size int64) {
	if _, err := s.idx.Ingest(ref, ds); err != nil {
		if errors.Is(err, index.ErrSourceRemoved) {
			logging.Debug("Dropping %s: source removed mid-import", ds.Ref)
			return
		}
		im.tracker.FileSkipped(size)
		metrics.FilesSkipped.Inc()
		return
	}

	im.tracker.FileProcessed(size)
	metrics.FilesProcessed.Inc()
	metrics.BytesProcessed.Add(float64(size))
}

func isUnreadable(err error) bool {
	var unreadable *dataset.UnreadableFileError
	return errors.As(err, &unreadable)
}
