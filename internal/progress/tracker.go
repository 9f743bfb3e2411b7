package progress

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	// defaultPublishEvery publishes a snapshot at least every N processed files.
	defaultPublishEvery = 25
	// defaultPublishInterval publishes a snapshot at least this often while
	// files are flowing, so a UI stays live on slow sources.
	defaultPublishInterval = 250 * time.Millisecond
)

// Snapshot is one consistent view of an import's counters. Snapshots are
// value types; readers can hold them as long as they like.
type Snapshot struct {
	Discovered int64     `json:"discovered"`
	Processed  int64     `json:"processed"`
	Skipped    int64     `json:"skipped"`
	Bytes      int64     `json:"bytes"`
	Cancelled  bool      `json:"cancelled"`
	Done       bool      `json:"done"`
	Failed     string    `json:"failed,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
}

// Tracker aggregates the counters of one import. Scanner workers update it
// concurrently; consumers read published snapshots without ever blocking
// the writers.
type Tracker struct {
	discovered atomic.Int64
	processed  atomic.Int64
	skipped    atomic.Int64
	bytes      atomic.Int64
	cancelled  atomic.Bool

	startedAt time.Time
	snap      atomic.Value // Snapshot

	publishEvery int
	limiter      *rate.Limiter
	sinceLast    atomic.Int64

	updates chan struct{}
	done    chan struct{}
	err     atomic.Value // error
}

// NewTracker creates a tracker with the default publication policy.
func NewTracker() *Tracker {
	return NewTrackerWithPolicy(defaultPublishEvery, defaultPublishInterval)
}

// NewTrackerWithPolicy creates a tracker that publishes every `every`
// processed files or every `interval`, whichever comes sooner.
func NewTrackerWithPolicy(every int, interval time.Duration) *Tracker {
	if every < 1 {
		every = 1
	}
	t := &Tracker{
		startedAt:    time.Now(),
		publishEvery: every,
		limiter:      rate.NewLimiter(rate.Every(interval), 1),
		updates:      make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	t.snap.Store(Snapshot{StartedAt: t.startedAt})
	return t
}

// AddDiscovered counts newly enumerated candidate files.
func (t *Tracker) AddDiscovered(n int64) {
	t.discovered.Add(n)
	t.maybePublish()
}

// FileProcessed counts one successfully parsed and indexed file.
func (t *Tracker) FileProcessed(bytes int64) {
	t.processed.Add(1)
	t.bytes.Add(bytes)
	t.fileDone()
}

// FileSkipped counts one unreadable file. Bytes still count as processed
// input when known.
func (t *Tracker) FileSkipped(bytes int64) {
	t.skipped.Add(1)
	t.bytes.Add(bytes)
	t.fileDone()
}

// MarkCancelled records that cancellation was requested. Counters keep
// advancing for in-flight work; cancellation is not an error.
func (t *Tracker) MarkCancelled() {
	t.cancelled.Store(true)
	t.publish()
}

// Cancelled reports whether cancellation was requested.
func (t *Tracker) Cancelled() bool {
	return t.cancelled.Load()
}

// Finish marks the import terminal, recording its error if any, publishes a
// final snapshot, and closes the done channel exactly once.
func (t *Tracker) Finish(err error) {
	select {
	case <-t.done:
		return
	default:
	}
	if err != nil {
		t.err.Store(err)
	}
	t.publish()
	close(t.done)
}

// Done returns a channel closed when the import reaches a terminal state.
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

// Err returns the terminal error, or nil while running or after success.
func (t *Tracker) Err() error {
	if err, ok := t.err.Load().(error); ok {
		return err
	}
	return nil
}

// Current returns the most recently published snapshot. It is never torn:
// the snapshot was composed in a single publish and stored atomically.
func (t *Tracker) Current() Snapshot {
	s := t.snap.Load().(Snapshot)
	select {
	case <-t.done:
		s.Done = true
		if err := t.Err(); err != nil {
			s.Failed = err.Error()
		}
	default:
	}
	return s
}

// Updates returns a coalesced notification channel that receives a token
// whenever a new snapshot is published.
func (t *Tracker) Updates() <-chan struct{} {
	return t.updates
}

// fileDone applies the publication policy after a file completes: publish
// on every Nth file or when the interval limiter allows, whichever first.
func (t *Tracker) fileDone() {
	n := t.sinceLast.Add(1)
	if n%int64(t.publishEvery) == 0 || t.limiter.Allow() {
		t.publish()
	}
}

// maybePublish rate-limits publication for non-file events like discovery.
func (t *Tracker) maybePublish() {
	if t.limiter.Allow() {
		t.publish()
	}
}

// publish composes a consistent snapshot from the counters and stores it in
// one atomic operation.
func (t *Tracker) publish() {
	s := Snapshot{
		Discovered: t.discovered.Load(),
		Processed:  t.processed.Load(),
		Skipped:    t.skipped.Load(),
		Bytes:      t.bytes.Load(),
		Cancelled:  t.cancelled.Load(),
		StartedAt:  t.startedAt,
	}
	t.snap.Store(s)

	select {
	case t.updates <- struct{}{}:
	default:
	}
}
