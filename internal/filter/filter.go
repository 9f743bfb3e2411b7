package filter

import (
	"fmt"
	"regexp"
	"sync"

	"dicom-browser/internal/metrics"
	"dicom-browser/internal/tags"
)

// InvalidPatternError reports a filter pattern that failed to compile. The
// engine keeps its previous filter active when this happens.
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid filter pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}

// Filter is one compiled tag filter. The zero pattern compiles to the
// identity filter, which matches every record.
type Filter struct {
	pattern string
	re      *regexp.Regexp
}

// Compile builds a filter from a regular expression. Matching is
// case-insensitive and dot matches newlines, mirroring how the search box
// matched multi-line tag values in the original browser.
func Compile(pattern string) (*Filter, error) {
	if pattern == "" {
		metrics.FilterCompilesTotal.WithLabelValues("ok").Inc()
		return &Filter{}, nil
	}

	re, err := regexp.Compile("(?is)" + pattern)
	if err != nil {
		metrics.FilterCompilesTotal.WithLabelValues("error").Inc()
		return nil, &InvalidPatternError{Pattern: pattern, Err: err}
	}

	metrics.FilterCompilesTotal.WithLabelValues("ok").Inc()
	return &Filter{pattern: pattern, re: re}, nil
}

// Pattern returns the source pattern ("" for the identity filter).
func (f *Filter) Pattern() string {
	return f.pattern
}

// IsIdentity reports whether the filter matches everything.
func (f *Filter) IsIdentity() bool {
	return f == nil || f.re == nil
}

// Matches reports whether a record matches: the keyword, the formatted tag
// id, or the rendered value may each satisfy the pattern.
func (f *Filter) Matches(rec tags.Record) bool {
	if f.IsIdentity() {
		return true
	}
	return f.re.MatchString(rec.Keyword) ||
		f.re.MatchString(rec.Tag.String()) ||
		f.re.MatchString(rec.Rendered)
}

// Apply returns the records matching the filter, preserving order.
func (f *Filter) Apply(records []tags.Record) []tags.Record {
	if f.IsIdentity() {
		return records
	}
	out := make([]tags.Record, 0, len(records))
	for _, rec := range records {
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Engine holds the active filter for a search surface. SetPattern swaps it
// atomically; a pattern that fails to compile leaves the last known good
// filter in place, so rendering never loses its filter to a typo.
type Engine struct {
	mu     sync.RWMutex
	active *Filter
}

// NewEngine creates an engine with the identity filter active.
func NewEngine() *Engine {
	return &Engine{active: &Filter{}}
}

// SetPattern compiles and activates a new pattern. On compile failure the
// returned error is an *InvalidPatternError and the active filter is
// unchanged.
func (e *Engine) SetPattern(pattern string) error {
	f, err := Compile(pattern)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.active = f
	e.mu.Unlock()
	return nil
}

// Active returns the currently active filter.
func (e *Engine) Active() *Filter {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active
}
