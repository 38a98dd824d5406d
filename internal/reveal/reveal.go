// Package reveal tracks which tagged page elements have scrolled into view.
// An element is revealed the first time enough of it is visible and stays
// revealed for the rest of the session.
package reveal

import (
	"sort"
	"sync"
)

// Set is the growing set of revealed element ids. Ids are never removed.
type Set struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{ids: make(map[string]struct{})}
}

// Add inserts id and reports whether it was new.
func (s *Set) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Has reports whether id has been revealed.
func (s *Set) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of revealed ids.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// IDs returns the revealed ids in sorted order.
func (s *Set) IDs() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Options tune when an element counts as visible.
type Options struct {
	// Threshold is the minimum visible fraction of the element.
	Threshold float64
	// BottomMargin shrinks the viewport from the bottom, in pixels.
	BottomMargin float64
}

// DefaultOptions reveal an element once 10% of it is visible within the
// viewport shrunk by 100px at the bottom.
var DefaultOptions = Options{Threshold: 0.1, BottomMargin: 100}

// Entry is the geometry of one observed element relative to the viewport.
type Entry struct {
	ID             string  `json:"id"`
	Top            float64 `json:"top"`
	Height         float64 `json:"height"`
	ViewportHeight float64 `json:"viewport_height"`
}

// Ratio returns the fraction of the element inside the root rectangle
// [0, ViewportHeight-BottomMargin).
func (o Options) Ratio(e Entry) float64 {
	rootBottom := e.ViewportHeight - o.BottomMargin
	if rootBottom <= 0 {
		return 0
	}
	if e.Height <= 0 {
		if e.Top >= 0 && e.Top < rootBottom {
			return 1
		}
		return 0
	}
	top := max(e.Top, 0)
	bottom := min(e.Top+e.Height, rootBottom)
	if bottom <= top {
		return 0
	}
	return (bottom - top) / e.Height
}

// Visible reports whether e meets the threshold.
func (o Options) Visible(e Entry) bool {
	r := o.Ratio(e)
	return r > 0 && r >= o.Threshold
}

// Observer watches a set of element ids and moves each one into the reveal
// set at most once.
type Observer struct {
	opts Options
	set  *Set

	mu       sync.Mutex
	observed map[string]struct{}
	stopped  bool
}

// NewObserver returns an observer that records reveals in set. A nil set
// gets a fresh one.
func NewObserver(opts Options, set *Set) *Observer {
	if set == nil {
		set = NewSet()
	}
	return &Observer{opts: opts, set: set, observed: make(map[string]struct{})}
}

// Set returns the reveal set.
func (o *Observer) Set() *Set { return o.set }

// Observe starts watching ids. Ids that were already revealed are not watched
// again.
func (o *Observer) Observe(ids ...string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return
	}
	for _, id := range ids {
		if id == "" || o.set.Has(id) {
			continue
		}
		o.observed[id] = struct{}{}
	}
}

// Unobserve stops watching id.
func (o *Observer) Unobserve(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.observed, id)
}

// Observing returns the number of ids still being watched.
func (o *Observer) Observing() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.observed)
}

// Handle applies a batch of intersection entries and returns the ids that
// were revealed by it. Entries for ids that are not observed are ignored.
func (o *Observer) Handle(entries []Entry) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return nil
	}
	var revealed []string
	for _, e := range entries {
		if _, ok := o.observed[e.ID]; !ok {
			continue
		}
		if !o.opts.Visible(e) {
			continue
		}
		delete(o.observed, e.ID)
		if o.set.Add(e.ID) {
			revealed = append(revealed, e.ID)
		}
	}
	return revealed
}

// Stop drops every observation. Entries handled afterwards are ignored.
func (o *Observer) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = true
	clear(o.observed)
}
