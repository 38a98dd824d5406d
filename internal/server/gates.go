package server

import (
	"container/list"
	"sync"
	"time"

	"github.com/Zachkp/portfolio/internal/contact"
)

// gateEntry is the value stored in each list.Element.
type gateEntry struct {
	visitor string
	gate    *contact.Gate
	touched time.Time
}

// gateRegistry holds one contact gate per visitor, bounded by an idle TTL
// and a maximum size with least-recently-used eviction. Gates that are
// sending are never evicted.
type gateRegistry struct {
	newGate func(visitor string) *contact.Gate
	now     func() time.Time
	ttl     time.Duration
	max     int

	mu    sync.Mutex
	lru   *list.List               // front = most recently used
	items map[string]*list.Element // visitor -> *list.Element (value is *gateEntry)
}

func newGateRegistry(ttl time.Duration, maxGates int, now func() time.Time, newGate func(string) *contact.Gate) *gateRegistry {
	return &gateRegistry{
		newGate: newGate,
		now:     now,
		ttl:     ttl,
		max:     maxGates,
		lru:     list.New(),
		items:   make(map[string]*list.Element),
	}
}

// lookup returns the visitor's gate without creating one.
func (r *gateRegistry) lookup(visitor string) (*contact.Gate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elem, ok := r.items[visitor]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*gateEntry)
	now := r.now()
	if r.expired(entry, now) {
		r.removeLocked(elem)
		return nil, false
	}
	entry.touched = now
	r.lru.MoveToFront(elem)
	return entry.gate, true
}

// acquire returns the visitor's gate, creating it on first use.
func (r *gateRegistry) acquire(visitor string) *contact.Gate {
	if g, ok := r.lookup(visitor); ok {
		return g
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if elem, ok := r.items[visitor]; ok {
		return elem.Value.(*gateEntry).gate
	}
	entry := &gateEntry{visitor: visitor, gate: r.newGate(visitor), touched: r.now()}
	r.items[visitor] = r.lru.PushFront(entry)
	r.evictLocked()
	return entry.gate
}

// release forgets g when it holds nothing worth keeping.
func (r *gateRegistry) release(visitor string, g *contact.Gate) {
	if g.Status() == contact.Sending || !g.Draft().IsZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if elem, ok := r.items[visitor]; ok && elem.Value.(*gateEntry).gate == g {
		r.removeLocked(elem)
	}
}

func (r *gateRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *gateRegistry) expired(e *gateEntry, now time.Time) bool {
	return now.Sub(e.touched) > r.ttl && e.gate.Status() != contact.Sending
}

// evictLocked drops expired gates, then the least recently used ones until
// the registry fits. It is called with r.mu held.
func (r *gateRegistry) evictLocked() {
	now := r.now()
	for elem := r.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if r.expired(elem.Value.(*gateEntry), now) {
			r.removeLocked(elem)
		}
		elem = prev
	}
	for elem := r.lru.Back(); elem != nil && r.lru.Len() > r.max; {
		prev := elem.Prev()
		if elem.Value.(*gateEntry).gate.Status() != contact.Sending {
			r.removeLocked(elem)
		}
		elem = prev
	}
}

func (r *gateRegistry) removeLocked(elem *list.Element) {
	r.lru.Remove(elem)
	delete(r.items, elem.Value.(*gateEntry).visitor)
}
