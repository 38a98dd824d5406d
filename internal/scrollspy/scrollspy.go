// Package scrollspy maps a vertical scroll offset to the page section that
// navigation should highlight.
package scrollspy

import "sync"

// SectionID names one of the page sections.
type SectionID string

const (
	Home     SectionID = "home"
	About    SectionID = "about"
	Skills   SectionID = "skills"
	Projects SectionID = "projects"
	Contact  SectionID = "contact"
)

// Sections is the fixed top-to-bottom order of the page. The page template
// renders its anchors in this order.
var Sections = []SectionID{Home, About, Skills, Projects, Contact}

// Valid reports whether id is one of Sections.
func Valid(id SectionID) bool {
	for _, s := range Sections {
		if s == id {
			return true
		}
	}
	return false
}

// DefaultLookahead switches the active section slightly before the section's
// top edge reaches the top of the viewport.
const DefaultLookahead = 100

// Extent is the vertical span of a section in document coordinates.
type Extent struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Contains reports whether y falls within [Top, Top+Height).
func (e Extent) Contains(y float64) bool {
	return y >= e.Top && y < e.Top+e.Height
}

// Layout holds the measured extent of each rendered section.
type Layout map[SectionID]Extent

// Resolve scans Sections in order and returns the first one whose extent
// contains offset. Sections missing from the layout are skipped.
func Resolve(layout Layout, offset float64) (SectionID, bool) {
	for _, id := range Sections {
		ext, ok := layout[id]
		if !ok {
			continue
		}
		if ext.Contains(offset) {
			return id, true
		}
	}
	return "", false
}

// Tracker holds the active section.
type Tracker struct {
	mu        sync.Mutex
	lookahead float64
	active    SectionID
}

// NewTracker returns a tracker whose active section is Home.
func NewTracker(lookahead float64) *Tracker {
	return &Tracker{lookahead: lookahead, active: Home}
}

// Active returns the current active section.
func (t *Tracker) Active() SectionID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Update recomputes the active section for scrollY and reports whether it
// changed. When no section contains the biased offset the previous value is
// kept.
func (t *Tracker) Update(layout Layout, scrollY float64) (SectionID, bool) {
	id, ok := Resolve(layout, scrollY+t.lookahead)

	t.mu.Lock()
	defer t.mu.Unlock()
	if !ok || id == t.active {
		return t.active, false
	}
	t.active = id
	return id, true
}
