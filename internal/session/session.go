// Package session coordinates the live state of one open page: the typing
// animation, the scroll-spy and the reveal-on-scroll observer. A session is
// acquired when the page connects and released when it goes away.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Zachkp/portfolio/internal/reveal"
	"github.com/Zachkp/portfolio/internal/scrollspy"
	"github.com/Zachkp/portfolio/internal/typing"
)

var (
	ErrClosed       = errors.New("session: closed")
	ErrUnknownEvent = errors.New("session: unknown event type")
)

// Event types sent by the page.
const (
	EventLayout    = "layout"
	EventScroll    = "scroll"
	EventObserve   = "observe"
	EventIntersect = "intersect"
)

// Event is one message from the page.
type Event struct {
	Type     string           `json:"type"`
	Sections scrollspy.Layout `json:"sections,omitempty"`
	ScrollY  float64          `json:"scroll_y,omitempty"`
	IDs      []string         `json:"ids,omitempty"`
	Entries  []reveal.Entry   `json:"entries,omitempty"`
}

// Frame types sent to the page.
const (
	FrameTyping = "typing"
	FrameActive = "active"
	FrameReveal = "reveal"
	FrameError  = "error"
)

// Frame is one update for the page.
type Frame struct {
	Type    string              `json:"type"`
	Name    string              `json:"name,omitempty"`
	Role    string              `json:"role,omitempty"`
	Phase   string              `json:"phase,omitempty"`
	Section scrollspy.SectionID `json:"section,omitempty"`
	IDs     []string            `json:"ids,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// Options configure a session.
type Options struct {
	Script    typing.Script
	Scheduler typing.Scheduler
	Lookahead float64
	Reveal    reveal.Options
	// Buffer is the capacity of the frame channel.
	Buffer int
	Logger *slog.Logger
}

// Session owns the per-page state machines.
type Session struct {
	log      *slog.Logger
	tracker  *scrollspy.Tracker
	observer *reveal.Observer
	seq      *typing.Sequencer

	frames    chan Frame
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	started bool
	handle  *typing.Handle
	layout  scrollspy.Layout
	scrollY float64
}

// New builds a session. Nothing runs until Start.
func New(opts Options) (*Session, error) {
	if opts.Buffer <= 0 {
		opts.Buffer = 32
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Session{
		log:      opts.Logger,
		tracker:  scrollspy.NewTracker(opts.Lookahead),
		observer: reveal.NewObserver(opts.Reveal, nil),
		frames:   make(chan Frame, opts.Buffer),
		done:     make(chan struct{}),
	}
	seq, err := typing.NewSequencer(opts.Script, opts.Scheduler, s.emitTyping)
	if err != nil {
		return nil, fmt.Errorf("creating typing sequencer: %w", err)
	}
	s.seq = seq
	return s, nil
}

// Frames delivers updates for the page. Stop reading once Done is closed.
func (s *Session) Frames() <-chan Frame { return s.frames }

// Done is closed by Close.
func (s *Session) Done() <-chan struct{} { return s.done }

// Active returns the highlighted section.
func (s *Session) Active() scrollspy.SectionID { return s.tracker.Active() }

// Revealed returns the ids revealed so far.
func (s *Session) Revealed() []string { return s.observer.Set().IDs() }

// Start emits the initial active section and starts the typing animation.
// The session is closed when ctx is done.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("session: already started")
	}
	s.started = true
	s.mu.Unlock()

	if !s.emit(Frame{Type: FrameActive, Section: s.tracker.Active()}) {
		return ErrClosed
	}

	h := s.seq.Start(ctx)
	s.mu.Lock()
	s.handle = h
	s.mu.Unlock()
	// A Close that ran before the handle was stored could not stop it.
	if s.closed() {
		h.Stop()
		return ErrClosed
	}
	context.AfterFunc(ctx, s.Close)
	return nil
}

// Handle applies one page event.
func (s *Session) Handle(ev Event) error {
	if s.closed() {
		return ErrClosed
	}
	switch ev.Type {
	case EventLayout:
		s.mu.Lock()
		s.layout = ev.Sections
		y := s.scrollY
		s.mu.Unlock()
		s.updateActive(y)
	case EventScroll:
		s.mu.Lock()
		s.scrollY = ev.ScrollY
		s.mu.Unlock()
		s.updateActive(ev.ScrollY)
	case EventObserve:
		s.observer.Observe(ev.IDs...)
	case EventIntersect:
		if ids := s.observer.Handle(ev.Entries); len(ids) > 0 {
			s.emit(Frame{Type: FrameReveal, IDs: ids})
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	return nil
}

func (s *Session) updateActive(scrollY float64) {
	s.mu.Lock()
	layout := s.layout
	s.mu.Unlock()
	if id, changed := s.tracker.Update(layout, scrollY); changed {
		s.emit(Frame{Type: FrameActive, Section: id})
	}
}

// Close stops the typing timer and the reveal observer. It is safe to call
// more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		h := s.handle
		s.mu.Unlock()
		if h != nil {
			h.Stop()
		}
		s.observer.Stop()
		close(s.done)
		s.log.Debug("view session closed", "revealed", s.observer.Set().Len())
	})
}

func (s *Session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// emit queues a reducer frame, waiting for room unless the session closes.
func (s *Session) emit(f Frame) bool {
	if s.closed() {
		return false
	}
	select {
	case s.frames <- f:
		return true
	case <-s.done:
		return false
	}
}

// emitTyping runs on the typing timer. Typing frames carry the full state so
// a dropped one is superseded by the next.
func (s *Session) emitTyping(st typing.State) {
	select {
	case s.frames <- Frame{Type: FrameTyping, Name: st.NameShown, Role: st.RoleShown, Phase: st.Phase.String()}:
	default:
	}
}
