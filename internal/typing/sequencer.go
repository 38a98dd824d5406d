package typing

import (
	"context"
	"sync"
	"time"
)

// Timer is a pending callback that can be revoked.
type Timer interface {
	Stop() bool
}

// Scheduler arms one-shot callbacks.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// WallClock schedules callbacks on real timers.
var WallClock Scheduler = wallClock{}

// Sequencer runs a Script on a Scheduler and reports every state change to
// the frame callback.
type Sequencer struct {
	script  Script
	sched   Scheduler
	onFrame func(State)
}

// NewSequencer returns a sequencer for script. A nil scheduler uses WallClock
// and a nil onFrame discards frames.
func NewSequencer(script Script, sched Scheduler, onFrame func(State)) (*Sequencer, error) {
	if err := script.Validate(); err != nil {
		return nil, err
	}
	if sched == nil {
		sched = WallClock
	}
	if onFrame == nil {
		onFrame = func(State) {}
	}
	return &Sequencer{script: script, sched: sched, onFrame: onFrame}, nil
}

// Handle owns the single pending timer of a running animation.
type Handle struct {
	seq *Sequencer

	mu      sync.Mutex
	state   State
	timer   Timer
	stopped bool
	stopCtx func() bool
}

// Start emits the empty initial state and arms the first tick. The animation
// runs until Stop is called or ctx is done.
func (s *Sequencer) Start(ctx context.Context) *Handle {
	h := &Handle{seq: s}

	h.mu.Lock()
	s.onFrame(h.state)
	h.timer = s.sched.AfterFunc(s.script.Tick, h.fire)
	h.mu.Unlock()

	stop := context.AfterFunc(ctx, h.Stop)
	h.mu.Lock()
	h.stopCtx = stop
	h.mu.Unlock()
	return h
}

// fire applies one step and arms the next timer. The next timer is only armed
// here, after the step it depends on has been applied.
func (h *Handle) fire() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	next, delay := h.seq.script.Step(h.state)
	h.state = next
	h.seq.onFrame(next)
	h.timer = h.seq.sched.AfterFunc(delay, h.fire)
}

// State returns the current animation state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Stop revokes the pending timer. Once Stop returns no callback will mutate
// the state or emit a frame. Stop is safe to call more than once.
//
// The frame callback runs with the handle locked and must not call Stop.
func (h *Handle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	if h.stopCtx != nil {
		h.stopCtx()
	}
}

// Stopped reports whether Stop has run.
func (h *Handle) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}
