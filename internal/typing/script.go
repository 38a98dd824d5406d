// Package typing drives the hero typing animation: the name is revealed one
// character per tick, then the role, then both are cleared and the loop
// starts over.
package typing

import (
	"errors"
	"time"
	"unicode/utf8"
)

// Phase is the position of the animation within one cycle.
type Phase int

const (
	TypingName Phase = iota
	PauseBeforeRole
	TypingRole
	PauseBeforeReset
)

func (p Phase) String() string {
	switch p {
	case TypingName:
		return "typing_name"
	case PauseBeforeRole:
		return "pause_before_role"
	case TypingRole:
		return "typing_role"
	case PauseBeforeReset:
		return "pause_before_reset"
	default:
		return "unknown"
	}
}

// State is what the hero currently shows. NameShown is always a prefix of the
// script name and RoleShown stays empty until the role phase begins.
type State struct {
	NameShown string `json:"name"`
	RoleShown string `json:"role"`
	Phase     Phase  `json:"-"`
}

// Default timings.
const (
	DefaultTick       = 100 * time.Millisecond
	DefaultRolePause  = 500 * time.Millisecond
	DefaultResetPause = 2 * time.Second
)

// Script is the fixed pair of strings and the timings of one cycle.
type Script struct {
	Name       string
	Role       string
	Tick       time.Duration
	RolePause  time.Duration
	ResetPause time.Duration
}

// NewScript returns a script with the default timings.
func NewScript(name, role string) Script {
	return Script{
		Name:       name,
		Role:       role,
		Tick:       DefaultTick,
		RolePause:  DefaultRolePause,
		ResetPause: DefaultResetPause,
	}
}

// Validate rejects timings that would make the loop spin.
func (s Script) Validate() error {
	if s.Tick <= 0 {
		return errors.New("typing: tick must be positive")
	}
	if s.RolePause < 0 || s.ResetPause < 0 {
		return errors.New("typing: pauses must not be negative")
	}
	return nil
}

// Step applies one scheduled callback to st and returns the next state along
// with the delay before the following step.
//
// A reveal phase only ends on the step after its string is complete, so the
// complete name is visible for at least one tick before the pause.
func (s Script) Step(st State) (State, time.Duration) {
	switch st.Phase {
	case TypingName:
		if utf8.RuneCountInString(st.NameShown) >= utf8.RuneCountInString(s.Name) {
			st.NameShown = s.Name
			st.Phase = PauseBeforeRole
			return st, s.RolePause
		}
		st.NameShown = prefix(s.Name, utf8.RuneCountInString(st.NameShown)+1)
		return st, s.Tick
	case PauseBeforeRole:
		st.Phase = TypingRole
		st.RoleShown = ""
		return st, s.Tick
	case TypingRole:
		if utf8.RuneCountInString(st.RoleShown) >= utf8.RuneCountInString(s.Role) {
			st.RoleShown = s.Role
			st.Phase = PauseBeforeReset
			return st, s.ResetPause
		}
		st.RoleShown = prefix(s.Role, utf8.RuneCountInString(st.RoleShown)+1)
		return st, s.Tick
	default:
		return State{Phase: TypingName}, s.Tick
	}
}

// prefix returns the first n runes of str.
func prefix(str string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range str {
		if i == n {
			return str[:pos]
		}
		i++
	}
	return str
}
