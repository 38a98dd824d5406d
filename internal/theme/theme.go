// Package theme holds a visitor's light/dark preference and persists it
// across visits.
package theme

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Preference is the colour scheme of the page.
type Preference string

const (
	Dark  Preference = "dark"
	Light Preference = "light"
)

// StorageKey is the key the preference is persisted under.
const StorageKey = "theme"

// Default is used when nothing usable has been persisted.
const Default = Dark

// Parse converts a stored value into a Preference.
func Parse(s string) (Preference, bool) {
	switch Preference(s) {
	case Dark:
		return Dark, true
	case Light:
		return Light, true
	default:
		return "", false
	}
}

// Opposite returns the other preference.
func (p Preference) Opposite() Preference {
	if p == Light {
		return Dark
	}
	return Light
}

// Storage is a durable key-value store.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Store reconciles the persisted preference once at load; after that the
// in-memory value is authoritative until Toggle changes both.
type Store struct {
	storage Storage
	log     *slog.Logger

	mu      sync.Mutex
	current Preference
}

// Load reads the persisted preference. A missing, unrecognised or unreadable
// value falls back to Default and is never reported to the caller.
func Load(ctx context.Context, storage Storage, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{storage: storage, log: log, current: Default}

	raw, ok, err := storage.Get(ctx, StorageKey)
	switch {
	case err != nil:
		log.Debug("theme read failed, using default", "error", err)
	case !ok:
	default:
		if p, valid := Parse(raw); valid {
			s.current = p
		} else {
			log.Debug("ignoring stored theme", "value", raw)
		}
	}
	return s
}

// Current returns the in-memory preference.
func (s *Store) Current() Preference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Toggle flips the preference and persists it. If persisting fails the
// preference is left unchanged.
func (s *Store) Toggle(ctx context.Context) (Preference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Opposite()
	if err := s.storage.Set(ctx, StorageKey, string(next)); err != nil {
		return s.current, fmt.Errorf("persisting theme: %w", err)
	}
	s.current = next
	return next, nil
}
