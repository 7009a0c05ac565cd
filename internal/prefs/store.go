package prefs

import (
	"sync"

	"github.com/example/viewport-sync/internal/types"
)

// Policy is the set of user preferences the sync engine consults on every
// redraw of the active viewport.
type Policy struct {
	// Paused suspends propagation without tearing the engine down.
	Paused bool `json:"paused"`
	// SyncDuringPlayback keeps propagating while animation plays.
	SyncDuringPlayback bool `json:"sync_during_playback"`
	// SyncInCameraView propagates from a viewport looking through the camera.
	SyncInCameraView bool `json:"sync_in_camera_view"`
	// Mode selects the sync group scope.
	Mode types.ScopeMode `json:"mode"`
}

// Default returns the preferences of a fresh installation.
func Default() Policy {
	return Policy{Mode: types.ScopeWindow}
}

// Change describes a preference update.
type Change struct {
	Old Policy
	New Policy
}

// ModeChanged reports whether the scope mode differs between Old and New.
func (c Change) ModeChanged() bool { return c.Old.Mode != c.New.Mode }

// Listener receives preference changes.
type Listener func(Change)

type listenerSlot struct {
	fn Listener
}

// Store holds the current policy and notifies listeners on change. Reads are
// safe from any goroutine; listeners run synchronously on the goroutine that
// made the change.
type Store struct {
	mu        sync.RWMutex
	policy    Policy
	listeners []*listenerSlot
}

// NewStore returns a store seeded with initial.
func NewStore(initial Policy) *Store {
	if !initial.Mode.Valid() {
		initial.Mode = types.ScopeWindow
	}
	return &Store{policy: initial}
}

// Policy returns the current preferences.
func (s *Store) Policy() Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// Subscribe registers a listener. The returned function unregisters it.
func (s *Store) Subscribe(listener Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := &listenerSlot{fn: listener}
	s.listeners = append(s.listeners, slot)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l == slot {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Update applies fn to a copy of the policy and stores the result. Listeners
// are notified only when something actually changed. An invalid mode is
// rejected and the previous mode kept.
func (s *Store) Update(fn func(*Policy)) {
	s.mu.Lock()
	old := s.policy
	next := old
	fn(&next)
	if !next.Mode.Valid() {
		next.Mode = old.Mode
	}
	if next == old {
		s.mu.Unlock()
		return
	}
	s.policy = next
	listeners := append([]*listenerSlot(nil), s.listeners...)
	s.mu.Unlock()

	change := Change{Old: old, New: next}
	for _, l := range listeners {
		l.fn(change)
	}
}

// SetMode changes the scope mode.
func (s *Store) SetMode(mode types.ScopeMode) {
	s.Update(func(p *Policy) { p.Mode = mode })
}

// SetPaused pauses or resumes propagation.
func (s *Store) SetPaused(paused bool) {
	s.Update(func(p *Policy) { p.Paused = paused })
}

// SetSyncDuringPlayback toggles propagation during animation playback.
func (s *Store) SetSyncDuringPlayback(enabled bool) {
	s.Update(func(p *Policy) { p.SyncDuringPlayback = enabled })
}

// SetSyncInCameraView toggles propagation from camera views.
func (s *Store) SetSyncInCameraView(enabled bool) {
	s.Update(func(p *Policy) { p.SyncInCameraView = enabled })
}
