package viewsync

import (
	"time"

	"github.com/example/viewport-sync/internal/types"
)

// EventType enumerates engine notifications.
type EventType string

const (
	EventEnabled     EventType = "enabled"
	EventDisabled    EventType = "disabled"
	EventRebuilt     EventType = "rebuilt"
	EventPropagated  EventType = "propagated"
	EventApplyFailed EventType = "apply_failed"
	EventDropped     EventType = "dropped"
)

// Event describes something the engine did. Events are diagnostic only.
type Event struct {
	Type     EventType          `json:"type"`
	Time     time.Time          `json:"time"`
	Mode     types.ScopeMode    `json:"mode"`
	Viewport types.ViewportID   `json:"viewport,omitempty"`
	Window   types.WindowID     `json:"window,omitempty"`
	Peers    []types.ViewportID `json:"peers,omitempty"`
	Fields   string             `json:"fields,omitempty"`
	Members  int                `json:"members"`
	Reason   string             `json:"reason,omitempty"`
}

// Listener receives engine events on the frame thread. It must not block.
type Listener func(Event)

type listenerSlot struct {
	fn Listener
}

// Subscribe registers a listener and returns a function removing it.
func (e *Engine) Subscribe(listener Listener) func() {
	slot := &listenerSlot{fn: listener}
	e.listeners = append(e.listeners, slot)
	return func() {
		for i, l := range e.listeners {
			if l == slot {
				e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

func (e *Engine) observed() bool { return len(e.listeners) > 0 }

func (e *Engine) emit(evt Event) {
	if !e.observed() {
		return
	}
	evt.Time = e.now()
	evt.Mode = e.prefs.Policy().Mode
	evt.Members = e.table.Len()
	for _, l := range append([]*listenerSlot(nil), e.listeners...) {
		l.fn(evt)
	}
}
