package viewsync

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a lifecycle transition is not allowed.
var ErrInvalidTransition = errors.New("invalid engine state transition")

// State is the engine lifecycle state. The allowed transitions:
//
// disabled -> idle
// idle     -> locked | disabled
// locked   -> idle | disabled
//
// While locked the membership table is being rebuilt and every redraw
// callback is dropped, never queued.
type State string

const (
	StateDisabled State = "disabled"
	StateIdle     State = "idle"
	StateLocked   State = "locked"
)

var transitions = map[State][]State{
	StateDisabled: {StateIdle},
	StateIdle:     {StateLocked, StateDisabled},
	StateLocked:   {StateIdle, StateDisabled},
}

func (e *Engine) transition(to State) error {
	for _, allowed := range transitions[e.state] {
		if allowed == to {
			e.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.state, to)
}
