package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownScopeMode is returned when a scope mode name cannot be parsed.
var ErrUnknownScopeMode = errors.New("unknown scope mode")

// ViewportID identifies one viewport instance owned by the host.
type ViewportID string

// WindowID identifies a top-level host window.
type WindowID string

// WorkspaceID identifies a workspace (a named set of screens).
type WorkspaceID string

// ScreenID identifies a screen layout. A window shows exactly one screen at a
// time; a workspace owns one or more screens.
type ScreenID string

// ScopeMode selects which viewports share a sync group with the active one.
type ScopeMode int

const (
	// ScopeWindow groups viewports shown in the same window.
	ScopeWindow ScopeMode = iota
	// ScopeWorkspace groups viewports whose screens belong to the same workspace.
	ScopeWorkspace
	// ScopeAll groups every viewport in the session.
	ScopeAll
)

// ScopeModes lists every scope mode, narrowest first.
var ScopeModes = []ScopeMode{ScopeWindow, ScopeWorkspace, ScopeAll}

// String implements fmt.Stringer.
func (m ScopeMode) String() string {
	switch m {
	case ScopeWindow:
		return "window"
	case ScopeWorkspace:
		return "workspace"
	case ScopeAll:
		return "all"
	default:
		return fmt.Sprintf("ScopeMode(%d)", int(m))
	}
}

// Valid reports whether m is one of the declared modes.
func (m ScopeMode) Valid() bool {
	switch m {
	case ScopeWindow, ScopeWorkspace, ScopeAll:
		return true
	default:
		return false
	}
}

// ParseScopeMode converts a case-insensitive mode name into a ScopeMode.
func ParseScopeMode(raw string) (ScopeMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "window":
		return ScopeWindow, nil
	case "workspace":
		return ScopeWorkspace, nil
	case "all":
		return ScopeAll, nil
	default:
		return ScopeWindow, fmt.Errorf("%w: %q", ErrUnknownScopeMode, raw)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m ScopeMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownScopeMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ScopeMode) UnmarshalText(text []byte) error {
	parsed, err := ParseScopeMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ProjectionMode is the projection a viewport renders with.
type ProjectionMode uint8

const (
	ProjectionPerspective ProjectionMode = iota
	ProjectionOrthographic
	// ProjectionCamera means the viewport looks through the scene camera.
	ProjectionCamera
)

// String implements fmt.Stringer.
func (p ProjectionMode) String() string {
	switch p {
	case ProjectionPerspective:
		return "perspective"
	case ProjectionOrthographic:
		return "orthographic"
	case ProjectionCamera:
		return "camera"
	default:
		return fmt.Sprintf("ProjectionMode(%d)", uint8(p))
	}
}
