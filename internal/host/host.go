// Package host declares what the sync engine consumes from the application
// that owns the windows and viewports.
package host

import (
	"github.com/example/viewport-sync/internal/types"
	"github.com/example/viewport-sync/internal/viewstate"
)

// Viewport is a handle to one interactive 3D view. Handles compare by ID and
// may stop resolving (Valid returns false) between frames without notice.
type Viewport interface {
	viewstate.Space

	ID() types.ViewportID
	Valid() bool

	SyncEnabled() bool
	SetSyncEnabled(enabled bool)

	// QuadViews is the number of quad-view regions; more than one means the
	// viewport is split and cannot take part in sync.
	QuadViews() int
	Projection() types.ProjectionMode

	Window() types.WindowID
	Workspace() types.WorkspaceID
	Screen() types.ScreenID
}

// Screen is a layout of areas; its viewports can only be enumerated while it
// is shown in an open window.
type Screen interface {
	ID() types.ScreenID
	Viewports() []Viewport
}

// Window is an open top-level window showing one screen.
type Window interface {
	ID() types.WindowID
	Workspace() types.WorkspaceID
	Screen() Screen
}

// Workspace names the screens that belong to it, open or not.
type Workspace interface {
	ID() types.WorkspaceID
	Screens() []types.ScreenID
}

// Session enumerates the live topology.
type Session interface {
	Windows() []Window
	Workspaces() []Workspace
	// Playing reports whether animation playback is running.
	Playing() bool
}

// DrawHandler is invoked once per visible viewport per redraw.
type DrawHandler func(Viewport)

// FrameHooks lets the engine register its per-frame callback.
type FrameHooks interface {
	// AddDrawHandler registers fn and returns a function removing it.
	AddDrawHandler(fn DrawHandler) (remove func())
}
