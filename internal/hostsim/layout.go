package hostsim

import (
	"fmt"

	"github.com/example/viewport-sync/internal/types"
)

// Layout describes a generated session.
type Layout struct {
	Workspaces           int
	Windows              int
	ViewportsPerWindow   int
	ClosedScreensPerWS   int
	SyncEnabledByDefault bool
}

// Build generates a session from layout. Windows are spread round-robin over
// workspaces; each window shows its own screen. Every workspace also gets
// ClosedScreensPerWS screens that no window shows.
func Build(layout Layout, opts Options) *Session {
	if layout.Workspaces < 1 {
		layout.Workspaces = 1
	}
	s := NewSession(opts)

	workspaces := make([]*Workspace, layout.Workspaces)
	for i := range workspaces {
		workspaces[i] = s.AddWorkspace(types.WorkspaceID(fmt.Sprintf("ws-%d", i)))
	}

	for w := 0; w < layout.Windows; w++ {
		ws := workspaces[w%len(workspaces)]
		screen := ws.AddScreen(types.ScreenID(fmt.Sprintf("screen-%d", w)))
		for v := 0; v < layout.ViewportsPerWindow; v++ {
			vp := screen.AddViewport(types.ViewportID(fmt.Sprintf("vp-%d-%d", w, v)))
			vp.SetSyncEnabled(layout.SyncEnabledByDefault)
		}
		s.OpenWindow(types.WindowID(fmt.Sprintf("win-%d", w)), screen)
	}

	for i, ws := range workspaces {
		for c := 0; c < layout.ClosedScreensPerWS; c++ {
			screen := ws.AddScreen(types.ScreenID(fmt.Sprintf("closed-%d-%d", i, c)))
			screen.AddViewport(types.ViewportID(fmt.Sprintf("vp-closed-%d-%d", i, c))).SetSyncEnabled(true)
		}
	}

	return s
}

// Viewport finds a viewport by id on any screen, open or not.
func (s *Session) Viewport(id types.ViewportID) (*Viewport, bool) {
	for _, ws := range s.workspaces {
		for _, sc := range ws.screens {
			for _, vp := range sc.viewports {
				if vp.id == id {
					return vp, true
				}
			}
		}
	}
	return nil, false
}

// VisibleViewports returns the viewports of every screen shown in an open
// window, in window then area order.
func (s *Session) VisibleViewports() []*Viewport {
	var out []*Viewport
	for _, w := range s.windows {
		if w.screen == nil {
			continue
		}
		out = append(out, w.screen.viewports...)
	}
	return out
}
