// Package membership decides which viewports share a sync group.
package membership

import (
	"slices"
	"strings"

	"github.com/example/viewport-sync/internal/host"
	"github.com/example/viewport-sync/internal/types"
)

// Rebuild enumerates the session and returns a fresh table for mode.
//
//   - Window: sync-enabled viewports on the active window's screen.
//   - Workspace: sync-enabled viewports of every open window showing a screen
//     of the active window's workspace. Screens of that workspace that no
//     window shows are marked do-not-sync.
//   - All: every open window in the session; closed screens of any workspace
//     are marked do-not-sync.
//
// Without an active window only All mode can produce members.
func Rebuild(mode types.ScopeMode, active host.Window, session host.Session) *Table {
	table := NewTable(mode)
	if session == nil {
		return table
	}

	switch mode {
	case types.ScopeWindow:
		if active == nil {
			return table
		}
		addWindow(table, active)
	case types.ScopeWorkspace:
		if active == nil {
			return table
		}
		workspace := active.Workspace()
		shown := make(map[types.ScreenID]struct{})
		for _, w := range session.Windows() {
			if w == nil || w.Workspace() != workspace {
				continue
			}
			if s := addWindow(table, w); s != "" {
				shown[s] = struct{}{}
			}
		}
		for _, ws := range session.Workspaces() {
			if ws == nil || ws.ID() != workspace {
				continue
			}
			markClosed(table, ws, shown)
		}
	case types.ScopeAll:
		shown := make(map[types.ScreenID]struct{})
		for _, w := range session.Windows() {
			if w == nil {
				continue
			}
			if s := addWindow(table, w); s != "" {
				shown[s] = struct{}{}
			}
		}
		for _, ws := range session.Workspaces() {
			if ws == nil {
				continue
			}
			markClosed(table, ws, shown)
		}
	}

	return table
}

// addWindow records the eligible viewports of the screen shown in w and
// returns that screen's id.
func addWindow(table *Table, w host.Window) types.ScreenID {
	screen := w.Screen()
	if screen == nil {
		return ""
	}
	screenID := screen.ID()
	for _, vp := range screen.Viewports() {
		if !Eligible(vp) {
			continue
		}
		table.put(Entry{
			Viewport:  vp,
			Window:    w.ID(),
			Workspace: w.Workspace(),
			Screen:    screenID,
		})
	}
	return screenID
}

func markClosed(table *Table, ws host.Workspace, shown map[types.ScreenID]struct{}) {
	for _, screen := range ws.Screens() {
		if _, open := shown[screen]; !open {
			table.MarkDoNotSync(screen)
		}
	}
}

// Eligible reports whether vp may be a member: it resolves, has its sync flag
// set and is not split into quad view.
func Eligible(vp host.Viewport) bool {
	return vp != nil && vp.Valid() && vp.SyncEnabled() && vp.QuadViews() <= 1
}

// Matches reports whether two entries fall in the same group under mode.
func Matches(a, b Entry, mode types.ScopeMode) bool {
	switch mode {
	case types.ScopeWindow:
		return a.Window == b.Window
	case types.ScopeWorkspace:
		return a.Workspace == b.Workspace
	case types.ScopeAll:
		return true
	default:
		return false
	}
}

// ResolveGroup returns the members sharing active's group under mode, ordered
// by viewport id. The active viewport, handles that no longer resolve and
// viewports on do-not-sync screens are never included, nor are viewports
// whose screen no window shows any more. Window keys are read from the live
// viewports so a window that switched screens groups by where it is now. An
// active viewport without an entry has no group.
func ResolveGroup(table *Table, active types.ViewportID, mode types.ScopeMode) []host.Viewport {
	if table == nil {
		return nil
	}
	self, ok := table.Lookup(active)
	if !ok {
		return nil
	}
	if self.Viewport != nil {
		if w := self.Viewport.Window(); w != "" {
			self.Window = w
		}
	}

	var group []host.Viewport
	for id, e := range table.entries {
		if id == active || e.Viewport == nil || !e.Viewport.Valid() {
			continue
		}
		if e.Window = e.Viewport.Window(); e.Window == "" {
			continue
		}
		if table.Skipped(e.Screen) || !Matches(self, e, mode) {
			continue
		}
		group = append(group, e.Viewport)
	}

	slices.SortFunc(group, func(a, b host.Viewport) int {
		return strings.Compare(string(a.ID()), string(b.ID()))
	})
	return group
}
