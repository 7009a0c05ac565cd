package membership

import (
	"github.com/example/viewport-sync/internal/host"
	"github.com/example/viewport-sync/internal/types"
)

// Entry records where a viewport lived the last time it rendered with sync
// enabled.
type Entry struct {
	Viewport  host.Viewport
	Window    types.WindowID
	Workspace types.WorkspaceID
	Screen    types.ScreenID
}

// Table maps viewports to their grouping keys. It is owned by the frame
// thread and is not safe for concurrent use.
type Table struct {
	mode    types.ScopeMode
	entries map[types.ViewportID]Entry
	skip    map[types.ScreenID]struct{}
}

// NewTable returns an empty table for the given scope mode.
func NewTable(mode types.ScopeMode) *Table {
	return &Table{
		mode:    mode,
		entries: make(map[types.ViewportID]Entry),
		skip:    make(map[types.ScreenID]struct{}),
	}
}

// Mode returns the scope mode the table was built for.
func (t *Table) Mode() types.ScopeMode { return t.mode }

// Len returns the number of member viewports.
func (t *Table) Len() int { return len(t.entries) }

// Put records or refreshes the entry of vp from its own identity triple. A
// viewport shown in a window proves its screen is open, so that screen loses
// any do-not-sync mark. Put returns false when vp's screen stays marked.
func (t *Table) Put(vp host.Viewport) bool {
	e := Entry{
		Viewport:  vp,
		Window:    vp.Window(),
		Workspace: vp.Workspace(),
		Screen:    vp.Screen(),
	}
	if e.Window != "" {
		delete(t.skip, e.Screen)
	}
	return t.put(e)
}

func (t *Table) put(e Entry) bool {
	if _, skipped := t.skip[e.Screen]; skipped {
		return false
	}
	t.entries[e.Viewport.ID()] = e
	return true
}

// Remove deletes the entry for id and reports whether one existed.
func (t *Table) Remove(id types.ViewportID) bool {
	if _, ok := t.entries[id]; !ok {
		return false
	}
	delete(t.entries, id)
	return true
}

// Lookup returns the entry recorded for id.
func (t *Table) Lookup(id types.ViewportID) (Entry, bool) {
	e, ok := t.entries[id]
	return e, ok
}

// MarkDoNotSync excludes a screen whose viewports cannot be enumerated.
func (t *Table) MarkDoNotSync(screen types.ScreenID) {
	t.skip[screen] = struct{}{}
}

// Skipped reports whether screen is marked do-not-sync.
func (t *Table) Skipped(screen types.ScreenID) bool {
	_, ok := t.skip[screen]
	return ok
}

// SkippedScreens returns how many screens are marked do-not-sync.
func (t *Table) SkippedScreens() int { return len(t.skip) }

// Prune drops entries whose handles no longer resolve and returns how many
// were removed.
func (t *Table) Prune() int {
	removed := 0
	for id, e := range t.entries {
		if e.Viewport == nil || !e.Viewport.Valid() {
			delete(t.entries, id)
			removed++
		}
	}
	return removed
}

// Clear empties the table, keeping its mode.
func (t *Table) Clear() {
	clear(t.entries)
	clear(t.skip)
}
