// Package hostsim is an in-memory host: workspaces, screens, windows and
// viewports driven by an explicit frame loop. It implements the contracts in
// package host and reproduces the behaviours the sync engine has to survive,
// most notably a write to one viewport synchronously redrawing it.
package hostsim

import (
	"slices"

	"github.com/example/viewport-sync/internal/host"
	"github.com/example/viewport-sync/internal/types"
)

// TopologyKind classifies a topology notification.
type TopologyKind string

const (
	// TopologySyncToggled fires when a user toggles a viewport's sync flag.
	TopologySyncToggled TopologyKind = "sync_toggled"
	// TopologyWorkspaceSwitched fires when a window switches to a screen of
	// another workspace.
	TopologyWorkspaceSwitched TopologyKind = "workspace_switched"
	// TopologyScreenChanged fires when a window opens, closes or switches to
	// another screen of the same workspace.
	TopologyScreenChanged TopologyKind = "screen_changed"
)

// TopologyEvent is delivered to subscribers of Session.Subscribe.
type TopologyEvent struct {
	Kind     TopologyKind
	Window   types.WindowID
	Viewport types.ViewportID
}

// Options tunes simulated host behaviour.
type Options struct {
	// RedrawOnWrite makes every Store on a viewport redraw it immediately,
	// nested inside the caller's draw callback.
	RedrawOnWrite bool
}

// Session is the simulated application session. Like a real host it is
// single-threaded: all methods must be called from the frame goroutine.
type Session struct {
	opts Options

	workspaces []*Workspace
	windows    []*Window
	playing    bool

	handlers  []*handlerSlot
	listeners []*listenerSlot
	drawing   map[types.ViewportID]bool
	frame     uint64
}

type handlerSlot struct {
	fn host.DrawHandler
}

type listenerSlot struct {
	fn func(TopologyEvent)
}

// NewSession returns an empty session.
func NewSession(opts Options) *Session {
	return &Session{opts: opts, drawing: make(map[types.ViewportID]bool)}
}

// AddWorkspace creates a workspace.
func (s *Session) AddWorkspace(id types.WorkspaceID) *Workspace {
	ws := &Workspace{id: id, session: s}
	s.workspaces = append(s.workspaces, ws)
	return ws
}

// OpenWindow opens a window showing screen.
func (s *Session) OpenWindow(id types.WindowID, screen *Screen) *Window {
	w := &Window{id: id, screen: screen, session: s}
	s.windows = append(s.windows, w)
	s.emit(TopologyEvent{Kind: TopologyScreenChanged, Window: id})
	return w
}

// CloseWindow closes the window; its screen stays in its workspace.
func (s *Session) CloseWindow(id types.WindowID) {
	before := len(s.windows)
	s.windows = slices.DeleteFunc(s.windows, func(w *Window) bool { return w.id == id })
	if len(s.windows) != before {
		s.emit(TopologyEvent{Kind: TopologyScreenChanged, Window: id})
	}
}

// Window returns the open window with the given id.
func (s *Session) Window(id types.WindowID) (*Window, bool) {
	for _, w := range s.windows {
		if w.id == id {
			return w, true
		}
	}
	return nil, false
}

// Screen returns the screen with the given id from any workspace.
func (s *Session) Screen(id types.ScreenID) (*Screen, bool) {
	for _, ws := range s.workspaces {
		for _, sc := range ws.screens {
			if sc.id == id {
				return sc, true
			}
		}
	}
	return nil, false
}

// Windows implements host.Session.
func (s *Session) Windows() []host.Window {
	out := make([]host.Window, 0, len(s.windows))
	for _, w := range s.windows {
		out = append(out, w)
	}
	return out
}

// Workspaces implements host.Session.
func (s *Session) Workspaces() []host.Workspace {
	out := make([]host.Workspace, 0, len(s.workspaces))
	for _, ws := range s.workspaces {
		out = append(out, ws)
	}
	return out
}

// Playing implements host.Session.
func (s *Session) Playing() bool { return s.playing }

// SetPlaying starts or stops animation playback.
func (s *Session) SetPlaying(playing bool) { s.playing = playing }

// Frame returns how many frames have been drawn.
func (s *Session) Frame() uint64 { return s.frame }

// AddDrawHandler implements host.FrameHooks.
func (s *Session) AddDrawHandler(fn host.DrawHandler) func() {
	slot := &handlerSlot{fn: fn}
	s.handlers = append(s.handlers, slot)
	return func() {
		s.handlers = slices.DeleteFunc(s.handlers, func(h *handlerSlot) bool { return h == slot })
	}
}

// Handlers returns the number of registered draw handlers.
func (s *Session) Handlers() int { return len(s.handlers) }

// Subscribe registers a topology listener and returns a function removing it.
func (s *Session) Subscribe(fn func(TopologyEvent)) func() {
	slot := &listenerSlot{fn: fn}
	s.listeners = append(s.listeners, slot)
	return func() {
		s.listeners = slices.DeleteFunc(s.listeners, func(l *listenerSlot) bool { return l == slot })
	}
}

func (s *Session) emit(evt TopologyEvent) {
	for _, l := range slices.Clone(s.listeners) {
		l.fn(evt)
	}
}

// Redraw draws one frame: every valid viewport on every open window's screen
// is passed to each draw handler once, in window then area order.
func (s *Session) Redraw() {
	s.frame++
	for _, w := range slices.Clone(s.windows) {
		if w.screen == nil {
			continue
		}
		for _, vp := range slices.Clone(w.screen.viewports) {
			s.draw(vp)
		}
	}
}

// RedrawViewport draws a single viewport outside the frame loop.
func (s *Session) RedrawViewport(vp *Viewport) { s.draw(vp) }

func (s *Session) draw(vp *Viewport) {
	if vp.closed || s.drawing[vp.id] {
		return
	}
	s.drawing[vp.id] = true
	defer delete(s.drawing, vp.id)

	vp.draws++
	for _, h := range slices.Clone(s.handlers) {
		h.fn(vp)
	}
}

func (s *Session) windowShowing(screen *Screen) *Window {
	for _, w := range s.windows {
		if w.screen == screen {
			return w
		}
	}
	return nil
}

// Workspace is a named set of screens.
type Workspace struct {
	id      types.WorkspaceID
	session *Session
	screens []*Screen
}

// ID implements host.Workspace.
func (ws *Workspace) ID() types.WorkspaceID { return ws.id }

// Screens implements host.Workspace.
func (ws *Workspace) Screens() []types.ScreenID {
	out := make([]types.ScreenID, 0, len(ws.screens))
	for _, sc := range ws.screens {
		out = append(out, sc.id)
	}
	return out
}

// AddScreen creates a screen in the workspace.
func (ws *Workspace) AddScreen(id types.ScreenID) *Screen {
	sc := &Screen{id: id, workspace: ws}
	ws.screens = append(ws.screens, sc)
	return sc
}

// Screen is an area layout holding viewports.
type Screen struct {
	id        types.ScreenID
	workspace *Workspace
	viewports []*Viewport
}

// ID implements host.Screen.
func (sc *Screen) ID() types.ScreenID { return sc.id }

// Viewports implements host.Screen.
func (sc *Screen) Viewports() []host.Viewport {
	out := make([]host.Viewport, 0, len(sc.viewports))
	for _, vp := range sc.viewports {
		out = append(out, vp)
	}
	return out
}

// RemoveViewport closes the viewport; outstanding handles stop resolving.
func (sc *Screen) RemoveViewport(id types.ViewportID) {
	sc.viewports = slices.DeleteFunc(sc.viewports, func(vp *Viewport) bool {
		if vp.id == id {
			vp.closed = true
			return true
		}
		return false
	})
}

// Window is an open window.
type Window struct {
	id      types.WindowID
	screen  *Screen
	session *Session
}

// ID implements host.Window.
func (w *Window) ID() types.WindowID { return w.id }

// Workspace implements host.Window.
func (w *Window) Workspace() types.WorkspaceID {
	if w.screen == nil {
		return ""
	}
	return w.screen.workspace.id
}

// Screen implements host.Window.
func (w *Window) Screen() host.Screen {
	if w.screen == nil {
		return nil
	}
	return w.screen
}

// Show switches the window to another screen and notifies subscribers.
// Showing the current screen again is not a change.
func (w *Window) Show(screen *Screen) {
	if w.screen == screen {
		return
	}
	before := w.Workspace()
	w.screen = screen
	kind := TopologyScreenChanged
	if w.Workspace() != before {
		kind = TopologyWorkspaceSwitched
	}
	w.session.emit(TopologyEvent{Kind: kind, Window: w.id})
}
