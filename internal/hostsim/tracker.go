package hostsim

import "github.com/example/viewport-sync/internal/host"

// Reporter receives input-tracking reports.
type Reporter interface {
	SetActiveWindow(w host.Window)
	SetActiveViewport(vp host.Viewport)
}

// Tracker turns pointer movement into active window and viewport reports,
// standing in for the host's mouse-move keymap hook.
type Tracker struct {
	session  *Session
	reporter Reporter
}

// NewTracker builds a tracker reporting to r.
func NewTracker(session *Session, r Reporter) *Tracker {
	return &Tracker{session: session, reporter: r}
}

// PointerMoved reports vp, and the window showing it, as active. Pointer
// movement over a viewport whose screen is not shown is ignored.
func (t *Tracker) PointerMoved(vp *Viewport) {
	if vp == nil || vp.closed {
		return
	}
	w := t.session.windowShowing(vp.screen)
	if w == nil {
		return
	}
	t.reporter.SetActiveWindow(w)
	t.reporter.SetActiveViewport(vp)
}
