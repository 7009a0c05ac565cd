package hostsim

import (
	"github.com/chewxy/math32"

	"github.com/example/viewport-sync/internal/types"
	"github.com/example/viewport-sync/internal/viewstate"
)

// DefaultState is the framing of a freshly created viewport.
func DefaultState() viewstate.State {
	return viewstate.State{
		ClipStart:       0.01,
		ClipEnd:         1000,
		Lens:            50,
		IsPerspective:   true,
		ViewCameraZoom:  0,
		ViewDistance:    10,
		ViewPerspective: types.ProjectionPerspective,
		ViewRotation:    [4]float32{1, 0, 0, 0},
	}
}

// Viewport is a simulated 3D view.
type Viewport struct {
	id      types.ViewportID
	screen  *Screen
	session *Session

	fields viewstate.FieldSet
	state  viewstate.State
	sync   bool
	quad   int
	closed bool

	draws  int
	writes int
}

// AddViewport creates a viewport on the screen carrying every view field.
func (sc *Screen) AddViewport(id types.ViewportID) *Viewport {
	return sc.AddViewportWithFields(id, viewstate.AllFields)
}

// AddViewportWithFields creates a viewport that only carries fields.
func (sc *Screen) AddViewportWithFields(id types.ViewportID, fields viewstate.FieldSet) *Viewport {
	vp := &Viewport{
		id:      id,
		screen:  sc,
		session: sc.workspace.session,
		fields:  fields,
		state:   DefaultState(),
		quad:    1,
	}
	sc.viewports = append(sc.viewports, vp)
	return vp
}

// ID implements host.Viewport.
func (vp *Viewport) ID() types.ViewportID { return vp.id }

// Valid implements host.Viewport.
func (vp *Viewport) Valid() bool { return !vp.closed }

// SyncEnabled implements host.Viewport.
func (vp *Viewport) SyncEnabled() bool { return vp.sync }

// SetSyncEnabled implements host.Viewport. Programmatic changes do not notify
// topology subscribers.
func (vp *Viewport) SetSyncEnabled(enabled bool) { vp.sync = enabled }

// ToggleSync flips the sync flag the way the header button does and notifies
// topology subscribers. It is a no-op in quad view, where the button is hidden.
func (vp *Viewport) ToggleSync() {
	if vp.quad > 1 {
		return
	}
	vp.sync = !vp.sync
	vp.session.emit(TopologyEvent{Kind: TopologySyncToggled, Viewport: vp.id, Window: vp.Window()})
}

// QuadViews implements host.Viewport.
func (vp *Viewport) QuadViews() int { return vp.quad }

// SetQuadViews splits (n > 1) or joins (n <= 1) the viewport.
func (vp *Viewport) SetQuadViews(n int) { vp.quad = n }

// Projection implements host.Viewport.
func (vp *Viewport) Projection() types.ProjectionMode { return vp.state.ViewPerspective }

// Window implements host.Viewport. It is empty while no window shows the
// viewport's screen.
func (vp *Viewport) Window() types.WindowID {
	if w := vp.session.windowShowing(vp.screen); w != nil {
		return w.id
	}
	return ""
}

// Workspace implements host.Viewport.
func (vp *Viewport) Workspace() types.WorkspaceID { return vp.screen.workspace.id }

// Screen implements host.Viewport.
func (vp *Viewport) Screen() types.ScreenID { return vp.screen.id }

// Fields implements viewstate.Space.
func (vp *Viewport) Fields() viewstate.FieldSet {
	if vp.closed {
		return 0
	}
	return vp.fields
}

// Load implements viewstate.Space. The view matrix is derived on read.
func (vp *Viewport) Load(dst *viewstate.State) {
	*dst = vp.state
	dst.ViewMatrix = viewMatrix(&vp.state)
}

// Store implements viewstate.Space.
func (vp *Viewport) Store(src *viewstate.State, fields viewstate.FieldSet) {
	if vp.closed {
		panic("hostsim: store on closed viewport " + string(vp.id))
	}
	overlay(&vp.state, src, fields&vp.fields)
	vp.writes++
	if vp.session.opts.RedrawOnWrite {
		vp.session.draw(vp)
	}
}

// State returns the current view attributes.
func (vp *Viewport) State() viewstate.State {
	st := vp.state
	st.ViewMatrix = viewMatrix(&vp.state)
	return st
}

// Update mutates the view as user navigation would. It does not redraw.
func (vp *Viewport) Update(fn func(*viewstate.State)) { fn(&vp.state) }

// Orbit turns the view around the vertical axis by degrees.
func (vp *Viewport) Orbit(degrees float32) {
	half := degrees * math32.Pi / 360
	turn := [4]float32{math32.Cos(half), 0, 0, math32.Sin(half)}
	vp.state.ViewRotation = mulQuat(turn, vp.state.ViewRotation)
}

// Draws returns how many times the viewport was drawn.
func (vp *Viewport) Draws() int { return vp.draws }

// Writes returns how many times the viewport's view was written by Store.
func (vp *Viewport) Writes() int { return vp.writes }

func overlay(dst, src *viewstate.State, fields viewstate.FieldSet) {
	if fields.Has(viewstate.FieldClipStart) {
		dst.ClipStart = src.ClipStart
	}
	if fields.Has(viewstate.FieldClipEnd) {
		dst.ClipEnd = src.ClipEnd
	}
	if fields.Has(viewstate.FieldLens) {
		dst.Lens = src.Lens
	}
	if fields.Has(viewstate.FieldClipPlanes) {
		dst.ClipPlanes = src.ClipPlanes
	}
	if fields.Has(viewstate.FieldOrthographicSideView) {
		dst.IsOrthographicSideView = src.IsOrthographicSideView
	}
	if fields.Has(viewstate.FieldPerspective) {
		dst.IsPerspective = src.IsPerspective
	}
	if fields.Has(viewstate.FieldLockRotation) {
		dst.LockRotation = src.LockRotation
	}
	if fields.Has(viewstate.FieldBoxClip) {
		dst.UseBoxClip = src.UseBoxClip
	}
	if fields.Has(viewstate.FieldClipPlanesEnabled) {
		dst.UseClipPlanes = src.UseClipPlanes
	}
	if fields.Has(viewstate.FieldCameraOffset) {
		dst.ViewCameraOffset = src.ViewCameraOffset
	}
	if fields.Has(viewstate.FieldCameraZoom) {
		dst.ViewCameraZoom = src.ViewCameraZoom
	}
	if fields.Has(viewstate.FieldViewDistance) {
		dst.ViewDistance = src.ViewDistance
	}
	if fields.Has(viewstate.FieldViewLocation) {
		dst.ViewLocation = src.ViewLocation
	}
	if fields.Has(viewstate.FieldViewPerspective) {
		dst.ViewPerspective = src.ViewPerspective
	}
	if fields.Has(viewstate.FieldViewRotation) {
		dst.ViewRotation = src.ViewRotation
	}
}

// mulQuat returns a*b for quaternions in w, x, y, z order.
func mulQuat(a, b [4]float32) [4]float32 {
	return [4]float32{
		a[0]*b[0] - a[1]*b[1] - a[2]*b[2] - a[3]*b[3],
		a[0]*b[1] + a[1]*b[0] + a[2]*b[3] - a[3]*b[2],
		a[0]*b[2] - a[1]*b[3] + a[2]*b[0] + a[3]*b[1],
		a[0]*b[3] + a[1]*b[2] - a[2]*b[1] + a[3]*b[0],
	}
}

// viewMatrix builds the column-major world-to-view matrix: translate by
// -location, rotate by the inverse view rotation, then pull back by distance.
func viewMatrix(st *viewstate.State) [16]float32 {
	w, x, y, z := st.ViewRotation[0], st.ViewRotation[1], st.ViewRotation[2], st.ViewRotation[3]
	if n := math32.Sqrt(w*w + x*x + y*y + z*z); n > 0 {
		w, x, y, z = w/n, x/n, y/n, z/n
	} else {
		w = 1
	}
	// Inverse of a unit quaternion is its conjugate.
	x, y, z = -x, -y, -z

	r := [9]float32{
		1 - 2*(y*y+z*z), 2 * (x*y + w*z), 2 * (x*z - w*y),
		2 * (x*y - w*z), 1 - 2*(x*x+z*z), 2 * (y*z + w*x),
		2 * (x*z + w*y), 2 * (y*z - w*x), 1 - 2*(x*x+y*y),
	}
	loc := st.ViewLocation
	var t [3]float32
	for row := 0; row < 3; row++ {
		t[row] = -(r[row]*loc[0] + r[3+row]*loc[1] + r[6+row]*loc[2])
	}
	t[2] -= st.ViewDistance

	return [16]float32{
		r[0], r[1], r[2], 0,
		r[3], r[4], r[5], 0,
		r[6], r[7], r[8], 0,
		t[0], t[1], t[2], 1,
	}
}
