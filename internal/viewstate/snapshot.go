// Package viewstate captures, compares and copies the view attributes that
// define how a viewport frames the scene.
package viewstate

import (
	"errors"
	"fmt"

	"github.com/example/viewport-sync/internal/types"
)

// ErrStoreFailed wraps a fault raised by a host while writing view attributes.
var ErrStoreFailed = errors.New("view state store failed")

// State is the raw attribute record exchanged with the host. Only the fields
// named by the accompanying FieldSet are meaningful.
type State struct {
	ClipStart float32
	ClipEnd   float32
	Lens      float32

	ClipPlanes [6][4]float32

	IsOrthographicSideView bool
	IsPerspective          bool
	LockRotation           bool
	UseBoxClip             bool
	UseClipPlanes          bool

	ViewCameraOffset [2]float32
	ViewCameraZoom   float32
	ViewDistance     float32
	ViewLocation     [3]float32
	ViewPerspective  types.ProjectionMode
	// ViewRotation is a quaternion in w, x, y, z order.
	ViewRotation [4]float32
	// ViewMatrix is column-major and derived from the other attributes.
	ViewMatrix [16]float32
}

// Space is the host-side storage of one viewport's view attributes.
type Space interface {
	// Fields reports which attributes this space carries.
	Fields() FieldSet
	// Load copies the attributes named by Fields into dst.
	Load(dst *State)
	// Store writes the attributes named by fields from src.
	Store(src *State, fields FieldSet)
}

// Snapshot is an immutable copy of a viewport's view attributes at one
// instant. The zero value is an empty snapshot.
type Snapshot struct {
	state   State
	present FieldSet
}

// NewSnapshot builds a snapshot holding the given fields of state.
func NewSnapshot(state State, present FieldSet) Snapshot {
	present &= AllFields
	return Snapshot{state: mask(state, present), present: present}
}

// State returns a copy of the captured attributes.
func (s *Snapshot) State() State { return s.state }

// Present returns the set of captured fields.
func (s *Snapshot) Present() FieldSet { return s.present }

// Empty reports whether no field was captured.
func (s *Snapshot) Empty() bool { return s.present == 0 }

// Capture reads every attribute the space carries. A nil space or a host
// fault while loading yields an empty snapshot.
func Capture(sp Space) Snapshot {
	var snap Snapshot
	CaptureInto(sp, &snap)
	return snap
}

// CaptureInto is Capture writing into caller-owned storage so that the
// per-frame path does not allocate. It reports whether anything was read.
func CaptureInto(sp Space, dst *Snapshot) (ok bool) {
	*dst = Snapshot{}
	if sp == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			*dst = Snapshot{}
			ok = false
		}
	}()

	present := sp.Fields() & AllFields
	if present == 0 {
		return false
	}
	sp.Load(&dst.state)
	dst.state = mask(dst.state, present)
	dst.present = present
	return true
}

// Apply writes every present, writable field of src that the target carries.
// Fields the target lacks are skipped. It returns the fields written; a host
// fault during the write is reported as ErrStoreFailed.
func Apply(src *Snapshot, target Space) (written FieldSet, err error) {
	if src == nil || target == nil {
		return 0, nil
	}
	defer func() {
		if r := recover(); r != nil {
			written = 0
			err = fmt.Errorf("%w: %v", ErrStoreFailed, r)
		}
	}()

	fields := src.present & target.Fields() & WritableFields
	if fields == 0 {
		return 0, nil
	}
	target.Store(&src.state, fields)
	return fields, nil
}

// mask zeroes every attribute outside present so that absent fields never
// leak host garbage into comparisons.
func mask(s State, present FieldSet) State {
	var out State
	if present.Has(FieldClipStart) {
		out.ClipStart = s.ClipStart
	}
	if present.Has(FieldClipEnd) {
		out.ClipEnd = s.ClipEnd
	}
	if present.Has(FieldLens) {
		out.Lens = s.Lens
	}
	if present.Has(FieldClipPlanes) {
		out.ClipPlanes = s.ClipPlanes
	}
	if present.Has(FieldOrthographicSideView) {
		out.IsOrthographicSideView = s.IsOrthographicSideView
	}
	if present.Has(FieldPerspective) {
		out.IsPerspective = s.IsPerspective
	}
	if present.Has(FieldLockRotation) {
		out.LockRotation = s.LockRotation
	}
	if present.Has(FieldBoxClip) {
		out.UseBoxClip = s.UseBoxClip
	}
	if present.Has(FieldClipPlanesEnabled) {
		out.UseClipPlanes = s.UseClipPlanes
	}
	if present.Has(FieldCameraOffset) {
		out.ViewCameraOffset = s.ViewCameraOffset
	}
	if present.Has(FieldCameraZoom) {
		out.ViewCameraZoom = s.ViewCameraZoom
	}
	if present.Has(FieldViewDistance) {
		out.ViewDistance = s.ViewDistance
	}
	if present.Has(FieldViewLocation) {
		out.ViewLocation = s.ViewLocation
	}
	if present.Has(FieldViewPerspective) {
		out.ViewPerspective = s.ViewPerspective
	}
	if present.Has(FieldViewRotation) {
		out.ViewRotation = s.ViewRotation
	}
	if present.Has(FieldViewMatrix) {
		out.ViewMatrix = s.ViewMatrix
	}
	return out
}
