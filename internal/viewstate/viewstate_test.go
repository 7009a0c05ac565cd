package viewstate

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/viewport-sync/internal/types"
)

type memSpace struct {
	fields FieldSet
	state  State
	stores int
	panic  bool
}

func (m *memSpace) Fields() FieldSet { return m.fields }

func (m *memSpace) Load(dst *State) { *dst = m.state }

func (m *memSpace) Store(src *State, fields FieldSet) {
	if m.panic {
		panic("viewport closed")
	}
	m.stores++
	m.state = mergeStates(m.state, *src, fields)
}

// mergeStates overlays the fields of src onto dst.
func mergeStates(dst, src State, fields FieldSet) State {
	out := dst
	if fields.Has(FieldClipStart) {
		out.ClipStart = src.ClipStart
	}
	if fields.Has(FieldClipEnd) {
		out.ClipEnd = src.ClipEnd
	}
	if fields.Has(FieldLens) {
		out.Lens = src.Lens
	}
	if fields.Has(FieldClipPlanes) {
		out.ClipPlanes = src.ClipPlanes
	}
	if fields.Has(FieldViewDistance) {
		out.ViewDistance = src.ViewDistance
	}
	if fields.Has(FieldViewLocation) {
		out.ViewLocation = src.ViewLocation
	}
	if fields.Has(FieldViewRotation) {
		out.ViewRotation = src.ViewRotation
	}
	if fields.Has(FieldViewPerspective) {
		out.ViewPerspective = src.ViewPerspective
	}
	if fields.Has(FieldPerspective) {
		out.IsPerspective = src.IsPerspective
	}
	if fields.Has(FieldViewMatrix) {
		out.ViewMatrix = src.ViewMatrix
	}
	return out
}

func sampleState() State {
	return State{
		ClipStart:       0.01,
		ClipEnd:         1000,
		Lens:            50,
		IsPerspective:   true,
		ViewDistance:    10,
		ViewLocation:    [3]float32{1, 2, 3},
		ViewPerspective: types.ProjectionPerspective,
		ViewRotation:    [4]float32{1, 0, 0, 0},
		ViewMatrix:      [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, -10, 1},
	}
}

func TestCaptureOmitsAbsentFields(t *testing.T) {
	sp := &memSpace{fields: FieldViewDistance | FieldViewLocation, state: sampleState()}

	snap := Capture(sp)

	assert.Equal(t, FieldViewDistance|FieldViewLocation, snap.Present())
	st := snap.State()
	assert.Equal(t, float32(10), st.ViewDistance)
	assert.Equal(t, [3]float32{1, 2, 3}, st.ViewLocation)
	assert.Zero(t, st.Lens, "absent field must not leak")
	assert.Zero(t, st.ViewMatrix)
}

func TestCaptureNeverPanics(t *testing.T) {
	none := Capture(nil)
	assert.True(t, none.Empty())

	bad := &panickingLoader{}
	snap := Capture(bad)
	assert.True(t, snap.Empty())
}

type panickingLoader struct{}

func (panickingLoader) Fields() FieldSet { return AllFields }

func (panickingLoader) Load(*State) { panic("region freed") }

func (panickingLoader) Store(*State, FieldSet) {}

func TestApplySkipsUnavailableFieldsAndViewMatrix(t *testing.T) {
	src := NewSnapshot(sampleState(), AllFields)
	target := &memSpace{fields: FieldViewDistance | FieldViewMatrix | FieldLens}

	written, err := Apply(&src, target)
	require.NoError(t, err)

	assert.Equal(t, FieldViewDistance|FieldLens, written)
	assert.Equal(t, float32(10), target.state.ViewDistance)
	assert.Equal(t, float32(50), target.state.Lens)
	assert.Zero(t, target.state.ViewMatrix, "view matrix is derived and never copied")
}

func TestApplyIsIdempotent(t *testing.T) {
	src := NewSnapshot(sampleState(), WritableFields)
	target := &memSpace{fields: AllFields}

	_, err := Apply(&src, target)
	require.NoError(t, err)
	once := Capture(target)

	_, err = Apply(&src, target)
	require.NoError(t, err)
	twice := Capture(target)

	assert.True(t, ApproximatelyEqual(&once, &twice))
	assert.Equal(t, 2, target.stores)
}

func TestApplyReportsHostFault(t *testing.T) {
	src := NewSnapshot(sampleState(), AllFields)
	target := &memSpace{fields: AllFields, panic: true}

	written, err := Apply(&src, target)
	assert.Zero(t, written)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreFailed))
}

func TestApproximatelyEqualTolerance(t *testing.T) {
	base := sampleState()
	a := NewSnapshot(base, AllFields)

	noisy := base
	noisy.ViewLocation[0] += 1e-7
	noisy.ViewMatrix[14] *= 1 + 1e-7
	b := NewSnapshot(noisy, AllFields)
	assert.True(t, ApproximatelyEqual(&a, &b), "representation noise is not a change")

	moved := base
	moved.ViewLocation[0] += 0.01
	c := NewSnapshot(moved, AllFields)
	assert.False(t, ApproximatelyEqual(&a, &c))

	scalar := base
	scalar.ViewDistance = base.ViewDistance + 1e-6
	d := NewSnapshot(scalar, AllFields)
	assert.False(t, ApproximatelyEqual(&a, &d), "scalars compare exactly")

	fewer := NewSnapshot(base, AllFields&^FieldLens)
	assert.False(t, ApproximatelyEqual(&a, &fewer))
}

func TestCloseHandlesSpecialValues(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	assert.True(t, Close(nan, nan))
	assert.False(t, Close(nan, 0))
	assert.True(t, Close(inf, inf))
	assert.False(t, Close(inf, math.MaxFloat32))
	assert.True(t, Close(0, 1e-7))
}

func TestHasChangedBaseline(t *testing.T) {
	cur := NewSnapshot(sampleState(), AllFields)
	assert.False(t, HasChanged(&cur, nil), "no baseline means nothing to propagate")

	same := cur
	assert.False(t, HasChanged(&cur, &same))

	flipped := sampleState()
	flipped.UseBoxClip = true
	other := NewSnapshot(flipped, AllFields)
	assert.True(t, HasChanged(&other, &cur))
}

func TestDetectorLineage(t *testing.T) {
	sp := &memSpace{fields: AllFields, state: sampleState()}
	var d Detector

	assert.Nil(t, d.Baseline())
	assert.False(t, d.Observe(sp), "first observation establishes baseline")
	require.NotNil(t, d.Baseline())
	assert.False(t, d.Observe(sp))

	sp.state.ViewDistance = 12.5
	assert.True(t, d.Observe(sp))
	assert.Equal(t, float32(12.5), d.Baseline().State().ViewDistance)
	assert.False(t, d.Observe(sp), "baseline was replaced on change")

	d.Reset()
	sp.state.ViewDistance = 3
	assert.False(t, d.Observe(sp), "reset starts a new lineage")
}

func TestDetectorObserveDoesNotAllocate(t *testing.T) {
	sp := &memSpace{fields: AllFields, state: sampleState()}
	d := &Detector{}
	d.Observe(sp)

	allocs := testing.AllocsPerRun(100, func() {
		d.Observe(sp)
	})
	assert.Zero(t, allocs)
}

func TestFieldSetString(t *testing.T) {
	assert.Equal(t, "none", FieldSet(0).String())
	assert.Equal(t, "lens,view_distance", (FieldLens | FieldViewDistance).String())
	assert.Equal(t, 16, AllFields.Len())
	assert.False(t, WritableFields.Has(FieldViewMatrix))
}
