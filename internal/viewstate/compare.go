package viewstate

import "github.com/chewxy/math32"

const (
	// RelTolerance bounds the difference relative to the larger magnitude.
	RelTolerance float32 = 1e-6
	// AbsTolerance is the floor used near zero.
	AbsTolerance float32 = 1e-6
)

// ApproximatelyEqual compares two snapshots. Scalars, flags and the
// projection enum compare exactly; vectors and matrices compare within
// RelTolerance/AbsTolerance. Snapshots with different field sets are unequal.
func ApproximatelyEqual(a, b *Snapshot) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.present == b.present && sameScalars(a, b) && sameFlags(a, b) && sameVectors(a, b)
}

// HasChanged reports whether current differs from the last stored snapshot.
// Without a baseline there is nothing to propagate, so it returns false.
// Fields are checked scalars first, then flags, then vectors, stopping at the
// first difference; the path where nothing changed does not allocate.
func HasChanged(current, last *Snapshot) bool {
	if last == nil || current == nil {
		return false
	}
	if current.present != last.present {
		return true
	}
	return !sameScalars(current, last) || !sameFlags(current, last) || !sameVectors(current, last)
}

func sameScalars(a, b *Snapshot) bool {
	x, y := &a.state, &b.state
	return x.ClipStart == y.ClipStart &&
		x.ClipEnd == y.ClipEnd &&
		x.Lens == y.Lens &&
		x.ViewCameraZoom == y.ViewCameraZoom &&
		x.ViewDistance == y.ViewDistance
}

func sameFlags(a, b *Snapshot) bool {
	x, y := &a.state, &b.state
	return x.IsOrthographicSideView == y.IsOrthographicSideView &&
		x.IsPerspective == y.IsPerspective &&
		x.LockRotation == y.LockRotation &&
		x.UseBoxClip == y.UseBoxClip &&
		x.UseClipPlanes == y.UseClipPlanes &&
		x.ViewPerspective == y.ViewPerspective
}

func sameVectors(a, b *Snapshot) bool {
	x, y := &a.state, &b.state
	for i := range x.ClipPlanes {
		if !closeSlice(x.ClipPlanes[i][:], y.ClipPlanes[i][:]) {
			return false
		}
	}
	return closeSlice(x.ViewCameraOffset[:], y.ViewCameraOffset[:]) &&
		closeSlice(x.ViewLocation[:], y.ViewLocation[:]) &&
		closeSlice(x.ViewRotation[:], y.ViewRotation[:]) &&
		closeSlice(x.ViewMatrix[:], y.ViewMatrix[:])
}

func closeSlice(a, b []float32) bool {
	for i := range a {
		if !Close(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Close reports whether x and y are equal within the package tolerances.
// Two NaNs compare equal so that a degenerate host value does not register
// as a change on every frame.
func Close(x, y float32) bool {
	if x == y {
		return true
	}
	if math32.IsNaN(x) || math32.IsNaN(y) {
		return math32.IsNaN(x) && math32.IsNaN(y)
	}
	if math32.IsInf(x, 0) || math32.IsInf(y, 0) {
		return false
	}
	diff := math32.Abs(x - y)
	return diff <= math32.Max(RelTolerance*math32.Max(math32.Abs(x), math32.Abs(y)), AbsTolerance)
}
