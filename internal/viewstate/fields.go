package viewstate

import (
	"math/bits"
	"strings"
)

// FieldSet is a bitmask of syncable view attributes.
type FieldSet uint32

const (
	FieldClipStart FieldSet = 1 << iota
	FieldClipEnd
	FieldLens
	FieldClipPlanes
	FieldOrthographicSideView
	FieldPerspective
	FieldLockRotation
	FieldBoxClip
	FieldClipPlanesEnabled
	FieldCameraOffset
	FieldCameraZoom
	FieldViewDistance
	FieldViewLocation
	FieldViewPerspective
	FieldViewRotation
	// FieldViewMatrix is derived by the host. It participates in change
	// detection only and is never written to a target.
	FieldViewMatrix
)

const (
	// ScalarFields are compared exactly.
	ScalarFields = FieldClipStart | FieldClipEnd | FieldLens | FieldCameraZoom | FieldViewDistance
	// FlagFields hold booleans and the projection enum; compared exactly.
	FlagFields = FieldOrthographicSideView | FieldPerspective | FieldLockRotation | FieldBoxClip |
		FieldClipPlanesEnabled | FieldViewPerspective
	// VectorFields are compared with a numeric tolerance.
	VectorFields = FieldClipPlanes | FieldCameraOffset | FieldViewLocation | FieldViewRotation | FieldViewMatrix

	// AllFields is every attribute a snapshot can carry.
	AllFields = ScalarFields | FlagFields | VectorFields
	// WritableFields is every attribute Apply may write.
	WritableFields = AllFields &^ FieldViewMatrix
)

var fieldNames = [...]string{
	"clip_start",
	"clip_end",
	"lens",
	"clip_planes",
	"is_orthographic_side_view",
	"is_perspective",
	"lock_rotation",
	"use_box_clip",
	"use_clip_planes",
	"view_camera_offset",
	"view_camera_zoom",
	"view_distance",
	"view_location",
	"view_perspective",
	"view_rotation",
	"view_matrix",
}

// Has reports whether every field in f is set in s.
func (s FieldSet) Has(f FieldSet) bool { return s&f == f }

// Len returns the number of fields in the set.
func (s FieldSet) Len() int { return bits.OnesCount32(uint32(s)) }

// String lists the field names in declaration order.
func (s FieldSet) String() string {
	if s == 0 {
		return "none"
	}
	names := make([]string, 0, s.Len())
	for i, name := range fieldNames {
		if s&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}
