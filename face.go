package voxel

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Face identifies one of the six faces of a unit cube. The numeric value is
// the face code carried in Instance.FaceIdx and read by the vertex shader.
type Face uint32

// Face codes. The order is part of the GPU contract.
const (
	FacePosZ Face = iota // +Z
	FaceNegZ             // -Z
	FaceNegX             // -X
	FacePosX             // +X
	FacePosY             // +Y
	FaceNegY             // -Y
)

// FaceCount is the number of legal face codes.
const FaceCount = 6

// orientations holds the columns (images of local X, Y, Z) for each face.
// The vertex shader carries an identical table; TestShaderFaceTable keeps
// the two in step.
var orientations = [FaceCount][3]mgl32.Vec3{
	FacePosZ: {{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	FaceNegZ: {{-1, 0, 0}, {0, 1, 0}, {0, 0, -1}},
	FaceNegX: {{0, 0, -1}, {0, 1, 0}, {-1, 0, 0}},
	FacePosX: {{0, 0, 1}, {0, 1, 0}, {1, 0, 0}},
	FacePosY: {{1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	FaceNegY: {{1, 0, 0}, {0, 0, -1}, {0, -1, 0}},
}

var faceNames = [FaceCount]string{"+Z", "-Z", "-X", "+X", "+Y", "-Y"}

// Faces returns all six faces in code order.
func Faces() [FaceCount]Face {
	return [FaceCount]Face{FacePosZ, FaceNegZ, FaceNegX, FacePosX, FacePosY, FaceNegY}
}

// Valid reports whether f is one of the six face codes.
func (f Face) Valid() bool { return f < FaceCount }

// String returns the signed axis name of the face, e.g. "+Z".
func (f Face) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Face(%d)", uint32(f))
	}
	return faceNames[f]
}

// Orientation returns the 3x3 matrix that carries the canonical quad
// (normal +Z) onto face f of a unit cube centred at the origin.
//
// Orientation panics if f is not a valid face code. Producers must reject
// such instances before upload; see ValidateInstances.
func (f Face) Orientation() mgl32.Mat3 {
	if !f.Valid() {
		panic(fmt.Sprintf("voxel: invalid face code %d", uint32(f)))
	}
	c := orientations[f]
	return mgl32.Mat3FromCols(c[0], c[1], c[2])
}

// Normal returns the outward unit normal of face f, which is the image of
// local +Z under Orientation.
func (f Face) Normal() mgl32.Vec3 {
	return f.Orientation().Col(2)
}

// Offset returns the integer step from a cell to its neighbour across f.
func (f Face) Offset() [3]int {
	n := f.Normal()
	return [3]int{int(n[0]), int(n[1]), int(n[2])}
}

// ParseFace parses a face name such as "+z", "-X" or "posy".
func ParseFace(s string) (Face, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	t = strings.NewReplacer("POS", "+", "NEG", "-").Replace(t)
	for i, name := range faceNames {
		if t == name {
			return Face(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidFace, s)
}

// UnmarshalText implements encoding.TextUnmarshaler so faces can be
// written by name in scene files.
func (f *Face) UnmarshalText(text []byte) error {
	v, err := ParseFace(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (f Face) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFace, uint32(f))
	}
	return []byte(f.String()), nil
}
