package voxel

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Instance is one rendered cube face: a placement, a texture layer and the
// face code that orients the canonical quad.
//
// GPU layout (InstanceStride bytes, step mode instance):
//
//	model    4 x vec4<f32>  offset 0   locations 5..8 (columns)
//	tex_idx  u32            offset 64  location 9
//	face_idx u32            offset 68  location 10
type Instance struct {
	// Model is the object-to-world transform, column major.
	Model mgl32.Mat4
	// TexIdx selects a layer of the bound texture array.
	TexIdx uint32
	// FaceIdx selects the face orientation.
	FaceIdx Face
}

// InstanceStride is the byte size of one encoded Instance.
const InstanceStride = 72

// Shader locations of the per-instance attributes.
const (
	LocModelCol0 = 5
	LocTexIdx    = 9
	LocFaceIdx   = 10
)

// NewInstance returns an instance drawing face of the unit cube whose
// centre is at pos, textured with layer tex.
func NewInstance(pos mgl32.Vec3, tex uint32, face Face) Instance {
	return Instance{
		Model:   mgl32.Translate3D(pos[0], pos[1], pos[2]),
		TexIdx:  tex,
		FaceIdx: face,
	}
}

// AppendBytes appends the little-endian GPU encoding of inst to dst.
func (inst Instance) AppendBytes(dst []byte) []byte {
	for _, f := range inst.Model {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	dst = binary.LittleEndian.AppendUint32(dst, inst.TexIdx)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(inst.FaceIdx))
	return dst
}

// MarshalInstances encodes instances back to back, InstanceStride bytes each.
func MarshalInstances(instances []Instance) []byte {
	buf := make([]byte, 0, len(instances)*InstanceStride)
	for i := range instances {
		buf = instances[i].AppendBytes(buf)
	}
	return buf
}

// UnmarshalInstance decodes the first InstanceStride bytes of b.
func UnmarshalInstance(b []byte) (Instance, error) {
	if len(b) < InstanceStride {
		return Instance{}, fmt.Errorf("%w: %d bytes, need %d", ErrShortBuffer, len(b), InstanceStride)
	}
	var inst Instance
	for i := range inst.Model {
		inst.Model[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	inst.TexIdx = binary.LittleEndian.Uint32(b[64:])
	inst.FaceIdx = Face(binary.LittleEndian.Uint32(b[68:]))
	return inst, nil
}

// Validate checks the instance against a texture array of layerCount layers.
func (inst Instance) Validate(layerCount int) error {
	if !inst.FaceIdx.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidFace, uint32(inst.FaceIdx))
	}
	if int64(inst.TexIdx) >= int64(layerCount) {
		return fmt.Errorf("%w: %d >= %d", ErrTexIndexOutOfRange, inst.TexIdx, layerCount)
	}
	return nil
}

// ValidateInstances checks every instance and reports the first violation
// with its index. The GPU stage has no error channel, so producers call
// this before upload.
func ValidateInstances(instances []Instance, layerCount int) error {
	for i := range instances {
		if err := instances[i].Validate(layerCount); err != nil {
			return fmt.Errorf("instance %d: %w", i, err)
		}
	}
	return nil
}

// FilterValid returns the instances that pass Validate, reusing the backing
// array of instances, and the number dropped.
func FilterValid(instances []Instance, layerCount int) ([]Instance, int) {
	out := instances[:0]
	for _, inst := range instances {
		if inst.Validate(layerCount) == nil {
			out = append(out, inst)
		}
	}
	dropped := len(instances) - len(out)
	if dropped > 0 {
		Logger().Warn("voxel: dropped invalid instances", "dropped", dropped, "layers", layerCount)
	}
	return out, dropped
}
