package voxel

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceLayout(t *testing.T) {
	inst := NewInstance(mgl32.Vec3{1, 2, 3}, 7, FaceNegY)
	b := inst.AppendBytes(nil)
	require.Len(t, b, InstanceStride)

	f32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[off:])) }

	// Column-major: translation is the fourth column at offset 48.
	assert.Equal(t, float32(1), f32(0))
	assert.Equal(t, float32(1), f32(20))
	assert.Equal(t, float32(1), f32(40))
	assert.Equal(t, float32(1), f32(48))
	assert.Equal(t, float32(2), f32(52))
	assert.Equal(t, float32(3), f32(56))
	assert.Equal(t, float32(1), f32(60))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(b[64:]))
	assert.Equal(t, uint32(FaceNegY), binary.LittleEndian.Uint32(b[68:]))
}

func TestMarshalInstances(t *testing.T) {
	instances := []Instance{
		NewInstance(mgl32.Vec3{0, 0, 0}, 0, FacePosZ),
		NewInstance(mgl32.Vec3{4, 5, 6}, 3, FacePosX),
	}
	b := MarshalInstances(instances)
	require.Len(t, b, 2*InstanceStride)

	got, err := UnmarshalInstance(b[InstanceStride:])
	require.NoError(t, err)
	assert.Equal(t, instances[1], got)

	_, err = UnmarshalInstance(b[:InstanceStride-1])
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestValidateInstances(t *testing.T) {
	ok := []Instance{
		NewInstance(mgl32.Vec3{}, 0, FacePosZ),
		NewInstance(mgl32.Vec3{}, 1, FaceNegY),
	}
	assert.NoError(t, ValidateInstances(ok, 2))

	badFace := append(ok[:1:1], Instance{Model: mgl32.Ident4(), FaceIdx: 6})
	err := ValidateInstances(badFace, 2)
	assert.ErrorIs(t, err, ErrInvalidFace)
	assert.Contains(t, err.Error(), "instance 1")

	err = ValidateInstances(ok, 1)
	assert.ErrorIs(t, err, ErrTexIndexOutOfRange)

	assert.ErrorIs(t, ValidateInstances(ok, 0), ErrTexIndexOutOfRange)
}

func TestFilterValid(t *testing.T) {
	in := []Instance{
		NewInstance(mgl32.Vec3{}, 0, FacePosZ),
		{Model: mgl32.Ident4(), FaceIdx: 9},
		NewInstance(mgl32.Vec3{}, 5, FacePosZ),
		NewInstance(mgl32.Vec3{}, 1, FaceNegZ),
	}
	out, dropped := FilterValid(in, 2)
	assert.Equal(t, 2, dropped)
	require.Len(t, out, 2)
	assert.Equal(t, FacePosZ, out[0].FaceIdx)
	assert.Equal(t, FaceNegZ, out[1].FaceIdx)
}

func TestQuadBuffers(t *testing.T) {
	vb := QuadVertexBytes()
	assert.Len(t, vb, len(QuadVertices)*VertexStride)
	// Second vertex tex_coords.y lives at 20 + 16.
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(vb[36:])))

	ib := QuadIndexBytes()
	assert.Zero(t, len(ib)%4)
	for i, want := range QuadIndices {
		assert.Equal(t, want, binary.LittleEndian.Uint16(ib[i*2:]))
	}
}

func TestQuadWindingAndUV(t *testing.T) {
	// Both triangles are counter-clockwise seen from +Z.
	for i := 0; i < len(QuadIndices); i += 3 {
		a := QuadVertices[QuadIndices[i]].Position
		b := QuadVertices[QuadIndices[i+1]].Position
		c := QuadVertices[QuadIndices[i+2]].Position
		n := b.Sub(a).Cross(c.Sub(a))
		assert.Greater(t, n[2], float32(0), "triangle %d", i/3)
	}
	// tex (0,0) is the top-left corner.
	assert.Equal(t, mgl32.Vec3{-0.5, 0.5, 0.5}, QuadVertices[0].Position)
	assert.Equal(t, mgl32.Vec2{0, 0}, QuadVertices[0].TexCoords)
}
