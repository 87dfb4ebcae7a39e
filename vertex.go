package voxel

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is one corner of the shared canonical quad.
//
// GPU layout (VertexStride bytes, step mode vertex):
//
//	position   vec3<f32>  offset 0   location 0
//	tex_coords vec2<f32>  offset 12  location 1
type Vertex struct {
	Position  mgl32.Vec3
	TexCoords mgl32.Vec2
}

// VertexStride is the byte size of one Vertex in the vertex buffer.
const VertexStride = 20

// QuadHalfExtent is half the edge length of the canonical quad.
const QuadHalfExtent = 0.5

// QuadVertices is the canonical unit quad: it lies in z=+0.5 with normal +Z
// and tex (0,0) at its top-left corner when seen from +Z with +Y up.
var QuadVertices = [4]Vertex{
	{Position: mgl32.Vec3{-0.5, 0.5, 0.5}, TexCoords: mgl32.Vec2{0, 0}},
	{Position: mgl32.Vec3{-0.5, -0.5, 0.5}, TexCoords: mgl32.Vec2{0, 1}},
	{Position: mgl32.Vec3{0.5, -0.5, 0.5}, TexCoords: mgl32.Vec2{1, 1}},
	{Position: mgl32.Vec3{0.5, 0.5, 0.5}, TexCoords: mgl32.Vec2{1, 0}},
}

// QuadIndices triangulates QuadVertices counter-clockwise as seen from +Z.
var QuadIndices = [6]uint16{0, 1, 2, 0, 2, 3}

// AppendBytes appends the little-endian GPU encoding of v to dst.
func (v Vertex) AppendBytes(dst []byte) []byte {
	for _, f := range v.Position {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	for _, f := range v.TexCoords {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

// QuadVertexBytes returns the encoded vertex buffer for the canonical quad.
func QuadVertexBytes() []byte {
	buf := make([]byte, 0, len(QuadVertices)*VertexStride)
	for _, v := range QuadVertices {
		buf = v.AppendBytes(buf)
	}
	return buf
}

// QuadIndexBytes returns the encoded uint16 index buffer, padded to a
// multiple of four bytes as buffer writes require.
func QuadIndexBytes() []byte {
	buf := make([]byte, 0, len(QuadIndices)*2+2)
	for _, i := range QuadIndices {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	if len(buf)%4 != 0 {
		buf = append(buf, 0, 0)
	}
	return buf
}
