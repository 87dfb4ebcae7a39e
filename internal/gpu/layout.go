//go:build !nogpu

package gpu

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/voxel"
)

// Vertex buffer slots.
const (
	quadVertexSlot = 0
	instanceSlot   = 1
)

// quadVertexLayout describes the canonical quad buffer.
//
//	position   (vec3<f32>) = 12 bytes (location 0)
//	tex_coords (vec2<f32>) =  8 bytes (location 1)
func quadVertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: voxel.VertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // position
			{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1}, // tex_coords
		},
	}
}

// instanceLayout describes the per-face instance buffer. The model matrix
// is passed as four column attributes.
func instanceLayout() gputypes.VertexBufferLayout {
	attrs := make([]gputypes.VertexAttribute, 0, 6)
	for col := range 4 {
		attrs = append(attrs, gputypes.VertexAttribute{
			Format:         gputypes.VertexFormatFloat32x4,
			Offset:         uint64(col * 16),
			ShaderLocation: uint32(voxel.LocModelCol0 + col),
		})
	}
	attrs = append(attrs,
		gputypes.VertexAttribute{Format: gputypes.VertexFormatUint32, Offset: 64, ShaderLocation: voxel.LocTexIdx},
		gputypes.VertexAttribute{Format: gputypes.VertexFormatUint32, Offset: 68, ShaderLocation: voxel.LocFaceIdx},
	)
	return gputypes.VertexBufferLayout{
		ArrayStride: voxel.InstanceStride,
		StepMode:    gputypes.VertexStepModeInstance,
		Attributes:  attrs,
	}
}

// blockFaceVertexLayouts returns the buffer layouts in slot order.
func blockFaceVertexLayouts() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		quadVertexSlot: quadVertexLayout(),
		instanceSlot:   instanceLayout(),
	}
}
