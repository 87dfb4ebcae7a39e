package voxel

import "github.com/go-gl/mathgl/mgl32"

// VertexOutput is what the vertex stage hands to rasterization.
type VertexOutput struct {
	// Clip is the clip-space position.
	Clip mgl32.Vec4
	// TexCoords is the vertex texture coordinate, unchanged.
	TexCoords mgl32.Vec2
	// TexIdx is the instance's texture layer, flat across the primitive.
	TexIdx uint32
	// FaceIdx is the instance's face code, unchanged.
	FaceIdx Face
}

// TransformVertex runs the vertex stage on the CPU. It mirrors vs_main in
// the block-face shader step for step:
//
//	rotated = Orientation(face_idx) * position
//	world   = model * vec4(rotated, 1)
//	clip    = view_proj * world
//
// inst.FaceIdx must be valid.
func TransformVertex(v Vertex, inst Instance, cam CameraUniform) VertexOutput {
	rotated := inst.FaceIdx.Orientation().Mul3x1(v.Position)
	world := inst.Model.Mul4x1(rotated.Vec4(1))
	return VertexOutput{
		Clip:      cam.ViewProj.Mul4x1(world),
		TexCoords: v.TexCoords,
		TexIdx:    inst.TexIdx,
		FaceIdx:   inst.FaceIdx,
	}
}

// InstanceMatrix returns Model * R, the single matrix equivalent to the
// rotation and placement steps of the vertex stage.
func InstanceMatrix(inst Instance) mgl32.Mat4 {
	return inst.Model.Mul4(inst.FaceIdx.Orientation().Mat4())
}

// TransformQuad runs the vertex stage over the canonical quad.
func TransformQuad(inst Instance, cam CameraUniform) [4]VertexOutput {
	var out [4]VertexOutput
	for i, v := range QuadVertices {
		out[i] = TransformVertex(v, inst, cam)
	}
	return out
}
