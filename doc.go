// Package voxel is the rendering core of a block world: every visible cube
// face is one instance of a single shared quad, oriented by a face code,
// placed by a model matrix and textured from one layer of a texture array.
//
// # Overview
//
// A frame is one instanced draw. The canonical quad (QuadVertices,
// QuadIndices) lies in z = +0.5 facing +Z. Each Instance carries a model
// matrix, a texture layer (TexIdx) and a Face code (FaceIdx). The vertex
// stage computes
//
//	clip = view_proj * model * vec4(Orientation(face) * position, 1)
//
// and passes tex_coords through; tex_idx stays flat across the primitive
// and selects the layer the fragment stage samples.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/voxel"
//	    "github.com/gogpu/voxel/raster"
//	    "github.com/gogpu/voxel/texture"
//	)
//
//	b := texture.NewBuilder()
//	_ = b.Add("dirt", texture.Solid(16, 16, color.NRGBA{139, 90, 43, 255}))
//	layers, _ := b.Build()
//
//	frame := voxel.NewFrame(layers)
//	frame.Camera = voxel.Camera{Position: mgl32.Vec3{-3, 0, 1}}.
//	    Uniform(voxel.NewProjection(640, 480))
//
//	target := raster.NewTarget(640, 480)
//	_, err := voxel.Render(target, frame, []voxel.Instance{
//	    voxel.NewInstance(mgl32.Vec3{0, 0, 0}, 0, voxel.FaceNegX),
//	})
//
// # Face Codes
//
//	0 +Z   1 -Z   2 -X   3 +X   4 +Y   5 -Y
//
// Codes 2 to 5 are reflections (determinant -1) and reverse the quad's
// winding, so face culling is off unless requested.
//
// # Renderers
//
// Render draws on the CPU with the raster package and is the reference for
// the GPU path in internal/gpu, which runs the same stages in WGSL. The
// scene package builds instances from block grids and TOML scene files.
//
// # Logging
//
// The package is silent by default; see SetLogger.
package voxel
