//go:build !nogpu

// Package gpu draws block faces with WebGPU through the gogpu/wgpu HAL.
//
// The block face shader (shaders/block_face.wgsl) is embedded and validated
// with naga. A Renderer owns one render pipeline:
//
//	group 0: texture_2d_array<f32> (binding 0), filtering sampler (binding 1)
//	group 1: camera uniform, mat4x4<f32> (binding 0)
//
//	slot 0: canonical quad, step mode vertex   (locations 0, 1)
//	slot 1: instances,      step mode instance (locations 5..10)
//
// Every frame is one indexed draw of six indices with one instance per face.
//
// The package builds with the nogpu tag excluded; it holds no global GPU
// state and all resources belong to the Renderer that created them.
package gpu
