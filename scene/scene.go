// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"image/color"
	"path/filepath"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/voxel"
	"github.com/gogpu/voxel/raster"
	"github.com/gogpu/voxel/texture"
)

// Scene is everything one frame needs: viewport, camera, textures,
// instances and pipeline state.
type Scene struct {
	Width, Height int

	Camera voxel.CameraUniform
	// Eye and Forward describe the camera for display; Forward is a unit
	// vector.
	Eye, Forward mgl32.Vec3

	Textures  *texture.Array
	Instances []voxel.Instance
	// Sources are the image files the texture layers were loaded from.
	Sources []string

	Filter     texture.Filter
	Cull       raster.CullMode
	ClearColor color.NRGBA

	// Workers is passed to voxel.WithWorkers.
	Workers int
}

// SourceDirs returns the sorted, distinct directories of Sources.
func (s *Scene) SourceDirs() []string {
	dirs := make([]string, 0, len(s.Sources))
	for _, p := range s.Sources {
		dirs = append(dirs, filepath.Dir(p))
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}

// Frame returns the frame state for voxel.Render.
func (s *Scene) Frame() voxel.Frame {
	return voxel.Frame{
		Camera:   s.Camera,
		Textures: s.Textures,
		Sampler:  texture.Sampler{Filter: s.Filter},
	}
}

// RenderOptions returns the options matching the scene's pipeline state.
func (s *Scene) RenderOptions() []voxel.RenderOption {
	return []voxel.RenderOption{
		voxel.WithCullMode(s.Cull),
		voxel.WithFilter(s.Filter),
		voxel.WithClearColor(s.ClearColor),
		voxel.WithWorkers(s.Workers),
	}
}

// Render draws the scene on the CPU into a new target of the scene's size.
func (s *Scene) Render() (*raster.Target, raster.Stats, error) {
	target := raster.NewTarget(s.Width, s.Height)
	stats, err := voxel.Render(target, s.Frame(), s.Instances, s.RenderOptions()...)
	if err != nil {
		return nil, stats, err
	}
	return target, stats, nil
}
