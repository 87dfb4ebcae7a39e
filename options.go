package voxel

import (
	"image/color"

	"github.com/gogpu/voxel/raster"
	"github.com/gogpu/voxel/texture"
)

// RenderOption configures a CPU render.
//
// Example:
//
//	stats, err := voxel.Render(target, frame, instances,
//	    voxel.WithCullMode(raster.CullBack),
//	    voxel.WithFilter(texture.Linear))
type RenderOption func(*renderOptions)

// renderOptions holds the pipeline state for Render.
type renderOptions struct {
	cull       raster.CullMode
	depthTest  bool
	clear      bool
	clearColor color.NRGBA
	filter     texture.Filter
	filterSet  bool
	workers    int
}

// DefaultClearColor is the background the renderers clear to:
// (0.1, 0.2, 0.3, 1.0).
var DefaultClearColor = color.NRGBA{R: 26, G: 51, B: 77, A: 255}

func defaultRenderOptions() renderOptions {
	return renderOptions{
		cull:       raster.CullNone,
		depthTest:  true,
		clear:      true,
		clearColor: DefaultClearColor,
	}
}

// WithCullMode sets face culling. Faces are front facing when
// counter-clockwise on screen. The default is no culling because four of
// the six face orientations mirror the canonical quad and reverse its
// winding.
func WithCullMode(m raster.CullMode) RenderOption {
	return func(o *renderOptions) {
		o.cull = m
	}
}

// WithDepthTest enables or disables the Less depth test. Enabled by default.
func WithDepthTest(enabled bool) RenderOption {
	return func(o *renderOptions) {
		o.depthTest = enabled
	}
}

// WithClearColor sets the colour the target is cleared to before drawing.
func WithClearColor(c color.NRGBA) RenderOption {
	return func(o *renderOptions) {
		o.clear = true
		o.clearColor = c
	}
}

// WithoutClear keeps the target's existing colour and depth.
func WithoutClear() RenderOption {
	return func(o *renderOptions) {
		o.clear = false
	}
}

// WithFilter overrides the frame's sampler filter.
func WithFilter(f texture.Filter) RenderOption {
	return func(o *renderOptions) {
		o.filter = f
		o.filterSet = true
	}
}

// WithWorkers rasterizes in n horizontal bands on n goroutines. Bands own
// disjoint rows, so the image and Stats match a single-threaded render
// exactly. n <= 1 renders on the calling goroutine.
func WithWorkers(n int) RenderOption {
	return func(o *renderOptions) {
		o.workers = n
	}
}
