// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package raster is a CPU reference rasterizer for clip-space triangles.
//
// It follows the fixed-function rules of a WebGPU render pipeline closely
// enough to check shader-side contracts without a GPU: perspective divide,
// viewport mapping with +Y up in NDC, counter-clockwise front faces,
// optional back-face culling, depth clipping to [0, 1], a Less depth test
// against a buffer cleared to 1.0, and perspective-correct interpolation of
// two texture coordinates. Blending is replace.
//
// Triangles with a vertex at or behind w = 0 are rejected rather than
// clipped against the near plane.
package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is a clip-space position with one interpolated texture coordinate.
type Vertex struct {
	Clip mgl32.Vec4
	UV   mgl32.Vec2
}

// FragmentFunc returns the colour of a fragment at the interpolated uv.
// Per-primitive (flat) values are captured by the closure.
type FragmentFunc func(uv mgl32.Vec2) color.NRGBA

// CullMode selects which triangles are discarded by facing.
type CullMode uint8

const (
	// CullNone draws both faces.
	CullNone CullMode = iota
	// CullBack discards clockwise triangles.
	CullBack
	// CullFront discards counter-clockwise triangles.
	CullFront
)

// String returns a string representation of the cull mode.
func (m CullMode) String() string {
	switch m {
	case CullNone:
		return "none"
	case CullBack:
		return "back"
	case CullFront:
		return "front"
	default:
		return "unknown"
	}
}

// ParseCullMode parses "none", "back" or "front".
func ParseCullMode(s string) (CullMode, bool) {
	switch s {
	case "none", "":
		return CullNone, true
	case "back":
		return CullBack, true
	case "front":
		return CullFront, true
	}
	return CullNone, false
}

// Options controls per-draw pipeline state.
type Options struct {
	Cull CullMode
	// DepthTest enables the Less test and depth writes.
	DepthTest bool
	// Clip limits writes to a pixel rectangle. The zero rectangle means
	// the whole target. Facing and rejection are decided before clipping,
	// so Stats other than Fragments do not depend on Clip.
	Clip image.Rectangle
}

// Stats counts work done by DrawTriangle.
type Stats struct {
	Triangles int // triangles submitted
	Culled    int // discarded by facing
	Rejected  int // discarded for w <= 0 or zero area
	Fragments int // fragments written
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Triangles += o.Triangles
	s.Culled += o.Culled
	s.Rejected += o.Rejected
	s.Fragments += o.Fragments
}

// Target is a colour image with a matching depth buffer.
type Target struct {
	Color *image.NRGBA
	depth []float32
}

// NewTarget returns a w x h target with a transparent colour buffer and
// depth cleared to 1.
func NewTarget(w, h int) *Target {
	t := &Target{
		Color: image.NewNRGBA(image.Rect(0, 0, w, h)),
		depth: make([]float32, w*h),
	}
	t.ClearDepth()
	return t
}

// Width returns the target width in pixels.
func (t *Target) Width() int { return t.Color.Rect.Dx() }

// Height returns the target height in pixels.
func (t *Target) Height() int { return t.Color.Rect.Dy() }

// Clear fills the colour buffer with c and resets depth to 1.
func (t *Target) Clear(c color.NRGBA) {
	for i := 0; i < len(t.Color.Pix); i += 4 {
		t.Color.Pix[i+0] = c.R
		t.Color.Pix[i+1] = c.G
		t.Color.Pix[i+2] = c.B
		t.Color.Pix[i+3] = c.A
	}
	t.ClearDepth()
}

// ClearDepth resets every depth value to 1.
func (t *Target) ClearDepth() {
	for i := range t.depth {
		t.depth[i] = 1
	}
}

// Depth returns the stored depth at pixel (x, y).
func (t *Target) Depth(x, y int) float32 {
	return t.depth[y*t.Width()+x]
}

// screenVertex is a vertex after perspective divide and viewport mapping.
type screenVertex struct {
	x, y float64 // pixels, +y down
	z    float64 // NDC depth
	invW float64
	uv   mgl32.Vec2
}

// SignedArea returns twice the signed NDC area of the triangle; positive
// means counter-clockwise (front facing). ok is false when a vertex has
// w <= 0.
func SignedArea(v [3]Vertex) (area float64, ok bool) {
	var nx, ny [3]float64
	for i := range v {
		w := float64(v[i].Clip[3])
		if w <= 0 {
			return 0, false
		}
		nx[i] = float64(v[i].Clip[0]) / w
		ny[i] = float64(v[i].Clip[1]) / w
	}
	return (nx[1]-nx[0])*(ny[2]-ny[0]) - (nx[2]-nx[0])*(ny[1]-ny[0]), true
}

// DrawTriangle rasterizes one triangle into t, calling fs for every
// fragment that survives culling, depth clipping and the depth test.
func (t *Target) DrawTriangle(v [3]Vertex, opts Options, fs FragmentFunc) Stats {
	st := Stats{Triangles: 1}

	area, ok := SignedArea(v)
	if !ok || area == 0 {
		st.Rejected++
		return st
	}
	switch {
	case opts.Cull == CullBack && area < 0,
		opts.Cull == CullFront && area > 0:
		st.Culled++
		return st
	}

	w, h := t.Width(), t.Height()
	var sv [3]screenVertex
	for i := range v {
		c := v[i].Clip
		invW := 1 / float64(c[3])
		sv[i] = screenVertex{
			x:    (float64(c[0])*invW + 1) * 0.5 * float64(w),
			y:    (1 - float64(c[1])*invW) * 0.5 * float64(h),
			z:    float64(c[2]) * invW,
			invW: invW,
			uv:   v[i].UV,
		}
	}

	clip := t.Color.Rect
	if !opts.Clip.Empty() {
		clip = clip.Intersect(opts.Clip)
	}
	minX := max(clip.Min.X, int(math.Floor(min3(sv[0].x, sv[1].x, sv[2].x))))
	maxX := min(clip.Max.X-1, int(math.Ceil(max3(sv[0].x, sv[1].x, sv[2].x))))
	minY := max(clip.Min.Y, int(math.Floor(min3(sv[0].y, sv[1].y, sv[2].y))))
	maxY := min(clip.Max.Y-1, int(math.Ceil(max3(sv[0].y, sv[1].y, sv[2].y))))

	total := edge(sv[0], sv[1], sv[2].x, sv[2].y)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5

			b0 := edge(sv[1], sv[2], px, py) / total
			b1 := edge(sv[2], sv[0], px, py) / total
			b2 := edge(sv[0], sv[1], px, py) / total
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			z := b0*sv[0].z + b1*sv[1].z + b2*sv[2].z
			if z < 0 || z > 1 {
				continue
			}
			idx := y*w + x
			if opts.DepthTest && float32(z) >= t.depth[idx] {
				continue
			}

			// Perspective-correct uv: interpolate uv/w and 1/w.
			w0, w1, w2 := b0*sv[0].invW, b1*sv[1].invW, b2*sv[2].invW
			sum := w0 + w1 + w2
			uv := mgl32.Vec2{
				float32((w0*float64(sv[0].uv[0]) + w1*float64(sv[1].uv[0]) + w2*float64(sv[2].uv[0])) / sum),
				float32((w0*float64(sv[0].uv[1]) + w1*float64(sv[1].uv[1]) + w2*float64(sv[2].uv[1])) / sum),
			}

			t.Color.SetNRGBA(x, y, fs(uv))
			if opts.DepthTest {
				t.depth[idx] = float32(z)
			}
			st.Fragments++
		}
	}
	return st
}

// edge is the screen-space edge function of (a, b) evaluated at (px, py).
func edge(a, b screenVertex, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

func min3(a, b, c float64) float64 { return math.Min(a, math.Min(b, c)) }

func max3(a, b, c float64) float64 { return math.Max(a, math.Max(b, c)) }
