package voxel

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/voxel/internal/parallel"
	"github.com/gogpu/voxel/raster"
	"github.com/gogpu/voxel/texture"
)

// Frame is the frame-scoped state shared by every instance of a draw: the
// camera and the bound texture array with its sampler. Frames are passed
// explicitly so independent passes can use different cameras or textures.
type Frame struct {
	Camera   CameraUniform
	Textures *texture.Array
	Sampler  texture.Sampler
}

// NewFrame returns a frame with an identity camera bound to textures.
func NewFrame(textures *texture.Array) Frame {
	return Frame{Camera: NewCameraUniform(), Textures: textures}
}

// Render draws instances into dst on the CPU with the same stages as the
// GPU pipeline: the vertex stage from TransformVertex, rasterization, and
// a texture array lookup per fragment with tex_idx held flat per instance.
//
// Instances are checked with ValidateInstances first; an invalid instance
// fails the whole call and nothing is drawn.
func Render(dst *raster.Target, frame Frame, instances []Instance, opts ...RenderOption) (raster.Stats, error) {
	if dst == nil || dst.Width() == 0 || dst.Height() == 0 {
		return raster.Stats{}, ErrEmptyTarget
	}
	if frame.Textures == nil {
		return raster.Stats{}, ErrNoTextures
	}
	if err := ValidateInstances(instances, frame.Textures.Len()); err != nil {
		return raster.Stats{}, err
	}

	o := defaultRenderOptions()
	for _, opt := range opts {
		opt(&o)
	}
	sampler := frame.Sampler
	if o.filterSet {
		sampler.Filter = o.filter
	}
	if o.clear {
		dst.Clear(o.clearColor)
	}

	ropts := raster.Options{Cull: o.cull, DepthTest: o.depthTest}
	var stats raster.Stats
	if o.workers > 1 && dst.Height() > 1 {
		stats = renderBands(dst, frame.Camera, sampler, frame.Textures, instances, ropts, o.workers)
	} else {
		stats = drawInstances(dst, frame.Camera, sampler, frame.Textures, instances, ropts)
	}

	Logger().Debug("voxel: cpu render",
		"instances", len(instances),
		"triangles", stats.Triangles,
		"culled", stats.Culled,
		"fragments", stats.Fragments,
		"workers", max(o.workers, 1))
	return stats, nil
}

// drawInstances runs every instance through the vertex stage and
// rasterizes its two triangles into dst.
func drawInstances(dst *raster.Target, cam CameraUniform, sampler texture.Sampler, arr *texture.Array, instances []Instance, ropts raster.Options) raster.Stats {
	var stats raster.Stats
	for _, inst := range instances {
		quad := TransformQuad(inst, cam)
		var verts [4]raster.Vertex
		for i, out := range quad {
			verts[i] = raster.Vertex{Clip: out.Clip, UV: out.TexCoords}
		}

		texIdx := inst.TexIdx
		fs := func(uv mgl32.Vec2) color.NRGBA {
			return sampler.Sample(arr, texIdx, uv[0], uv[1])
		}
		for i := 0; i < len(QuadIndices); i += 3 {
			tri := [3]raster.Vertex{
				verts[QuadIndices[i]],
				verts[QuadIndices[i+1]],
				verts[QuadIndices[i+2]],
			}
			stats.Add(dst.DrawTriangle(tri, ropts, fs))
		}
	}
	return stats
}

// renderBands draws all instances once per row band. Every band sees the
// same triangles, so the triangle counts come from the first band and only
// fragments are summed.
func renderBands(dst *raster.Target, cam CameraUniform, sampler texture.Sampler, arr *texture.Array, instances []Instance, ropts raster.Options, workers int) raster.Stats {
	bands := parallel.Bands(dst.Width(), dst.Height(), workers)
	pool := parallel.NewPool(len(bands))
	defer pool.Close()

	results := make([]raster.Stats, len(bands))
	jobs := make([]func(), len(bands))
	for i, band := range bands {
		bopts := ropts
		bopts.Clip = band
		jobs[i] = func() {
			results[i] = drawInstances(dst, cam, sampler, arr, instances, bopts)
		}
	}
	pool.Run(jobs)

	stats := results[0]
	for _, r := range results[1:] {
		stats.Fragments += r.Fragments
	}
	return stats
}
