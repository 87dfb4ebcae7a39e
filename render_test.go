package voxel

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/voxel/raster"
	"github.com/gogpu/voxel/texture"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

const targetSize = 64

// orthoCamera looks down -Z from (0,0,2) with an orthographic projection
// that maps world x and y in [-1, 1] straight onto NDC.
func orthoCamera() CameraUniform {
	return LookAtUniform(
		mgl32.Vec3{0, 0, 2}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0},
		Orthographic(-1, 1, -1, 1, 0.1, 10),
	)
}

// quadrantLayer is a 2x2 layer: red, green on top; blue, white below.
func quadrantLayer() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, green)
	img.SetNRGBA(0, 1, blue)
	img.SetNRGBA(1, 1, white)
	return img
}

func mustArray(t *testing.T, layers ...image.Image) *texture.Array {
	t.Helper()
	arr, err := texture.NewArray(layers...)
	require.NoError(t, err)
	return arr
}

func coveredBounds(img *image.NRGBA, clear color.NRGBA) (image.Rectangle, int) {
	var r image.Rectangle
	n := 0
	for y := range img.Rect.Dy() {
		for x := range img.Rect.Dx() {
			if img.NRGBAAt(x, y) == clear {
				continue
			}
			n++
			r = r.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return r, n
}

func TestRenderFrontFaceCenteredUnflipped(t *testing.T) {
	frame := Frame{Camera: orthoCamera(), Textures: mustArray(t, quadrantLayer())}
	dst := raster.NewTarget(targetSize, targetSize)

	inst := Instance{Model: mgl32.Ident4(), TexIdx: 0, FaceIdx: FacePosZ}
	stats, err := Render(dst, frame, []Instance{inst}, WithCullMode(raster.CullBack))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Triangles)
	assert.Zero(t, stats.Culled)

	// Half-extent 0.5 in a [-1, 1] view covers the middle half of the target.
	bounds, n := coveredBounds(dst.Color, DefaultClearColor)
	assert.Equal(t, image.Rect(16, 16, 48, 48), bounds)
	assert.Equal(t, 32*32, n)

	// tex (0,0) lands top-left; nothing is mirrored.
	assert.Equal(t, red, dst.Color.NRGBAAt(20, 20))
	assert.Equal(t, green, dst.Color.NRGBAAt(43, 20))
	assert.Equal(t, blue, dst.Color.NRGBAAt(20, 43))
	assert.Equal(t, white, dst.Color.NRGBAAt(43, 43))
	assert.Equal(t, DefaultClearColor, dst.Color.NRGBAAt(2, 2))
}

func TestRenderBackFaceIsOppositeAndBackFacing(t *testing.T) {
	frame := Frame{Camera: orthoCamera(), Textures: mustArray(t, quadrantLayer())}
	back := Instance{Model: mgl32.Ident4(), TexIdx: 0, FaceIdx: FaceNegZ}

	// Opposite side of the cube.
	var centroid mgl32.Vec3
	for _, out := range TransformQuad(back, NewCameraUniform()) {
		centroid = centroid.Add(out.Clip.Vec3().Mul(0.25))
	}
	assertVec3(t, mgl32.Vec3{0, 0, -0.5}, centroid)

	// Seen from +Z its winding is reversed, so back-face culling drops it.
	culled := raster.NewTarget(targetSize, targetSize)
	stats, err := Render(culled, frame, []Instance{back}, WithCullMode(raster.CullBack))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Culled)
	assert.Zero(t, stats.Fragments)

	// Drawn without culling it shows the texture mirrored left to right.
	open := raster.NewTarget(targetSize, targetSize)
	_, err = Render(open, frame, []Instance{back})
	require.NoError(t, err)
	assert.Equal(t, green, open.Color.NRGBAAt(20, 20))
	assert.Equal(t, red, open.Color.NRGBAAt(43, 20))

	// It sits behind the +Z face: with both drawn the front face wins.
	front := Instance{Model: mgl32.Ident4(), TexIdx: 0, FaceIdx: FacePosZ}
	both := raster.NewTarget(targetSize, targetSize)
	_, err = Render(both, frame, []Instance{back, front})
	require.NoError(t, err)
	assert.Equal(t, red, both.Color.NRGBAAt(20, 20))
	assert.Less(t, both.Depth(32, 32), open.Depth(32, 32))
}

func TestRenderTexIdxSelectsOwnLayer(t *testing.T) {
	frame := Frame{
		Camera:   orthoCamera(),
		Textures: mustArray(t, texture.Solid(4, 4, red), texture.Solid(4, 4, green)),
	}
	left := NewInstance(mgl32.Vec3{-0.5, 0, 0}, 0, FacePosZ)
	right := NewInstance(mgl32.Vec3{0.5, 0, 0}, 1, FacePosZ)

	for _, f := range []texture.Filter{texture.Nearest, texture.Linear} {
		dst := raster.NewTarget(targetSize, targetSize)
		_, err := Render(dst, frame, []Instance{left, right}, WithFilter(f))
		require.NoError(t, err)

		for y := 16; y < 48; y++ {
			for x := range targetSize {
				want := red
				if x >= targetSize/2 {
					want = green
				}
				if got := dst.Color.NRGBAAt(x, y); got != want {
					t.Fatalf("%v filter: pixel (%d,%d) = %v, want %v", f, x, y, got, want)
				}
			}
		}
	}

	// Same placement, only tex_idx differs: each draw shows its own layer.
	for layer, want := range []color.NRGBA{red, green} {
		dst := raster.NewTarget(targetSize, targetSize)
		inst := Instance{Model: mgl32.Ident4(), TexIdx: uint32(layer), FaceIdx: FacePosZ}
		_, err := Render(dst, frame, []Instance{inst})
		require.NoError(t, err)
		_, n := coveredBounds(dst.Color, DefaultClearColor)
		assert.Equal(t, 32*32, n)
		for y := 16; y < 48; y++ {
			for x := 16; x < 48; x++ {
				require.Equal(t, want, dst.Color.NRGBAAt(x, y))
			}
		}
	}
}

func TestRenderAllFacesOfCube(t *testing.T) {
	// Looking at a cube corner with perspective, the three faces pointing
	// at the camera are visible and hide the other three.
	colors := []color.NRGBA{
		red, green, blue, white,
		{R: 255, G: 255, A: 255},
		{G: 255, B: 255, A: 255},
	}
	var layers []image.Image
	for _, c := range colors {
		layers = append(layers, texture.Solid(2, 2, c))
	}
	const size = 128
	cam := LookAtUniform(mgl32.Vec3{3, 3, 3}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, NewProjection(size, size).Matrix())
	var instances []Instance
	for _, f := range Faces() {
		instances = append(instances, Instance{Model: mgl32.Ident4(), TexIdx: uint32(f), FaceIdx: f})
	}
	dst := raster.NewTarget(size, size)
	_, err := Render(dst, Frame{Camera: cam, Textures: mustArray(t, layers...)}, instances)
	require.NoError(t, err)

	for _, f := range Faces() {
		clip := cam.ViewProj.Mul4x1(f.Normal().Mul(QuadHalfExtent).Vec4(1))
		x := int((clip[0]/clip[3] + 1) * 0.5 * size)
		y := int((1 - clip[1]/clip[3]) * 0.5 * size)
		got := dst.Color.NRGBAAt(x, y)

		facing := f.Normal().Dot(mgl32.Vec3{1, 1, 1}) > 0
		if facing {
			assert.Equal(t, colors[f], got, "%v should be visible at its centre", f)
		} else {
			assert.NotEqual(t, colors[f], got, "%v should be hidden", f)
			assert.NotEqual(t, DefaultClearColor, got, "%v centre should be covered", f)
		}
	}
}

func TestRenderErrors(t *testing.T) {
	frame := Frame{Camera: orthoCamera(), Textures: mustArray(t, quadrantLayer())}
	dst := raster.NewTarget(8, 8)

	_, err := Render(raster.NewTarget(0, 0), frame, nil)
	assert.ErrorIs(t, err, ErrEmptyTarget)

	_, err = Render(dst, Frame{}, nil)
	assert.ErrorIs(t, err, ErrNoTextures)

	_, err = Render(dst, frame, []Instance{{Model: mgl32.Ident4(), FaceIdx: 7}})
	assert.ErrorIs(t, err, ErrInvalidFace)

	_, err = Render(dst, frame, []Instance{{Model: mgl32.Ident4(), TexIdx: 1}})
	assert.ErrorIs(t, err, ErrTexIndexOutOfRange)
}

func TestRenderWithoutClear(t *testing.T) {
	frame := Frame{Camera: orthoCamera(), Textures: mustArray(t, quadrantLayer())}
	dst := raster.NewTarget(targetSize, targetSize)
	dst.Clear(blue)
	_, err := Render(dst, frame, nil, WithoutClear())
	require.NoError(t, err)
	assert.Equal(t, blue, dst.Color.NRGBAAt(0, 0))

	_, err = Render(dst, frame, nil, WithClearColor(green))
	require.NoError(t, err)
	assert.Equal(t, green, dst.Color.NRGBAAt(0, 0))
}

func TestRenderWorkersMatchSerial(t *testing.T) {
	colors := []color.NRGBA{red, green, blue, white, {R: 255, G: 255, A: 255}, {G: 255, B: 255, A: 255}}
	var layers []image.Image
	for _, c := range colors {
		layers = append(layers, texture.Solid(2, 2, c))
	}
	const w, h = 96, 61
	frame := Frame{
		Camera:   LookAtUniform(mgl32.Vec3{3, 2, 4}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, NewProjection(w, h).Matrix()),
		Textures: mustArray(t, layers...),
	}
	var instances []Instance
	for x := -1; x <= 1; x++ {
		for _, f := range Faces() {
			instances = append(instances, NewInstance(mgl32.Vec3{float32(x), 0, float32(-x)}, uint32(f), f))
		}
	}

	serial := raster.NewTarget(w, h)
	want, err := Render(serial, frame, instances)
	require.NoError(t, err)

	for _, n := range []int{2, 3, 8, 200} {
		dst := raster.NewTarget(w, h)
		got, err := Render(dst, frame, instances, WithWorkers(n))
		require.NoError(t, err)
		assert.Equal(t, want, got, "workers=%d stats", n)
		assert.Equal(t, serial.Color.Pix, dst.Color.Pix, "workers=%d image", n)
		for _, p := range [][2]int{{0, 0}, {w / 2, h / 2}, {w - 1, h - 1}} {
			assert.Equal(t, serial.Depth(p[0], p[1]), dst.Depth(p[0], p[1]), "workers=%d depth at %v", n, p)
		}
	}
}
