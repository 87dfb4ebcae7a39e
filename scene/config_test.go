// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/voxel"
	"github.com/gogpu/voxel/raster"
	"github.com/gogpu/voxel/texture"
)

const blockScene = `
[viewport]
width = 32
height = 32
cull = "none"
clear = "#000000"

[camera]
projection = "orthographic"
eye = [0.5, 0.5, 5.0]
target = [0.5, 0.5, 0.5]
up = [0.0, 1.0, 0.0]
extent = 1.0

[textures]
size = [4, 4]
[[textures.layer]]
name = "red"
color = "#f00"
[[textures.layer]]
name = "green"
color = "#00ff00"

[[block]]
pos = [0, 0, 0]
texture = "red"

[[face]]
pos = [5.0, 5.0, 5.0]
face = "-Y"
texture = "green"
`

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader(blockScene))
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Viewport.Width)
	require.NotNil(t, cfg.Viewport.Clear)
	assert.Equal(t, color.NRGBA{A: 255}, cfg.Viewport.Clear.NRGBA())
	assert.Equal(t, "orthographic", cfg.Camera.Projection)
	assert.Equal(t, [3]float32{0.5, 0.5, 5}, cfg.Camera.Eye)
	require.Len(t, cfg.Textures.Layers, 2)
	assert.Equal(t, Color{R: 255, A: 255}, *cfg.Textures.Layers[0].Color)
	require.Len(t, cfg.Blocks, 1)
	require.Len(t, cfg.Faces, 1)
	assert.Equal(t, voxel.FaceNegY, cfg.Faces[0].Face)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown key", "[viewport]\nwidht = 3\n"},
		{"bad face", "[[face]]\nface = \"+W\"\n"},
		{"bad color", "[viewport]\nclear = \"#12345\"\n"},
		{"syntax", "[viewport\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestBuild(t *testing.T) {
	cfg, err := Parse(strings.NewReader(blockScene))
	require.NoError(t, err)
	s, err := cfg.Build(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 32, s.Width)
	assert.Equal(t, 32, s.Height)
	assert.Equal(t, raster.CullNone, s.Cull)
	assert.Equal(t, texture.Nearest, s.Filter)
	assert.Equal(t, 2, s.Textures.Len())
	assert.Equal(t, 4, s.Textures.Width())
	// One explicit face plus the six faces of the lone block.
	require.Len(t, s.Instances, 7)
	assert.Equal(t, voxel.FaceNegY, s.Instances[0].FaceIdx)
	assert.Equal(t, uint32(1), s.Instances[0].TexIdx)
	require.NoError(t, voxel.ValidateInstances(s.Instances, s.Textures.Len()))
}

func TestBuildDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
[[textures.layer]]
name = "stone"
color = "#808080"
[camera]
eye = [3.0, 3.0, 3.0]
`))
	require.NoError(t, err)
	s, err := cfg.Build("")
	require.NoError(t, err)

	assert.Equal(t, DefaultWidth, s.Width)
	assert.Equal(t, DefaultHeight, s.Height)
	assert.Equal(t, voxel.DefaultClearColor, s.ClearColor)
	assert.Equal(t, DefaultLayerSize, s.Textures.Width())
	assert.Empty(t, s.Instances)

	// Default perspective camera looking at the origin puts it mid-screen.
	clip := s.Camera.ViewProj.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, clip[0]/clip[3], 1e-5)
	assert.InDelta(t, 0, clip[1]/clip[3], 1e-5)
	depth := clip[2] / clip[3]
	assert.True(t, depth > 0 && depth < 1, "depth %v outside [0, 1]", depth)
}

func TestBuildFirstPersonCamera(t *testing.T) {
	cfg := &Config{
		Camera: CameraConfig{Mode: CameraFirstPerson, Eye: [3]float32{0, 0, 0}, Yaw: 90},
		Textures: TexturesConfig{Layers: []LayerConfig{
			{Name: "a", Color: &Color{A: 255}},
		}},
	}
	s, err := cfg.Build("")
	require.NoError(t, err)

	// Yaw 90 degrees looks along +Y in the Z-up world.
	want := voxel.Camera{Yaw: mgl32.DegToRad(90)}.Uniform(voxel.NewProjection(DefaultWidth, DefaultHeight))
	assert.True(t, want.ViewProj.ApproxEqualThreshold(s.Camera.ViewProj, 1e-6))
	clip := s.Camera.ViewProj.Mul4x1(mgl32.Vec4{0, 5, 0, 1})
	assert.InDelta(t, 0, clip[0]/clip[3], 1e-5)
	assert.InDelta(t, 0, clip[1]/clip[3], 1e-5)

	assert.Equal(t, mgl32.Vec3{}, s.Eye)
	assert.InDelta(t, 0, s.Forward[0], 1e-6)
	assert.InDelta(t, 1, s.Forward[1], 1e-6)
	assert.InDelta(t, 0, s.Forward[2], 1e-6)
}

func TestBuildLookAtPose(t *testing.T) {
	cfg := &Config{
		Camera: CameraConfig{Eye: [3]float32{0, 0, 4}, Target: [3]float32{0, 0, 0}, Up: [3]float32{0, 1, 0}},
		Textures: TexturesConfig{Layers: []LayerConfig{
			{Name: "a", Color: &Color{A: 255}},
		}},
	}
	s, err := cfg.Build("")
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{0, 0, 4}, s.Eye)
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, s.Forward)
}

func TestBuildErrors(t *testing.T) {
	layer := []LayerConfig{{Name: "a", Color: &Color{A: 255}}}
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"no layers", Config{Camera: CameraConfig{Eye: [3]float32{1, 0, 0}}}, ErrInvalidConfig},
		{"layer without source", Config{
			Camera:   CameraConfig{Eye: [3]float32{1, 0, 0}},
			Textures: TexturesConfig{Layers: []LayerConfig{{Name: "a"}}},
		}, ErrLayerSource},
		{"layer without name", Config{
			Camera:   CameraConfig{Eye: [3]float32{1, 0, 0}},
			Textures: TexturesConfig{Layers: []LayerConfig{{Color: &Color{}}}},
		}, ErrInvalidConfig},
		{"negative workers", Config{Viewport: ViewportConfig{Workers: -1}, Textures: TexturesConfig{Layers: layer}}, ErrInvalidConfig},
		{"bad filter", Config{Viewport: ViewportConfig{Filter: "cubic"}, Textures: TexturesConfig{Layers: layer}}, ErrInvalidConfig},
		{"bad cull", Config{Viewport: ViewportConfig{Cull: "left"}, Textures: TexturesConfig{Layers: layer}}, ErrInvalidConfig},
		{"bad mode", Config{Camera: CameraConfig{Mode: "orbit", Eye: [3]float32{1, 0, 0}}, Textures: TexturesConfig{Layers: layer}}, ErrInvalidConfig},
		{"bad projection", Config{Camera: CameraConfig{Projection: "fisheye", Eye: [3]float32{1, 0, 0}}, Textures: TexturesConfig{Layers: layer}}, ErrInvalidConfig},
		{"eye at target", Config{Textures: TexturesConfig{Layers: layer}}, ErrInvalidConfig},
		{"parallel up", Config{Camera: CameraConfig{Eye: [3]float32{0, 5, 0}}, Textures: TexturesConfig{Layers: layer}}, ErrInvalidConfig},
		{"bad clip planes", Config{Camera: CameraConfig{Eye: [3]float32{1, 0, 0}, Near: 5, Far: 1}, Textures: TexturesConfig{Layers: layer}}, ErrInvalidConfig},
		{"unknown texture", Config{
			Camera:   CameraConfig{Eye: [3]float32{1, 0, 0}},
			Textures: TexturesConfig{Layers: layer},
			Blocks:   []BlockConfig{{Texture: "b"}},
		}, texture.ErrUnknownName},
		{"bad face", Config{
			Camera:   CameraConfig{Eye: [3]float32{1, 0, 0}},
			Textures: TexturesConfig{Layers: layer},
			Faces:    []FaceConfig{{Face: voxel.Face(7), Texture: "a"}},
		}, voxel.ErrInvalidFace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Build("")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuildChunk(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
[camera]
eye = [8.0, 8.0, 10.0]
target = [8.0, 8.0, 0.0]

[[textures.layer]]
name = "dirt"
color = "#8b5a2b"

[[chunk]]
origin = [0, 0]
seed = 3
width = 4
fill_height = 2
bottom_depth = 0
scatter_rows = 0
`))
	require.NoError(t, err)
	s, err := cfg.Build("")
	require.NoError(t, err)
	// A 4x4x2 box: 2*16 caps and 4*8 sides.
	assert.Len(t, s.Instances, 2*16+4*8)
}

func TestLoadWithImageLayer(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	f, err := os.Create(filepath.Join(dir, "white.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	src := `
[camera]
eye = [0.0, 0.0, 3.0]

[[textures.layer]]
name = "white"
path = "white.png"
[[textures.layer]]
name = "blue"
color = "#0000ff"

[[face]]
pos = [0.0, 0.0, 0.0]
face = "+Z"
texture = "blue"
`
	path := filepath.Join(dir, "scene.toml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, s.Textures.Width(), "solid layers follow the image size")
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, s.Textures.At(0, 3, 3))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, s.Textures.At(1, 3, 3))
	assert.Equal(t, []string{filepath.Join(dir, "white.png")}, s.Sources)
	assert.Equal(t, []string{dir}, s.SourceDirs())

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestSceneRender(t *testing.T) {
	cfg, err := Parse(strings.NewReader(blockScene))
	require.NoError(t, err)
	s, err := cfg.Build("")
	require.NoError(t, err)

	target, stats, err := s.Render()
	require.NoError(t, err)
	assert.Positive(t, stats.Fragments)

	red := color.NRGBA{R: 255, A: 255}
	black := color.NRGBA{A: 255}
	// The block spans the middle half of the orthographic view.
	assert.Equal(t, red, target.Color.NRGBAAt(16, 16))
	assert.Equal(t, black, target.Color.NRGBAAt(1, 1))
	assert.Equal(t, black, target.Color.NRGBAAt(30, 30))

	s.Workers = 4
	banded, bandedStats, err := s.Render()
	require.NoError(t, err)
	assert.Equal(t, stats, bandedStats)
	assert.Equal(t, target.Color.Pix, banded.Color.Pix)
}

func TestColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#fff", Color{255, 255, 255, 255}},
		{"0f08", Color{0, 255, 0, 136}},
		{"#1a334d", Color{26, 51, 77, 255}},
		{"#FF000080", Color{255, 0, 0, 128}},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "#12", "#gggggg", "#1234567"} {
		_, err := ParseHex(bad)
		assert.ErrorIs(t, err, ErrBadColor, bad)
	}

	text, err := Color{1, 2, 3, 4}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "#01020304", string(text))
	var c Color
	require.NoError(t, c.UnmarshalText(text))
	assert.Equal(t, Color{1, 2, 3, 4}, c)
}

func TestSourceDirs(t *testing.T) {
	s := &Scene{Sources: []string{
		filepath.Join("b", "grass.png"),
		filepath.Join("a", "dirt.png"),
		filepath.Join("b", "stone.png"),
	}}
	assert.Equal(t, []string{"a", "b"}, s.SourceDirs())
	assert.Empty(t, (&Scene{}).SourceDirs())
}
