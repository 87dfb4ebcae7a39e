// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/voxel"
	"github.com/gogpu/voxel/raster"
	"github.com/gogpu/voxel/texture"
)

// Scene file errors.
var (
	// ErrInvalidConfig is returned for a scene file with an invalid value.
	ErrInvalidConfig = errors.New("scene: invalid config")

	// ErrLayerSource is returned for a texture layer with neither a path
	// nor a colour.
	ErrLayerSource = errors.New("scene: texture layer needs path or color")
)

// Camera modes.
const (
	CameraLookAt      = "look_at"
	CameraFirstPerson = "first_person"
)

// Projection kinds.
const (
	ProjectionPerspective  = "perspective"
	ProjectionOrthographic = "orthographic"
)

// Defaults applied to omitted settings.
const (
	DefaultWidth     = 640
	DefaultHeight    = 480
	DefaultLayerSize = 16
)

// Config is the decoded form of a scene file.
//
//	[viewport]
//	width = 640
//	height = 480
//	filter = "nearest"      # or "linear"
//	cull = "none"           # or "back", "front"
//	clear = "#1a334d"
//
//	[camera]
//	mode = "look_at"        # or "first_person" (Z up, yaw/pitch in degrees)
//	projection = "perspective"
//	eye = [3.0, 3.0, 3.0]
//	target = [0.0, 0.0, 0.0]
//	up = [0.0, 1.0, 0.0]
//
//	[textures]
//	size = [16, 16]
//	[[textures.layer]]
//	name = "dirt"
//	path = "dirt.png"       # relative to the scene file
//	[[textures.layer]]
//	name = "stone"
//	color = "#808080"
//
//	[[block]]
//	pos = [0, 0, 0]
//	texture = "dirt"
//
//	[[face]]
//	pos = [0.0, 2.0, 0.0]
//	face = "+Z"
//	texture = "stone"
//
//	[[chunk]]
//	origin = [0, 0]
//	seed = 7
type Config struct {
	Viewport ViewportConfig `toml:"viewport"`
	Camera   CameraConfig   `toml:"camera"`
	Textures TexturesConfig `toml:"textures"`
	Blocks   []BlockConfig  `toml:"block"`
	Faces    []FaceConfig   `toml:"face"`
	Chunks   []ChunkEntry   `toml:"chunk"`
}

// ViewportConfig is the output size and pipeline state.
type ViewportConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Filter string `toml:"filter"`
	Cull   string `toml:"cull"`
	Clear  *Color `toml:"clear"`
	// Workers is the number of row bands rendered in parallel; 0 or 1
	// renders serially.
	Workers int `toml:"workers"`
}

// CameraConfig places the camera.
type CameraConfig struct {
	Mode       string     `toml:"mode"`
	Projection string     `toml:"projection"`
	Eye        [3]float32 `toml:"eye"`
	Target     [3]float32 `toml:"target"`
	Up         [3]float32 `toml:"up"`
	Yaw        float32    `toml:"yaw"`   // degrees, first_person
	Pitch      float32    `toml:"pitch"` // degrees, first_person
	FovY       float32    `toml:"fovy"`  // degrees
	Near       float32    `toml:"near"`
	Far        float32    `toml:"far"`
	// Extent is the half height of the orthographic view volume.
	Extent float32 `toml:"extent"`
}

// TexturesConfig lists the texture array layers in index order.
type TexturesConfig struct {
	Size   [2]int        `toml:"size"`
	Layers []LayerConfig `toml:"layer"`
}

// LayerConfig is one texture layer, loaded from Path or filled with Color.
type LayerConfig struct {
	Name  string `toml:"name"`
	Path  string `toml:"path"`
	Color *Color `toml:"color"`
}

// BlockConfig places a whole block; only its exposed faces are drawn.
type BlockConfig struct {
	Pos     [3]int `toml:"pos"`
	Texture string `toml:"texture"`
}

// FaceConfig places a single face of the unit cube centred at Pos.
type FaceConfig struct {
	Pos     [3]float32 `toml:"pos"`
	Face    voxel.Face `toml:"face"`
	Texture string     `toml:"texture"`
}

// ChunkEntry generates terrain with GenerateChunk. Zero fields take the
// DefaultChunkConfig values.
type ChunkEntry struct {
	Origin        [2]int  `toml:"origin"`
	Seed          uint64  `toml:"seed"`
	Texture       string  `toml:"texture"`
	Width         int     `toml:"width"`
	FillHeight    int     `toml:"fill_height"`
	ScatterRows   *int    `toml:"scatter_rows"`
	ScatterChance float64 `toml:"scatter_chance"`
	BottomDepth   *int    `toml:"bottom_depth"`
}

// Parse decodes a scene file. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	var cfg Config
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return nil, fmt.Errorf("scene: unknown keys: %w", err)
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("scene: decode at line %d column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("scene: decode: %w", err)
	}
	return &cfg, nil
}

// Load reads and builds the scene file at path. Texture paths are
// resolved relative to the file's directory.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("scene: open file: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return cfg.Build(filepath.Dir(path))
}

// Build resolves the configuration into a renderable Scene. baseDir is
// the directory texture paths are relative to.
func (c *Config) Build(baseDir string) (*Scene, error) {
	s := &Scene{
		Width:      c.Viewport.Width,
		Height:     c.Viewport.Height,
		ClearColor: voxel.DefaultClearColor,
	}
	if s.Width == 0 {
		s.Width = DefaultWidth
	}
	if s.Height == 0 {
		s.Height = DefaultHeight
	}
	if s.Width < 0 || s.Height < 0 {
		return nil, fmt.Errorf("%w: viewport %dx%d", ErrInvalidConfig, s.Width, s.Height)
	}
	if c.Viewport.Workers < 0 {
		return nil, fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Viewport.Workers)
	}
	s.Workers = c.Viewport.Workers

	filter, ok := texture.ParseFilter(strings.ToLower(orDefault(c.Viewport.Filter, "nearest")))
	if !ok {
		return nil, fmt.Errorf("%w: filter %q", ErrInvalidConfig, c.Viewport.Filter)
	}
	s.Filter = filter
	cull, ok := raster.ParseCullMode(strings.ToLower(c.Viewport.Cull))
	if !ok {
		return nil, fmt.Errorf("%w: cull %q", ErrInvalidConfig, c.Viewport.Cull)
	}
	s.Cull = cull
	if c.Viewport.Clear != nil {
		s.ClearColor = c.Viewport.Clear.NRGBA()
	}

	cam, err := c.Camera.uniform(s.Width, s.Height)
	if err != nil {
		return nil, err
	}
	s.Camera = cam
	s.Eye, s.Forward = c.Camera.pose()

	if s.Textures, err = c.Textures.build(baseDir); err != nil {
		return nil, err
	}
	s.Sources = c.Textures.sources(baseDir)
	if s.Instances, err = c.instances(s.Textures); err != nil {
		return nil, err
	}
	voxel.Logger().Info("scene: built",
		"width", s.Width, "height", s.Height,
		"layers", s.Textures.Len(), "instances", len(s.Instances))
	return s, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orDefaultF(v, def float32) float32 {
	if v == 0 {
		return def
	}
	return v
}

// uniform builds the camera uniform for a width x height viewport.
func (cc CameraConfig) uniform(width, height int) (voxel.CameraUniform, error) {
	proj := voxel.NewProjection(width, height)
	proj.FovY = mgl32.DegToRad(orDefaultF(cc.FovY, voxel.DefaultFovYDegrees))
	proj.ZNear = orDefaultF(cc.Near, voxel.DefaultZNear)
	proj.ZFar = orDefaultF(cc.Far, voxel.DefaultZFar)
	if proj.ZNear <= 0 || proj.ZFar <= proj.ZNear {
		return voxel.CameraUniform{}, fmt.Errorf("%w: clip planes near=%g far=%g", ErrInvalidConfig, proj.ZNear, proj.ZFar)
	}

	switch orDefault(cc.Mode, CameraLookAt) {
	case CameraFirstPerson:
		if orDefault(cc.Projection, ProjectionPerspective) != ProjectionPerspective {
			return voxel.CameraUniform{}, fmt.Errorf("%w: first_person camera needs a perspective projection", ErrInvalidConfig)
		}
		cam := voxel.Camera{
			Position: mgl32.Vec3(cc.Eye),
			Yaw:      mgl32.DegToRad(cc.Yaw),
			Pitch:    mgl32.DegToRad(cc.Pitch),
		}
		cam.ClampPitch()
		return cam.Uniform(proj), nil

	case CameraLookAt:
		eye, target, up := mgl32.Vec3(cc.Eye), mgl32.Vec3(cc.Target), mgl32.Vec3(cc.Up)
		if up.Len() == 0 {
			up = mgl32.Vec3{0, 1, 0}
		}
		if eye.Sub(target).Len() == 0 {
			return voxel.CameraUniform{}, fmt.Errorf("%w: camera eye equals target", ErrInvalidConfig)
		}
		if eye.Sub(target).Cross(up).Len() == 0 {
			return voxel.CameraUniform{}, fmt.Errorf("%w: camera up is parallel to the view direction", ErrInvalidConfig)
		}

		var m mgl32.Mat4
		switch orDefault(cc.Projection, ProjectionPerspective) {
		case ProjectionPerspective:
			m = proj.Matrix()
		case ProjectionOrthographic:
			h := orDefaultF(cc.Extent, 1)
			w := h * proj.Aspect
			m = voxel.Orthographic(-w, w, -h, h, proj.ZNear, proj.ZFar)
		default:
			return voxel.CameraUniform{}, fmt.Errorf("%w: projection %q", ErrInvalidConfig, cc.Projection)
		}
		return voxel.LookAtUniform(eye, target, up, m), nil

	default:
		return voxel.CameraUniform{}, fmt.Errorf("%w: camera mode %q", ErrInvalidConfig, cc.Mode)
	}
}

// pose returns the eye position and unit view direction. It assumes the
// config already passed uniform.
func (cc CameraConfig) pose() (eye, forward mgl32.Vec3) {
	eye = mgl32.Vec3(cc.Eye)
	if orDefault(cc.Mode, CameraLookAt) == CameraFirstPerson {
		cam := voxel.Camera{Yaw: mgl32.DegToRad(cc.Yaw), Pitch: mgl32.DegToRad(cc.Pitch)}
		cam.ClampPitch()
		return eye, cam.Front()
	}
	return eye, mgl32.Vec3(cc.Target).Sub(eye).Normalize()
}

// resolve returns the layer's image path relative to baseDir.
func (l LayerConfig) resolve(baseDir string) string {
	if filepath.IsAbs(l.Path) {
		return l.Path
	}
	return filepath.Join(baseDir, l.Path)
}

// sources returns the resolved image paths of the layers, in layer order.
func (tc TexturesConfig) sources(baseDir string) []string {
	var out []string
	for _, l := range tc.Layers {
		if l.Path != "" {
			out = append(out, l.resolve(baseDir))
		}
	}
	return out
}

// build assembles the texture array. Solid layers take the configured size
// or, without one, the size of the first image layer.
func (tc TexturesConfig) build(baseDir string) (*texture.Array, error) {
	if len(tc.Layers) == 0 {
		return nil, fmt.Errorf("%w: no texture layers", ErrInvalidConfig)
	}
	w, h := tc.Size[0], tc.Size[1]
	b := texture.NewBuilder()
	if w > 0 && h > 0 {
		b.Resize(w, h, nil)
	}

	// Image layers go first so they fix the size for solid ones, but the
	// layer order is the file order.
	imgs := make(map[int]image.Image, len(tc.Layers))
	for i, l := range tc.Layers {
		if l.Path == "" {
			continue
		}
		img, err := texture.LoadCached(l.resolve(baseDir))
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", l.Name, err)
		}
		imgs[i] = img
		if w <= 0 || h <= 0 {
			bounds := img.Bounds()
			w, h = bounds.Dx(), bounds.Dy()
		}
	}
	if w <= 0 || h <= 0 {
		w, h = DefaultLayerSize, DefaultLayerSize
	}

	for i, l := range tc.Layers {
		if l.Name == "" {
			return nil, fmt.Errorf("%w: texture layer %d has no name", ErrInvalidConfig, i)
		}
		var err error
		switch {
		case l.Path != "":
			err = b.Add(l.Name, imgs[i])
		case l.Color != nil:
			err = b.Add(l.Name, texture.Solid(w, h, l.Color.NRGBA()))
		default:
			err = fmt.Errorf("%w: %q", ErrLayerSource, l.Name)
		}
		if err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// instances gathers the explicit faces, then the block grid's exposed
// faces.
func (c *Config) instances(textures *texture.Array) ([]voxel.Instance, error) {
	var out []voxel.Instance
	for i, f := range c.Faces {
		layer, err := textures.Index(f.Texture)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		inst := voxel.NewInstance(mgl32.Vec3(f.Pos), layer, f.Face)
		if err := inst.Validate(textures.Len()); err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		out = append(out, inst)
	}

	if len(c.Blocks) == 0 && len(c.Chunks) == 0 {
		return out, nil
	}
	g := NewGrid()
	for _, ch := range c.Chunks {
		cfg := ch.config(textures)
		GenerateChunk(g, ch.Origin[0], ch.Origin[1], cfg, rand.New(rand.NewPCG(ch.Seed, ch.Seed)))
	}
	for _, b := range c.Blocks {
		g.Set(Cell(b.Pos), b.Texture)
	}
	blocks, err := g.Instances(textures)
	if err != nil {
		return nil, err
	}
	return append(out, blocks...), nil
}

// config merges the entry with DefaultChunkConfig. Without a texture the
// chunk uses the first layer.
func (e ChunkEntry) config(textures *texture.Array) ChunkConfig {
	cfg := DefaultChunkConfig()
	cfg.Texture = textures.Name(0)
	if e.Texture != "" {
		cfg.Texture = e.Texture
	}
	if e.Width > 0 {
		cfg.Width = e.Width
	}
	if e.FillHeight > 0 {
		cfg.FillHeight = e.FillHeight
	}
	if e.ScatterRows != nil {
		cfg.ScatterRows = *e.ScatterRows
	}
	if e.ScatterChance > 0 {
		cfg.ScatterChance = e.ScatterChance
	}
	if e.BottomDepth != nil {
		cfg.BottomDepth = *e.BottomDepth
	}
	return cfg
}
