package voxel

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraUniformSize is the byte size of the camera uniform buffer.
const CameraUniformSize = 64

// CameraUniform is the frame-scoped camera state shared by every instance
// in a draw. It is bound at group 1, binding 0.
type CameraUniform struct {
	ViewProj mgl32.Mat4
}

// NewCameraUniform returns a uniform with an identity view-projection.
func NewCameraUniform() CameraUniform {
	return CameraUniform{ViewProj: mgl32.Ident4()}
}

// Bytes returns the little-endian GPU encoding of the uniform.
func (c CameraUniform) Bytes() []byte {
	buf := make([]byte, 0, CameraUniformSize)
	for _, f := range c.ViewProj {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// OpenGLToWGPU remaps OpenGL clip depth [-1, 1] to the WebGPU range [0, 1].
var OpenGLToWGPU = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// WGPUToWorld mirrors X so that a right-handed Z-up world reads with +X to
// the right of a camera looking along +Y.
var WGPUToWorld = mgl32.Mat4{
	-1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// safeFracPi2 keeps pitch away from the poles where the look-to basis
// degenerates.
const safeFracPi2 = math.Pi/2 - 0.0001

// Camera is a Z-up first person camera described by yaw and pitch in
// radians. Yaw 0 looks along +X.
type Camera struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32
}

// Front returns the unit view direction.
func (c Camera) Front() mgl32.Vec3 {
	sp, cp := sincos(c.Pitch)
	sy, cy := sincos(c.Yaw)
	return mgl32.Vec3{cp * cy, cp * sy, sp}.Normalize()
}

// ClampPitch limits Pitch to just under ±π/2.
func (c *Camera) ClampPitch() {
	c.Pitch = mgl32.Clamp(c.Pitch, -safeFracPi2, safeFracPi2)
}

// View returns the right-handed look-to view matrix with +Z up.
func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front()), mgl32.Vec3{0, 0, 1})
}

// Uniform combines the camera with proj into a uniform using the Z-up
// world convention: proj * WGPUToWorld * view.
func (c Camera) Uniform(proj Projection) CameraUniform {
	return CameraUniform{ViewProj: proj.Matrix().Mul4(WGPUToWorld).Mul4(c.View())}
}

// Projection is a perspective projection with WebGPU depth range.
type Projection struct {
	Aspect float32
	FovY   float32 // radians
	ZNear  float32
	ZFar   float32
}

// Default projection parameters.
const (
	DefaultFovYDegrees = 45
	DefaultZNear       = 0.1
	DefaultZFar        = 100
)

// NewProjection returns a projection for a width x height viewport with
// the default field of view and clip planes.
func NewProjection(width, height int) Projection {
	p := Projection{
		FovY:  mgl32.DegToRad(DefaultFovYDegrees),
		ZNear: DefaultZNear,
		ZFar:  DefaultZFar,
	}
	p.Resize(width, height)
	return p
}

// Resize updates the aspect ratio. Zero sizes are treated as 1.
func (p *Projection) Resize(width, height int) {
	p.Aspect = float32(max(width, 1)) / float32(max(height, 1))
}

// Matrix returns the projection matrix mapping depth to [0, 1].
func (p Projection) Matrix() mgl32.Mat4 {
	return OpenGLToWGPU.Mul4(mgl32.Perspective(p.FovY, p.Aspect, p.ZNear, p.ZFar))
}

// Orthographic returns an orthographic projection with WebGPU depth range.
func Orthographic(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	return OpenGLToWGPU.Mul4(mgl32.Ortho(left, right, bottom, top, near, far))
}

// LookAtUniform returns proj * LookAt(eye, target, up) without any world
// axis remapping.
func LookAtUniform(eye, target, up mgl32.Vec3, proj mgl32.Mat4) CameraUniform {
	return CameraUniform{ViewProj: proj.Mul4(mgl32.LookAtV(eye, target, up))}
}

func sincos(a float32) (float32, float32) {
	s, c := math.Sincos(float64(a))
	return float32(s), float32(c)
}
