//go:build !nogpu

// Package gpu exposes the WebGPU block face renderer.
//
// A host application that owns a device hands it over through a
// gpucontext.DeviceProvider:
//
//	r, err := gpu.NewRendererFromProvider(provider, gpu.WithFilter(texture.Nearest))
//	r.SetTextures(arr)
//	r.SetCamera(cam)
//	r.SetInstances(instances)
//	r.Resize(w, h)
//	r.Render(view)
//
// Without a host, OpenDevice opens a headless device and NewOffscreen
// renders frames straight into an image:
//
//	dev, err := gpu.OpenDevice()
//	defer dev.Close()
//	off, err := gpu.NewOffscreen(dev, 800, 600)
//	defer off.Destroy()
//	img, err := off.RenderImage()
//
// The package is excluded by the nogpu build tag.
package gpu

import (
	gpuimpl "github.com/gogpu/voxel/internal/gpu"
)

// Renderer draws block face instances with one instanced draw per frame.
type Renderer = gpuimpl.Renderer

// RendererOption configures a Renderer.
type RendererOption = gpuimpl.RendererOption

// Offscreen renders into a texture and reads frames back as images.
type Offscreen = gpuimpl.Offscreen

// Device is a headless device implementing gpucontext.DeviceProvider.
type Device = gpuimpl.Device

// Formats used by the renderer.
const (
	DefaultFormat   = gpuimpl.DefaultFormat
	OffscreenFormat = gpuimpl.OffscreenFormat
	DepthFormat     = gpuimpl.DepthFormat
)

// Errors returned by the renderer and the device.
var (
	ErrNilRenderer    = gpuimpl.ErrNilRenderer
	ErrNilDevice      = gpuimpl.ErrNilDevice
	ErrNotHALProvider = gpuimpl.ErrNotHALProvider
	ErrNoTextures     = gpuimpl.ErrNoTextures
	ErrNotSized       = gpuimpl.ErrNotSized
	ErrNoAdapter      = gpuimpl.ErrNoAdapter
)

// Constructors and options.
var (
	NewRenderer             = gpuimpl.NewRenderer
	NewRendererFromProvider = gpuimpl.NewRendererFromProvider
	NewOffscreen            = gpuimpl.NewOffscreen
	OpenDevice              = gpuimpl.OpenDevice
	OpenBackend             = gpuimpl.OpenBackend

	WithCullMode   = gpuimpl.WithCullMode
	WithFilter     = gpuimpl.WithFilter
	WithClearColor = gpuimpl.WithClearColor
)
