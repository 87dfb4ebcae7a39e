//go:build !nogpu

package main

import (
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/voxel/gpu"
	"github.com/gogpu/voxel/raster"
	"github.com/gogpu/voxel/scene"
)

// renderGPU draws s on a headless GPU device and returns the frame and the
// adapter name.
func renderGPU(s *scene.Scene) (*image.NRGBA, string, error) {
	dev, err := gpu.OpenDevice()
	if err != nil {
		return nil, "", err
	}
	defer dev.Close()
	return renderOn(dev, s)
}

// renderOn draws s offscreen on the provider's device.
func renderOn(provider gpucontext.DeviceProvider, s *scene.Scene) (*image.NRGBA, string, error) {
	off, err := gpu.NewOffscreen(provider, s.Width, s.Height,
		gpu.WithCullMode(cullMode(s.Cull)),
		gpu.WithFilter(s.Filter),
		gpu.WithClearColor(s.ClearColor),
	)
	if err != nil {
		return nil, "", err
	}
	defer off.Destroy()

	r := off.Renderer()
	if err := r.SetTextures(s.Textures); err != nil {
		return nil, "", err
	}
	if err := r.SetCamera(s.Camera); err != nil {
		return nil, "", err
	}
	if err := r.SetInstances(s.Instances); err != nil {
		return nil, "", err
	}
	img, err := off.RenderImage()
	if err != nil {
		return nil, "", err
	}
	return img, provider.AdapterInfo().Name, nil
}

func cullMode(m raster.CullMode) gputypes.CullMode {
	switch m {
	case raster.CullBack:
		return gputypes.CullModeBack
	case raster.CullFront:
		return gputypes.CullModeFront
	default:
		return gputypes.CullModeNone
	}
}
