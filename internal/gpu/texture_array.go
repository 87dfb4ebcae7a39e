//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/voxel/texture"
)

// TextureFormat is the format of the block texture array. Layers hold
// sRGB-encoded RGBA8 with straight alpha.
const TextureFormat = gputypes.TextureFormatRGBA8UnormSrgb

// gpuTextureArray is a texture.Array resident on the device together with
// its sampler and the group 0 bind group.
type gpuTextureArray struct {
	device hal.Device

	layers int

	texture   hal.Texture
	view      hal.TextureView
	sampler   hal.Sampler
	bindGroup hal.BindGroup
}

// uploadTextureArray creates a D2 array texture with one layer per entry of
// arr and writes each layer with its own WriteTexture call.
func uploadTextureArray(
	device hal.Device, queue hal.Queue, layout hal.BindGroupLayout,
	arr *texture.Array, filter texture.Filter,
) (*gpuTextureArray, error) {
	t := &gpuTextureArray{device: device, layers: arr.Len()}
	if err := t.create(queue, layout, arr, filter); err != nil {
		t.destroy()
		return nil, err
	}
	return t, nil
}

func (t *gpuTextureArray) create(queue hal.Queue, layout hal.BindGroupLayout, arr *texture.Array, filter texture.Filter) error {
	w, h := uint32(arr.Width()), uint32(arr.Height())
	layers := uint32(arr.Len())

	tex, err := t.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "block_texture_array",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: layers},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        TextureFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create block texture array: %w", err)
	}
	t.texture = tex

	for i := range arr.Len() {
		err := queue.WriteTexture(&hal.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: 0, Y: 0, Z: uint32(i)},
			Aspect:   gputypes.TextureAspectAll,
		}, arr.LayerBytes(i), &hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  w * texture.BytesPerPixel,
			RowsPerImage: h,
		}, &hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1})
		if err != nil {
			return fmt.Errorf("write texture layer %d (%s): %w", i, arr.Name(i), err)
		}
	}

	view, err := t.device.CreateTextureView(t.texture, &hal.TextureViewDescriptor{
		Label:           "block_texture_array_view",
		Format:          TextureFormat,
		Dimension:       gputypes.TextureViewDimension2DArray,
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: layers,
	})
	if err != nil {
		return fmt.Errorf("create block texture view: %w", err)
	}
	t.view = view

	mode := filterMode(filter)
	sampler, err := t.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "block_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    mode,
		MinFilter:    mode,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
	})
	if err != nil {
		return fmt.Errorf("create block sampler: %w", err)
	}
	t.sampler = sampler

	bg, err := t.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "block_texture_bind_group",
		Layout: layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: t.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("create block texture bind group: %w", err)
	}
	t.bindGroup = bg

	slogger().Debug("gpu: texture array uploaded",
		"width", w, "height", h, "layers", layers, "filter", filter.String())
	return nil
}

// filterMode maps the CPU sampler filter onto the WebGPU filter mode.
func filterMode(f texture.Filter) gputypes.FilterMode {
	if f == texture.Linear {
		return gputypes.FilterModeLinear
	}
	return gputypes.FilterModeNearest
}

// destroy releases the resources in reverse creation order.
func (t *gpuTextureArray) destroy() {
	if t == nil || t.device == nil {
		return
	}
	if t.bindGroup != nil {
		t.device.DestroyBindGroup(t.bindGroup)
		t.bindGroup = nil
	}
	if t.sampler != nil {
		t.device.DestroySampler(t.sampler)
		t.sampler = nil
	}
	if t.view != nil {
		t.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.texture != nil {
		t.device.DestroyTexture(t.texture)
		t.texture = nil
	}
}
