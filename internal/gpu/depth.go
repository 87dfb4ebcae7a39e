//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// depthClearValue is the far plane in WebGPU depth range.
const depthClearValue = 1.0

// depthTarget is the Depth32Float attachment sized to the color target.
type depthTarget struct {
	device hal.Device

	width, height uint32

	texture hal.Texture
	view    hal.TextureView
}

// ensure recreates the depth texture when the size changes.
func (d *depthTarget) ensure(width, height uint32) error {
	if d.view != nil && d.width == width && d.height == height {
		return nil
	}
	d.destroy()

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "block_depth",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create depth texture: %w", err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "block_depth_view",
		Format:          DepthFormat,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectDepthOnly,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return fmt.Errorf("create depth texture view: %w", err)
	}
	d.texture, d.view = tex, view
	d.width, d.height = width, height
	slogger().Debug("gpu: depth target resized", "width", width, "height", height)
	return nil
}

// attachment returns the depth attachment cleared to the far plane.
func (d *depthTarget) attachment() *hal.RenderPassDepthStencilAttachment {
	return &hal.RenderPassDepthStencilAttachment{
		View:            d.view,
		DepthLoadOp:     gputypes.LoadOpClear,
		DepthStoreOp:    gputypes.StoreOpDiscard,
		DepthClearValue: depthClearValue,
	}
}

func (d *depthTarget) destroy() {
	if d.device == nil {
		return
	}
	if d.view != nil {
		d.device.DestroyTextureView(d.view)
		d.view = nil
	}
	if d.texture != nil {
		d.device.DestroyTexture(d.texture)
		d.texture = nil
	}
	d.width, d.height = 0, 0
}
