//go:build !nogpu

package gpu

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/voxel"
)

// OffscreenFormat is the color format of offscreen targets. The texture
// array is sRGB, so an sRGB target stores the sampled bytes unchanged.
const OffscreenFormat = gputypes.TextureFormatRGBA8UnormSrgb

// copyRowAlignment is the required BytesPerRow alignment of texture to
// buffer copies.
const copyRowAlignment = 256

// Offscreen renders block faces into a texture and reads the frame back
// into an image. It is not safe for concurrent use.
type Offscreen struct {
	renderer *Renderer
	device   hal.Device
	queue    hal.Queue

	width, height uint32
	stride        uint32

	color   hal.Texture
	view    hal.TextureView
	staging hal.Buffer
}

// NewOffscreen creates a width x height offscreen target and a Renderer on
// the provider's device. The provider's surface format is ignored; frames
// are always rendered in OffscreenFormat.
func NewOffscreen(provider gpucontext.DeviceProvider, width, height int, opts ...RendererOption) (*Offscreen, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", voxel.ErrEmptyTarget, width, height)
	}
	device, queue, err := halDevice(provider)
	if err != nil {
		return nil, err
	}
	r, err := NewRenderer(device, queue, OffscreenFormat, opts...)
	if err != nil {
		return nil, err
	}
	o := &Offscreen{
		renderer: r,
		device:   device,
		queue:    queue,
		width:    uint32(width),
		height:   uint32(height),
		stride:   alignedStride(uint32(width)),
	}
	if err := o.init(); err != nil {
		o.Destroy()
		return nil, err
	}
	return o, nil
}

// alignedStride returns the bytes per row of a width pixel RGBA8 row
// rounded up to copyRowAlignment.
func alignedStride(width uint32) uint32 {
	return (width*4 + copyRowAlignment - 1) / copyRowAlignment * copyRowAlignment
}

func (o *Offscreen) init() error {
	tex, err := o.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "block_offscreen",
		Size:          hal.Extent3D{Width: o.width, Height: o.height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        OffscreenFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create offscreen texture: %w", err)
	}
	o.color = tex
	view, err := o.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "block_offscreen_view",
		Format:          OffscreenFormat,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return fmt.Errorf("create offscreen view: %w", err)
	}
	o.view = view
	staging, err := o.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "block_offscreen_readback",
		Size:  uint64(o.stride) * uint64(o.height),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create readback buffer: %w", err)
	}
	o.staging = staging
	return o.renderer.Resize(o.width, o.height)
}

// Renderer returns the renderer drawing into the offscreen target.
func (o *Offscreen) Renderer() *Renderer { return o.renderer }

// Bounds returns the target rectangle.
func (o *Offscreen) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(o.width), int(o.height))
}

// RenderImage draws one frame, copies it to the readback buffer and waits
// for the device before decoding the rows into an image.
func (o *Offscreen) RenderImage() (*image.NRGBA, error) {
	r := o.renderer
	if r == nil || r.pipeline == nil || o.staging == nil {
		return nil, ErrNilRenderer
	}
	if r.textures == nil {
		return nil, ErrNoTextures
	}
	r.reclaim()

	encoder, err := o.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "block_offscreen_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("block_offscreen"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	r.encodePass(encoder, o.view)
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: o.color,
		Range:   hal.TextureRange{Aspect: gputypes.TextureAspectAll, MipLevelCount: 1, ArrayLayerCount: 1},
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(o.color, o.staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{BytesPerRow: o.stride, RowsPerImage: o.height},
		TextureBase:  hal.ImageCopyTexture{Texture: o.color, Aspect: gputypes.TextureAspectAll},
		Size:         hal.Extent3D{Width: o.width, Height: o.height, DepthOrArrayLayers: 1},
	}})
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	if err := r.submit(cmd); err != nil {
		return nil, err
	}
	if err := o.device.WaitIdle(); err != nil {
		return nil, fmt.Errorf("wait for offscreen frame: %w", err)
	}
	r.reclaim()
	return o.readback()
}

// readback maps the staging buffer and strips the row padding.
func (o *Offscreen) readback() (*image.NRGBA, error) {
	size := uint64(o.stride) * uint64(o.height)
	m, err := o.device.MapBuffer(o.staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("map readback buffer: %w", err)
	}
	defer func() {
		if err := o.device.UnmapBuffer(o.staging); err != nil {
			slogger().Warn("gpu: unmap readback buffer", "err", err)
		}
	}()
	src := unsafe.Slice((*byte)(m.Ptr), size)
	img := image.NewNRGBA(o.Bounds())
	row := int(o.width) * 4
	for y := range int(o.height) {
		copy(img.Pix[y*img.Stride:y*img.Stride+row], src[y*int(o.stride):])
	}
	return img, nil
}

// Destroy releases the target, the readback buffer and the renderer.
func (o *Offscreen) Destroy() {
	if o == nil {
		return
	}
	if o.renderer != nil {
		o.renderer.Destroy()
		o.renderer = nil
	}
	if o.staging != nil {
		o.device.DestroyBuffer(o.staging)
		o.staging = nil
	}
	if o.view != nil {
		o.device.DestroyTextureView(o.view)
		o.view = nil
	}
	if o.color != nil {
		o.device.DestroyTexture(o.color)
		o.color = nil
	}
}
