//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math/bits"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/voxel"
	"github.com/gogpu/voxel/texture"
)

// Renderer errors.
var (
	// ErrNilRenderer is returned when a method is called on a nil or
	// destroyed Renderer.
	ErrNilRenderer = errors.New("gpu: renderer is nil or destroyed")

	// ErrNilDevice is returned when NewRenderer gets a nil device or queue.
	ErrNilDevice = errors.New("gpu: nil device or queue")

	// ErrNotHALProvider is returned when a DeviceProvider does not expose
	// hal.Device and hal.Queue.
	ErrNotHALProvider = errors.New("gpu: provider does not expose hal.Device and hal.Queue")

	// ErrNoTextures is returned when instances are set or a frame is
	// rendered before a texture array was uploaded.
	ErrNoTextures = errors.New("gpu: no texture array uploaded")

	// ErrNotSized is returned by Render before the first Resize.
	ErrNotSized = errors.New("gpu: render target size not set")
)

// DefaultFormat is the color target format used when none is given.
const DefaultFormat = gputypes.TextureFormatBGRA8Unorm

// minInstanceCapacity is the smallest instance buffer, in instances.
const minInstanceCapacity = 64

// RendererOption configures a Renderer.
type RendererOption func(*rendererOptions)

type rendererOptions struct {
	cull   gputypes.CullMode
	filter texture.Filter
	clear  gputypes.Color
}

func defaultRendererOptions() rendererOptions {
	return rendererOptions{
		cull:   gputypes.CullModeNone,
		filter: texture.Linear,
		clear:  gputypes.Color{R: 0.1, G: 0.2, B: 0.3, A: 1},
	}
}

// WithCullMode sets the pipeline cull mode. Faces are front facing when
// counter-clockwise. The default is CullModeNone because four of the six
// face orientations are reflections that reverse winding.
func WithCullMode(m gputypes.CullMode) RendererOption {
	return func(o *rendererOptions) { o.cull = m }
}

// WithFilter sets the sampler filter used for the texture array.
func WithFilter(f texture.Filter) RendererOption {
	return func(o *rendererOptions) { o.filter = f }
}

// WithClearColor sets the color the target is cleared to each frame.
func WithClearColor(c color.Color) RendererOption {
	return func(o *rendererOptions) { o.clear = colorToGPU(c) }
}

// colorToGPU converts c to straight alpha floats in [0, 1].
func colorToGPU(c color.Color) gputypes.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return gputypes.Color{
		R: float64(n.R) / 255,
		G: float64(n.G) / 255,
		B: float64(n.B) / 255,
		A: float64(n.A) / 255,
	}
}

// Renderer draws block face instances with one indexed instanced draw per
// frame. It is not safe for concurrent use.
type Renderer struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
	opts   rendererOptions

	pipeline *blockFacePipeline
	textures *gpuTextureArray
	depth    depthTarget

	quadVertices hal.Buffer
	quadIndices  hal.Buffer

	cameraBuffer    hal.Buffer
	cameraBindGroup hal.BindGroup

	instanceBuffer   hal.Buffer
	instanceCapacity int
	instanceCount    uint32

	// instances mirrors the uploaded instance buffer so it can be filtered
	// again when the texture array shrinks.
	instances []voxel.Instance

	// pending holds submitted command buffers until the queue reports
	// their submission complete.
	pending []pendingCommands
}

type pendingCommands struct {
	index uint64
	cmd   hal.CommandBuffer
}

// NewRenderer creates the block face pipeline and the static buffers on
// device. format is the color target format; TextureFormatUndefined selects
// DefaultFormat.
func NewRenderer(device hal.Device, queue hal.Queue, format gputypes.TextureFormat, opts ...RendererOption) (*Renderer, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if format == gputypes.TextureFormatUndefined {
		format = DefaultFormat
	}
	o := defaultRendererOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Renderer{
		device: device,
		queue:  queue,
		format: format,
		opts:   o,
		depth:  depthTarget{device: device},
	}
	if err := r.init(); err != nil {
		r.Destroy()
		return nil, err
	}
	slogger().Info("gpu: renderer created", "format", format.String(), "cull", o.cull.String())
	return r, nil
}

// NewRendererFromProvider creates a Renderer on the device and queue of a
// host application. The provider must expose hal.Device and hal.Queue.
func NewRendererFromProvider(provider gpucontext.DeviceProvider, opts ...RendererOption) (*Renderer, error) {
	device, queue, err := halDevice(provider)
	if err != nil {
		return nil, err
	}
	return NewRenderer(device, queue, provider.SurfaceFormat(), opts...)
}

// halDevice unwraps the hal device and queue of provider.
func halDevice(provider gpucontext.DeviceProvider) (hal.Device, hal.Queue, error) {
	if provider == nil {
		return nil, nil, ErrNotHALProvider
	}
	device, ok := provider.Device().(hal.Device)
	if !ok {
		return nil, nil, fmt.Errorf("%w: device is %T", ErrNotHALProvider, provider.Device())
	}
	queue, ok := provider.Queue().(hal.Queue)
	if !ok {
		return nil, nil, fmt.Errorf("%w: queue is %T", ErrNotHALProvider, provider.Queue())
	}
	return device, queue, nil
}

func (r *Renderer) init() error {
	p, err := newBlockFacePipeline(r.device, r.format, r.opts.cull)
	if err != nil {
		return err
	}
	r.pipeline = p

	if r.quadVertices, err = r.createAndUploadBuffer("block_quad_vertices",
		voxel.QuadVertexBytes(), gputypes.BufferUsageVertex); err != nil {
		return err
	}
	if r.quadIndices, err = r.createAndUploadBuffer("block_quad_indices",
		voxel.QuadIndexBytes(), gputypes.BufferUsageIndex); err != nil {
		return err
	}
	if r.cameraBuffer, err = r.createAndUploadBuffer("block_camera_uniform",
		voxel.NewCameraUniform().Bytes(), gputypes.BufferUsageUniform); err != nil {
		return err
	}

	bg, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "block_camera_bind_group",
		Layout: r.pipeline.cameraLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: r.cameraBuffer.NativeHandle(), Offset: 0, Size: voxel.CameraUniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create block camera bind group: %w", err)
	}
	r.cameraBindGroup = bg
	return nil
}

// createAndUploadBuffer creates a buffer with CopyDst added to usage and
// writes data into it.
func (r *Renderer) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := r.queue.WriteBuffer(buf, 0, data); err != nil {
		r.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("write %s: %w", label, err)
	}
	return buf, nil
}

// SetLogger sets the logger for this package. nil restores the voxel logger.
func (r *Renderer) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Format returns the color target format.
func (r *Renderer) Format() gputypes.TextureFormat { return r.format }

// InstanceCount returns the number of instances drawn per frame.
func (r *Renderer) InstanceCount() uint32 { return r.instanceCount }

// SetTextures uploads arr as the block texture array, replacing any
// previous upload. Instances already set are kept; when the new array has
// fewer layers, instances sampling a removed layer are dropped.
func (r *Renderer) SetTextures(arr *texture.Array) error {
	if r == nil || r.pipeline == nil {
		return ErrNilRenderer
	}
	if arr == nil || arr.Len() == 0 {
		return ErrNoTextures
	}
	t, err := uploadTextureArray(r.device, r.queue, r.pipeline.textureLayout, arr, r.opts.filter)
	if err != nil {
		return err
	}
	shrunk := r.textures != nil && t.layers < r.textures.layers
	r.textures.destroy()
	r.textures = t
	if shrunk && len(r.instances) > 0 {
		return r.uploadInstances(r.instances)
	}
	return nil
}

// SetCamera writes the camera uniform.
func (r *Renderer) SetCamera(cam voxel.CameraUniform) error {
	if r == nil || r.pipeline == nil {
		return ErrNilRenderer
	}
	if err := r.queue.WriteBuffer(r.cameraBuffer, 0, cam.Bytes()); err != nil {
		return fmt.Errorf("write camera uniform: %w", err)
	}
	return nil
}

// SetInstances uploads the instances drawn each frame. Instances whose face
// code or texture layer is out of range are dropped with a warning, since
// the shader has no way to report them. The caller's slice is not modified.
func (r *Renderer) SetInstances(instances []voxel.Instance) error {
	if r == nil || r.pipeline == nil {
		return ErrNilRenderer
	}
	if r.textures == nil {
		return ErrNoTextures
	}
	return r.uploadInstances(instances)
}

// uploadInstances filters a copy of instances against the current texture
// array and writes the survivors to the instance buffer.
func (r *Renderer) uploadInstances(instances []voxel.Instance) error {
	valid, _ := voxel.FilterValid(append([]voxel.Instance(nil), instances...), r.textures.layers)
	if err := r.ensureInstanceCapacity(len(valid)); err != nil {
		return err
	}
	if len(valid) > 0 {
		if err := r.queue.WriteBuffer(r.instanceBuffer, 0, voxel.MarshalInstances(valid)); err != nil {
			return fmt.Errorf("write instance buffer: %w", err)
		}
	}
	r.instances = valid
	r.instanceCount = uint32(len(valid))
	return nil
}

// ensureInstanceCapacity grows the instance buffer to the next power of two
// holding n instances. It never shrinks.
func (r *Renderer) ensureInstanceCapacity(n int) error {
	if r.instanceBuffer != nil && n <= r.instanceCapacity {
		return nil
	}
	capacity := instanceCapacityFor(n)
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "block_instances",
		Size:  uint64(capacity * voxel.InstanceStride),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create instance buffer: %w", err)
	}
	if r.instanceBuffer != nil {
		r.device.DestroyBuffer(r.instanceBuffer)
	}
	r.instanceBuffer = buf
	r.instanceCapacity = capacity
	slogger().Debug("gpu: instance buffer grown",
		"instances", capacity, "bytes", capacity*voxel.InstanceStride)
	return nil
}

// instanceCapacityFor returns the power of two capacity for n instances.
func instanceCapacityFor(n int) int {
	if n <= minInstanceCapacity {
		return minInstanceCapacity
	}
	return 1 << bits.Len(uint(n-1))
}

// Resize sets the size of the color target, recreating the depth target.
func (r *Renderer) Resize(width, height uint32) error {
	if r == nil || r.pipeline == nil {
		return ErrNilRenderer
	}
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: %dx%d", voxel.ErrEmptyTarget, width, height)
	}
	return r.depth.ensure(width, height)
}

// Render clears target and draws every instance. target must be a view of
// a texture in the renderer's format with the size given to Resize.
func (r *Renderer) Render(target hal.TextureView) error {
	if r == nil || r.pipeline == nil {
		return ErrNilRenderer
	}
	if r.textures == nil {
		return ErrNoTextures
	}
	if r.depth.view == nil {
		return ErrNotSized
	}
	r.reclaim()

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "block_frame_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("block_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	r.encodePass(encoder, target)

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	return r.submit(cmd)
}

// encodePass records the clear and the instanced draw into encoder.
func (r *Renderer) encodePass(encoder hal.CommandEncoder, target hal.TextureView) {
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "block_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       target,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: r.opts.clear,
			},
		},
		DepthStencilAttachment: r.depth.attachment(),
	})
	if r.instanceCount > 0 {
		rp.SetPipeline(r.pipeline.pipeline)
		rp.SetBindGroup(textureGroup, r.textures.bindGroup, nil)
		rp.SetBindGroup(cameraGroup, r.cameraBindGroup, nil)
		rp.SetVertexBuffer(quadVertexSlot, r.quadVertices, 0)
		rp.SetVertexBuffer(instanceSlot, r.instanceBuffer, 0)
		rp.SetIndexBuffer(r.quadIndices, gputypes.IndexFormatUint16, 0)
		rp.DrawIndexed(uint32(len(voxel.QuadIndices)), r.instanceCount, 0, 0, 0)
	}
	rp.End()
}

// submit queues cmd and keeps it until its submission completes.
func (r *Renderer) submit(cmd hal.CommandBuffer) error {
	index, err := r.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		r.device.FreeCommandBuffer(cmd)
		return fmt.Errorf("submit block frame: %w", err)
	}
	r.pending = append(r.pending, pendingCommands{index: index, cmd: cmd})
	return nil
}

// reclaim frees command buffers whose submissions have completed.
func (r *Renderer) reclaim() {
	done := r.queue.PollCompleted()
	kept := r.pending[:0]
	for _, p := range r.pending {
		if p.index <= done {
			r.device.FreeCommandBuffer(p.cmd)
			continue
		}
		kept = append(kept, p)
	}
	r.pending = kept
}

// Destroy waits for the device to go idle and releases every resource in
// reverse creation order. The Renderer must not be used afterwards.
func (r *Renderer) Destroy() {
	if r == nil || r.device == nil {
		return
	}
	if err := r.device.WaitIdle(); err != nil {
		slogger().Warn("gpu: wait idle before destroy", "err", err)
	}
	for _, p := range r.pending {
		r.device.FreeCommandBuffer(p.cmd)
	}
	r.pending = nil

	r.depth.destroy()
	r.textures.destroy()
	r.textures = nil
	if r.instanceBuffer != nil {
		r.device.DestroyBuffer(r.instanceBuffer)
		r.instanceBuffer = nil
	}
	r.instanceCapacity, r.instanceCount = 0, 0
	r.instances = nil
	if r.cameraBindGroup != nil {
		r.device.DestroyBindGroup(r.cameraBindGroup)
		r.cameraBindGroup = nil
	}
	for _, b := range []*hal.Buffer{&r.cameraBuffer, &r.quadIndices, &r.quadVertices} {
		if *b != nil {
			r.device.DestroyBuffer(*b)
			*b = nil
		}
	}
	if r.pipeline != nil {
		r.pipeline.destroy()
		r.pipeline = nil
	}
	slogger().Info("gpu: renderer destroyed")
}
