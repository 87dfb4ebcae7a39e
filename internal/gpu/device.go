//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Vulkan is the backend the headless path is tested against.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ErrNoAdapter is returned by OpenDevice when no backend exposes an adapter.
var ErrNoAdapter = errors.New("gpu: no GPU adapter available")

// deviceBackends lists the backends OpenDevice tries, in order.
var deviceBackends = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
}

// Device is a headless GPU device opened by OpenDevice. It implements
// gpucontext.DeviceProvider so it can be handed to NewRendererFromProvider
// like a host application's device.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  hal.Adapter
	info     gputypes.AdapterInfo
	format   gputypes.TextureFormat
}

var _ gpucontext.DeviceProvider = (*Device)(nil)

// OpenDevice opens the first usable adapter of the registered backends,
// preferring discrete and integrated GPUs over software adapters.
func OpenDevice() (*Device, error) {
	var errs []error
	for _, variant := range deviceBackends {
		backend, ok := hal.GetBackend(variant)
		if !ok {
			continue
		}
		d, err := OpenBackend(backend)
		if err == nil {
			return d, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", variant, err))
	}
	if len(errs) == 0 {
		return nil, ErrNoAdapter
	}
	return nil, fmt.Errorf("%w: %w", ErrNoAdapter, errors.Join(errs...))
}

// OpenBackend opens a device on the preferred adapter of backend.
func OpenBackend(backend hal.Backend) (*Device, error) {
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	opened, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	slogger().Info("gpu: device opened",
		"backend", backend.Variant().String(), "adapter", selected.Info.Name)
	return &Device{
		instance: instance,
		device:   opened.Device,
		queue:    opened.Queue,
		adapter:  selected.Adapter,
		info:     selected.Info,
		format:   OffscreenFormat,
	}, nil
}

// Device returns the hal.Device.
func (d *Device) Device() gpucontext.Device { return d.device }

// Queue returns the hal.Queue.
func (d *Device) Queue() gpucontext.Queue { return d.queue }

// SurfaceFormat returns the offscreen color format.
func (d *Device) SurfaceFormat() gputypes.TextureFormat { return d.format }

// Adapter returns the hal.Adapter the device was opened on.
func (d *Device) Adapter() gpucontext.Adapter { return d.adapter }

// AdapterInfo describes the adapter.
func (d *Device) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: d.info.Name, Type: adapterType(d.info.DeviceType)}
}

func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}

// Close waits for the device to go idle and releases it. Renderers created
// on the device must be destroyed first.
func (d *Device) Close() {
	if d == nil || d.device == nil {
		return
	}
	if err := d.device.WaitIdle(); err != nil {
		slogger().Warn("gpu: wait idle before close", "err", err)
	}
	d.device.Destroy()
	d.device, d.queue, d.adapter = nil, nil, nil
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}
