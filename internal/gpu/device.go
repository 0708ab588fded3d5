//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Device errors.
var (
	// ErrNoAdapter is returned when the instance exposes no adapters.
	ErrNoAdapter = errors.New("gpu: no GPU adapters found")

	// ErrBadProvider is returned when a shared device provider does not
	// expose HAL types.
	ErrBadProvider = errors.New("gpu: provider does not expose HAL device and queue")
)

// halProvider is implemented by hosts that share their device, such as
// the gogpu application and SharedDevice.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// SharedDevice wraps an existing device and queue so it can be passed as
// backend.Params.Device.
type SharedDevice struct {
	Device hal.Device
	Queue  hal.Queue
}

// HalDevice returns the wrapped device.
func (s *SharedDevice) HalDevice() any { return s.Device }

// HalQueue returns the wrapped queue.
func (s *SharedDevice) HalQueue() any { return s.Queue }

// deviceHandle is the device and queue the pipeline records into. When the
// device was opened here rather than shared, destroy releases it.
type deviceHandle struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool
	name     string
}

// openDevice adopts provider's device when it is non-nil and opens a
// Vulkan device otherwise.
func openDevice(provider any) (*deviceHandle, error) {
	if provider != nil {
		return sharedDevice(provider)
	}

	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	return &deviceHandle{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		name:     selected.Info.Name,
	}, nil
}

func sharedDevice(provider any) (*deviceHandle, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadProvider, provider)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrBadProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrBadProvider)
	}
	return &deviceHandle{device: device, queue: queue, external: true, name: "shared"}, nil
}

// destroy releases an owned device. Shared devices are left to their owner.
func (d *deviceHandle) destroy() {
	if d.external {
		d.device = nil
		d.queue = nil
		return
	}
	if d.device != nil {
		d.device.Destroy()
		d.device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	d.queue = nil
}

// uploadBuffer creates a buffer of len(data) bytes and writes data into it.
func (d *deviceHandle) uploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	d.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}
