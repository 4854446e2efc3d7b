package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/texquad"
)

// Device errors.
var (
	// ErrNoDevice is returned when a nil device or queue is supplied.
	ErrNoDevice = errors.New("gpu: no device")

	// ErrProviderNotHAL is returned when a device provider does not expose
	// HAL device and queue handles.
	ErrProviderNotHAL = errors.New("gpu: provider does not expose HAL types")

	// ErrNoAdapter is returned when no usable GPU adapter is found.
	ErrNoAdapter = errors.New("gpu: no adapter")
)

// halProvider is implemented by device providers that can hand out their
// underlying HAL objects.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewRendererFromProvider creates a Renderer on a device shared with a host
// application. The provider must also implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue. The device stays owned
// by the provider; Destroy releases only the renderer's resources.
func NewRendererFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Renderer, error) {
	if provider == nil {
		return nil, ErrNoDevice
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrProviderNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrProviderNotHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrProviderNotHAL)
	}
	return NewRenderer(device, queue, opts...)
}

// openBackend creates an instance on backend, opens the preferred adapter
// and returns a Renderer that owns both.
func openBackend(backend gputypes.Backend, opts ...Option) (*Renderer, error) {
	b, ok := hal.GetBackend(backend)
	if !ok {
		return nil, fmt.Errorf("%w: backend %v not registered", ErrNoAdapter, backend)
	}
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	selected := selectAdapter(adapters)
	if selected == nil {
		instance.Destroy()
		return nil, ErrNoAdapter
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open device: %w", err)
	}

	r, err := NewRenderer(openDev.Device, openDev.Queue, opts...)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	r.instance = instance
	r.ownsDevice = true
	texquad.Logger().Info("gpu: device opened", "adapter", selected.Info.Name)
	return r, nil
}

// selectAdapter prefers a discrete or integrated GPU over software and
// virtual adapters. It returns nil for an empty list.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	if len(adapters) == 0 {
		return nil
	}
	for i := range adapters {
		switch adapters[i].Info.DeviceType {
		case gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU:
			return &adapters[i]
		}
	}
	return &adapters[0]
}
