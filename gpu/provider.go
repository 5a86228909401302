//go:build !nogpu

package gpu

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// Errors returned by NewPipelinesFromProvider.
var (
	ErrNilProvider = errors.New("gpu: nil device provider")
	ErrNoHalDevice = errors.New("gpu: provider does not expose a hal.Device")
)

// halProvider is implemented by providers that share their HAL device,
// such as gogpu's GPU context.
type halProvider interface {
	HalDevice() any
}

// NewPipelinesFromProvider builds the pipelines on the device of a host
// application. The color target defaults to the provider's surface format;
// opts may override it. The provider keeps ownership of the device.
func NewPipelinesFromProvider(provider gpucontext.DeviceProvider, opts ...PipelineOption) (*Pipelines, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHalDevice
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, ErrNoHalDevice
	}
	opts = append([]PipelineOption{WithColorFormat(provider.SurfaceFormat())}, opts...)
	return NewPipelines(device, opts...)
}
