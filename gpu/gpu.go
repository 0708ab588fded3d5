//go:build !nogpu

// Package gpu registers the GPU pipeline backend.
//
// Import this package to make the "wgpu" backend available to
// backend.Default and backend.Get. The backend runs the compute and render
// stages on gogpu/wgpu HAL through Vulkan.
//
// If GPU initialization fails (no Vulkan adapter), Init reports the error
// and the caller may fall back to the software backend.
//
// Usage:
//
//	import _ "github.com/gogpu/life/gpu" // enable the GPU backend
package gpu

import (
	"github.com/gogpu/life/backend"
	gpuimpl "github.com/gogpu/life/internal/gpu"
)

func init() {
	backend.Register(backend.NameWGPU, func() backend.Pipeline {
		return gpuimpl.NewBackend()
	})
}

// SharedDevice wraps a host device and queue for use as
// backend.Params.Device.
type SharedDevice = gpuimpl.SharedDevice
