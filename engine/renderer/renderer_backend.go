package renderer

import "github.com/cogentcore/webgpu/wgpu"

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing. This is the default.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// GraphicsAPI is the native graphics API the adapter request prefers.
type GraphicsAPI int

const (
	// GraphicsAPIAuto lets WebGPU pick the best API for the platform.
	GraphicsAPIAuto GraphicsAPI = iota
	GraphicsAPIVulkan
	GraphicsAPIMetal
	GraphicsAPID3D12
	GraphicsAPIOpenGL
)

// wgpuPresentMode maps a PresentMode onto the surface present mode.
func wgpuPresentMode(mode PresentMode) wgpu.PresentMode {
	switch mode {
	case PresentModeUncapped:
		return wgpu.PresentModeImmediate
	case PresentModeVSync:
		fallthrough
	default:
		return wgpu.PresentModeFifo
	}
}

// wgpuBackendType maps a GraphicsAPI onto the adapter request backend. Auto maps to the
// undefined backend, which leaves the choice to WebGPU.
func wgpuBackendType(api GraphicsAPI) wgpu.BackendType {
	switch api {
	case GraphicsAPIVulkan:
		return wgpu.BackendTypeVulkan
	case GraphicsAPIMetal:
		return wgpu.BackendTypeMetal
	case GraphicsAPID3D12:
		return wgpu.BackendTypeD3D12
	case GraphicsAPIOpenGL:
		return wgpu.BackendTypeOpenGL
	default:
		return wgpu.BackendTypeUndefined
	}
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}
