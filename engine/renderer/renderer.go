package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-starter/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-starter/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-starter/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	graphicsAPI          GraphicsAPI
	presentMode          PresentMode
	clearColor           wgpu.Color

	// The triangle scene, populated by InitTriangle.
	triangleMesh       bind_group_provider.BindGroupProvider
	triangleViewParams bind_group_provider.BindGroupProvider
}

// Renderer defines the interface for the rendering system.
//
// The Renderer owns the WebGPU device and surface, caches the pipelines it created, and encodes
// one render pass per frame. The starter triangle is set up by InitTriangle and drawn by RenderFrame;
// the lower-level frame calls remain available for additional draws.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines creates the GPU objects for one or more pipelines via the backend, then
	// caches them by PipelineKey. Pipelines whose keys are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize reconfigures the surface for a new size. Call this when the window is resized or
	// after SetPresentMode.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the size is not positive
	Resize(width, height int) error

	// SetPresentMode sets the surface present mode. A call to Resize is required after changing
	// this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// InitVertexBuffer uploads vertex data and stores the created buffer on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the vertex buffer on
	//   - vertexData: the raw interleaved vertex bytes
	//   - vertexCount: the number of vertices
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitVertexBuffer(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount uint32) error

	// InitBindGroup creates the buffers and bind group for the provider's group of a registered pipeline.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to populate
	//   - pipelineKey: the key of a registered pipeline
	//
	// Returns:
	//   - error: an error if the pipeline is unknown or creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, pipelineKey string) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	//
	// Returns:
	//   - error: the first error reported by the queue
	WriteBuffers(writes []bind_group_provider.BufferWrite) error

	// BeginFrame acquires the surface texture and begins the main render pass.
	// Must be paired with EndFrame and Present.
	//
	// Returns:
	//   - error: an error if the surface texture could not be acquired
	BeginFrame() error

	// DrawCall encodes a draw of the provider's vertex buffer with a cached pipeline.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached render Pipeline to use
	//   - meshProvider: the BindGroupProvider holding the vertex buffer
	//   - bindGroups: the BindGroupProviders whose bind groups are set on the pass
	//
	// Returns:
	//   - error: an error if the pipeline is not found
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	// Does not present the surface; call Present afterwards.
	//
	// Returns:
	//   - error: an error if no frame is in progress or submission fails
	EndFrame() error

	// Present presents the surface to the display and releases the per-frame texture.
	Present()

	// InitTriangle builds the starter scene: the triangle shader and pipeline, the vertex buffer
	// and the view parameters uniform with its bind group.
	//
	// Returns:
	//   - error: an error if any GPU object could not be created
	InitTriangle() error

	// RenderFrame draws one frame of the starter scene. When viewParams is non-nil it is written
	// to the view uniform before drawing; nil keeps the previously uploaded matrix.
	//
	// Parameters:
	//   - viewParams: the marshalled view parameters, or nil if the camera did not change
	//
	// Returns:
	//   - error: an error if InitTriangle was not called or the frame could not be encoded
	RenderFrame(viewParams []byte) error

	// Release releases every GPU resource owned by the renderer. The renderer is unusable afterwards.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer for the given window. It creates the WebGPU instance,
// surface, adapter and device, then configures the surface at the window's current size.
//
// Parameters:
//   - window: the window providing the surface descriptor and initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the configured Renderer
//   - error: an error if the adapter, device or surface could not be set up
func NewRenderer(window window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   BackendTypeWGPU,
		presentMode:   PresentModeVSync,
		clearColor:    wgpu.Color{R: 0, G: 0, B: 0, A: 1},
	}

	// Apply options first so adapter flags are available before the backend requests an adapter.
	for _, opt := range options {
		opt(r)
	}

	var err error
	switch r.backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend, err = newWGPURendererBackend(window.SurfaceDescriptor(), wgpuBackendOptions{
			forceFallbackAdapter: r.forceFallbackAdapter,
			graphicsAPI:          r.graphicsAPI,
			presentMode:          r.presentMode,
			clearColor:           r.clearColor,
		})
	}
	if err != nil {
		return nil, err
	}

	if err := r.backend.ConfigureSurface(window.Width(), window.Height()); err != nil {
		r.backend.Release()
		return nil, fmt.Errorf("configure surface: %w", err)
	}
	return r, nil
}

func (r *renderer) Resize(width, height int) error {
	return r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return err
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) InitVertexBuffer(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount uint32) error {
	return r.backend.InitVertexBuffer(provider, vertexData, vertexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, pipelineKey string) error {
	p := r.Pipeline(pipelineKey)
	if p == nil {
		return fmt.Errorf("render pipeline %q not found in cache", pipelineKey)
	}
	return r.backend.InitBindGroup(provider, p)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) error {
	return r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) error {
	p := r.Pipeline(pipelineKey)
	if p == nil {
		return fmt.Errorf("render pipeline %q not found in cache", pipelineKey)
	}

	r.backend.DrawCall(p, meshProvider, bindGroups)
	return nil
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	if r.triangleMesh != nil {
		r.triangleMesh.Release()
		r.triangleMesh = nil
	}
	if r.triangleViewParams != nil {
		r.triangleViewParams.Release()
		r.triangleViewParams = nil
	}

	r.mu.Lock()
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.mu.Unlock()

	r.backend.Release()
}
