package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-starter/common"
	"github.com/Carmen-Shannon/oxy-starter/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriangleVertices(t *testing.T) {
	v := TriangleVertices()
	require.Len(t, v, 3)

	assert.Equal(t, [4]float32{1, -1, 0, 1}, v[0].Position)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, v[0].Color)
	assert.Equal(t, [4]float32{-1, -1, 0, 1}, v[1].Position)
	assert.Equal(t, [4]float32{0, 1, 0, 1}, v[1].Color)
	assert.Equal(t, [4]float32{0, 1, 0, 1}, v[2].Position)
	assert.Equal(t, [4]float32{0, 0, 1, 1}, v[2].Color)

	// Returned slices are independent copies.
	v[0].Color[0] = 0
	assert.Equal(t, float32(1), TriangleVertices()[0].Color[0])
}

func TestTriangleVerticesMatchShaderLayout(t *testing.T) {
	s, err := shader.NewTriangleShader()
	require.NoError(t, err)

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 1)

	data := common.SliceToBytes(TriangleVertices())
	assert.Len(t, data, 3*int(layouts[0].ArrayStride))
}

func TestWGPUPresentMode(t *testing.T) {
	assert.Equal(t, wgpu.PresentModeFifo, wgpuPresentMode(PresentModeVSync))
	assert.Equal(t, wgpu.PresentModeImmediate, wgpuPresentMode(PresentModeUncapped))
	assert.Equal(t, wgpu.PresentModeFifo, wgpuPresentMode(PresentMode(42)))
}

func TestWGPUBackendType(t *testing.T) {
	cases := map[GraphicsAPI]wgpu.BackendType{
		GraphicsAPIAuto:   wgpu.BackendTypeUndefined,
		GraphicsAPIVulkan: wgpu.BackendTypeVulkan,
		GraphicsAPIMetal:  wgpu.BackendTypeMetal,
		GraphicsAPID3D12:  wgpu.BackendTypeD3D12,
		GraphicsAPIOpenGL: wgpu.BackendTypeOpenGL,
	}
	for api, want := range cases {
		assert.Equal(t, want, wgpuBackendType(api))
	}
}

func TestRendererOptions(t *testing.T) {
	r := &renderer{}
	for _, opt := range []RendererBuilderOption{
		WithPresentMode(PresentModeUncapped),
		WithForceSoftwareRenderer(true),
		WithGraphicsAPI(GraphicsAPIVulkan),
		WithClearColor(wgpu.Color{R: 0.5, A: 1}),
	} {
		opt(r)
	}

	assert.Equal(t, PresentModeUncapped, r.presentMode)
	assert.True(t, r.forceFallbackAdapter)
	assert.Equal(t, GraphicsAPIVulkan, r.graphicsAPI)
	assert.Equal(t, wgpu.Color{R: 0.5, A: 1}, r.clearColor)
}

func TestRenderFrameRequiresTriangle(t *testing.T) {
	r := &renderer{}
	assert.ErrorIs(t, r.RenderFrame(nil), ErrTriangleNotInitialized)
}
