package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-starter/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("triangle")

	assert.Equal(t, "triangle", p.PipelineKey())
	assert.Nil(t, p.Shader())
	assert.Nil(t, p.RenderPipeline())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Equal(t, wgpu.FrontFaceCCW, p.FrontFace())
	assert.Equal(t, wgpu.ColorWriteMaskAll, p.WriteMask())
	assert.Nil(t, p.BlendState())
}

func TestNewPipelineOptions(t *testing.T) {
	s, err := shader.NewTriangleShader()
	require.NoError(t, err)
	blend := &wgpu.BlendState{}

	p := NewPipeline("custom",
		WithShader(s),
		WithCullMode(wgpu.CullModeBack),
		WithTopology(wgpu.PrimitiveTopologyLineList),
		WithFrontFace(wgpu.FrontFaceCW),
		WithWriteMask(wgpu.ColorWriteMaskRed),
		WithBlendState(blend),
	)

	assert.Same(t, s, p.Shader())
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyLineList, p.Topology())
	assert.Equal(t, wgpu.FrontFaceCW, p.FrontFace())
	assert.Equal(t, wgpu.ColorWriteMaskRed, p.WriteMask())
	assert.Same(t, blend, p.BlendState())
}

func TestBindGroupLayoutBounds(t *testing.T) {
	p := NewPipeline("triangle")
	assert.Nil(t, p.BindGroupLayout(0))
	assert.Nil(t, p.BindGroupLayout(-1))

	p.SetGPUObjects(nil, nil, make([]*wgpu.BindGroupLayout, 1))
	assert.Nil(t, p.BindGroupLayout(0))
	assert.Nil(t, p.BindGroupLayout(1))

	// Release tolerates missing objects and can be repeated.
	p.Release()
	p.Release()
}
