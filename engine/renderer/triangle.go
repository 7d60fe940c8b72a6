package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-starter/common"
	"github.com/Carmen-Shannon/oxy-starter/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-starter/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-starter/engine/renderer/shader"
)

// TrianglePipelineKey is the cache key of the starter triangle pipeline.
const TrianglePipelineKey = shader.TriangleKey

// viewParamsBinding is the binding of the ViewParams uniform within group 0.
const viewParamsBinding = 0

// ErrTriangleNotInitialized is returned by RenderFrame before InitTriangle succeeded.
var ErrTriangleNotInitialized = errors.New("triangle scene not initialized")

// TriangleVertices returns the starter triangle in clip-space units: red bottom-right,
// green bottom-left, blue top.
//
// Returns:
//   - []common.Vertex: the three vertices in draw order
func TriangleVertices() []common.Vertex {
	return []common.Vertex{
		{Position: [4]float32{1, -1, 0, 1}, Color: [4]float32{1, 0, 0, 1}},
		{Position: [4]float32{-1, -1, 0, 1}, Color: [4]float32{0, 1, 0, 1}},
		{Position: [4]float32{0, 1, 0, 1}, Color: [4]float32{0, 0, 1, 1}},
	}
}

func (r *renderer) InitTriangle() error {
	s, err := shader.NewTriangleShader()
	if err != nil {
		return err
	}

	if err := r.RegisterPipelines(pipeline.NewPipeline(TrianglePipelineKey, pipeline.WithShader(s))); err != nil {
		return fmt.Errorf("register triangle pipeline: %w", err)
	}

	vertices := TriangleVertices()
	mesh := bind_group_provider.NewBindGroupProvider("triangle")
	if err := r.InitVertexBuffer(mesh, common.SliceToBytes(vertices), uint32(len(vertices))); err != nil {
		return fmt.Errorf("init triangle vertex buffer: %w", err)
	}

	viewParams := bind_group_provider.NewBindGroupProvider("view_params", bind_group_provider.WithGroup(0))
	if err := r.InitBindGroup(viewParams, TrianglePipelineKey); err != nil {
		mesh.Release()
		viewParams.Release()
		return fmt.Errorf("init view params: %w", err)
	}

	r.triangleMesh = mesh
	r.triangleViewParams = viewParams
	return nil
}

func (r *renderer) RenderFrame(viewParams []byte) error {
	if r.triangleMesh == nil || r.triangleViewParams == nil {
		return ErrTriangleNotInitialized
	}

	if viewParams != nil {
		if err := r.WriteBuffers([]bind_group_provider.BufferWrite{{
			Provider: r.triangleViewParams,
			Binding:  viewParamsBinding,
			Data:     viewParams,
		}}); err != nil {
			return fmt.Errorf("upload view params: %w", err)
		}
	}

	if err := r.BeginFrame(); err != nil {
		return err
	}
	if err := r.DrawCall(TrianglePipelineKey, r.triangleMesh, []bind_group_provider.BindGroupProvider{r.triangleViewParams}); err != nil {
		// Close the pass so the surface texture is not leaked.
		_ = r.EndFrame()
		r.Present()
		return err
	}
	if err := r.EndFrame(); err != nil {
		return err
	}
	r.Present()
	return nil
}
