package camera

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-starter/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUViewParams is the GPU-aligned representation of the view uniform buffer.
// Matches the WGSL ViewParams struct: a single mat4x4<f32>, 64 bytes.
type GPUViewParams struct {
	ViewProj mgl32.Mat4 // offset 0: combined projection * view matrix
}

// NewGPUViewParams combines a projection matrix with the camera's current view matrix.
//
// Parameters:
//   - projection: the projection matrix
//   - cam: the camera providing the view matrix
//
// Returns:
//   - GPUViewParams: the uniform contents for this frame
func NewGPUViewParams(projection mgl32.Mat4, cam ArcballCamera) GPUViewParams {
	return GPUViewParams{ViewProj: projection.Mul4(cam.Transform())}
}

// Size returns the size of the GPUViewParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUViewParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUViewParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUViewParams) Marshal() []byte {
	return common.Mat4Bytes(g.ViewProj)
}
