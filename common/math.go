package common

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Mat4Bytes serializes a column-major 4x4 matrix into 64 little-endian bytes,
// the layout WGSL expects for a mat4x4<f32> uniform member.
//
// Parameters:
//   - m: the matrix to serialize
//
// Returns:
//   - []byte: 64 bytes in column-major order
func Mat4Bytes(m mgl32.Mat4) []byte {
	buf := make([]byte, 64)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(m[i]))
	}
	return buf
}

// Perspective creates a right-handed perspective projection matrix.
// Depth is mapped to the WebGPU clip-space range [0, 1] rather than the OpenGL [-1, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))

	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// ScreenToNDC maps a cursor position in window pixels to normalized device coordinates.
// The window's top-left corner maps to (-1, 1) and its bottom-right corner to (1, -1).
//
// Parameters:
//   - x, y: cursor position in pixels, origin at the top-left corner
//   - width, height: window client area size in pixels
//
// Returns:
//   - mgl32.Vec2: the position in [-1, 1] on both axes for points inside the window
func ScreenToNDC(x, y float64, width, height int) mgl32.Vec2 {
	return mgl32.Vec2{
		float32(x*2/float64(width) - 1),
		float32(1 - 2*y/float64(height)),
	}
}
