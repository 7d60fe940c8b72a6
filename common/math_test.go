package common

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreenToNDC(t *testing.T) {
	cases := []struct {
		name string
		x, y float64
		want mgl32.Vec2
	}{
		{"top left", 0, 0, mgl32.Vec2{-1, 1}},
		{"bottom right", 640, 480, mgl32.Vec2{1, -1}},
		{"center", 320, 240, mgl32.Vec2{0, 0}},
		{"quarter", 160, 360, mgl32.Vec2{-0.5, -0.5}},
		{"outside", 960, -240, mgl32.Vec2{2, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ScreenToNDC(tc.x, tc.y, 640, 480)
			assert.InDelta(t, tc.want.X(), got.X(), 1e-6)
			assert.InDelta(t, tc.want.Y(), got.Y(), 1e-6)
		})
	}
}

func TestMat4BytesColumnMajor(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3)
	b := Mat4Bytes(m)
	require.Len(t, b, 64)

	for i := range 16 {
		got := math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		assert.Equal(t, m[i], got, "element %d", i)
	}
	// Translation lives in the fourth column.
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(b[48:])))
}

func TestPerspectiveDepthRange(t *testing.T) {
	near, far := float32(0.1), float32(100)
	proj := Perspective(mgl32.DegToRad(50), 4.0/3.0, near, far)

	depth := func(z float32) float32 {
		clip := proj.Mul4x1(mgl32.Vec4{0, 0, -z, 1})
		return clip.Z() / clip.W()
	}
	assert.InDelta(t, 0, depth(near), 1e-5)
	assert.InDelta(t, 1, depth(far), 1e-4)
	assert.Greater(t, depth(10), depth(1))

	// A point on the top edge of the frustum lands on y = 1.
	top := float32(math.Tan(float64(mgl32.DegToRad(25))))
	clip := proj.Mul4x1(mgl32.Vec4{0, top, -1, 1})
	assert.InDelta(t, 1, clip.Y()/clip.W(), 1e-5)
}

func TestMouseButtonsHas(t *testing.T) {
	held := MouseButtonLeft | MouseButtonMiddle
	assert.True(t, held.Has(MouseButtonLeft))
	assert.True(t, held.Has(MouseButtonMiddle))
	assert.False(t, held.Has(MouseButtonRight))
	assert.False(t, held.Has(MouseButtonLeft|MouseButtonRight))
	assert.False(t, MouseButtons(0).Has(MouseButtonLeft))
}

func TestVertexLayout(t *testing.T) {
	verts := []Vertex{
		{Position: [4]float32{1, -1, 0, 1}, Color: [4]float32{1, 0, 0, 1}},
		{Position: [4]float32{-1, -1, 0, 1}, Color: [4]float32{0, 1, 0, 1}},
	}
	b := SliceToBytes(verts)
	require.Len(t, b, 64)
	// Color of the second vertex starts at 32 + 16.
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(b[52:])))
	assert.Nil(t, SliceToBytes([]Vertex{}))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
	assert.Equal(t, float32(0.05), Coalesce(float32(0), float32(0.05)))
}
