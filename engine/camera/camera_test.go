package camera

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = float32(1e-4)

// absTol is the absolute tolerance for element-wise comparisons. mgl32's ApproxEqual helpers
// are relative and reject float noise around zero.
const absTol = 1e-5

func assertMatEqual(t *testing.T, want, got mgl32.Mat4) {
	t.Helper()
	assert.InDeltaSlicef(t, want[:], got[:], absTol, "matrices differ:\nwant %v\ngot  %v", want, got)
}

func assertVecEqual(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	assert.InDeltaSlicef(t, want[:], got[:], absTol, "vectors differ: want %v got %v", want, got)
}

func assertQuatEqual(t *testing.T, want, got mgl32.Quat) {
	t.Helper()
	assert.InDeltaf(t, want.W, got.W, absTol, "quaternions differ: want %v got %v", want, got)
	assertVecEqual(t, want.V, got.V)
}

func defaultCamera(options ...ArcballCameraBuilderOption) ArcballCamera {
	return NewArcballCamera(mgl32.Vec3{0, 0, -2.5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}, options...)
}

func TestNewArcballCameraMatchesLookAt(t *testing.T) {
	cases := []struct {
		name             string
		eye, center, up mgl32.Vec3
	}{
		{"starter", mgl32.Vec3{0, 0, -2.5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{"front", mgl32.Vec3{0, 0, 4}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{"offset", mgl32.Vec3{3, 2, 1}, mgl32.Vec3{0.5, -1, 2}, mgl32.Vec3{0, 1, 0}},
		{"z up", mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{"unnormalized up", mgl32.Vec3{-2, 0.5, 3}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0.2, 5, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cam := NewArcballCamera(tc.eye, tc.center, tc.up)
			assertMatEqual(t, mgl32.LookAtV(tc.eye, tc.center, tc.up), cam.Transform())
			assertMatEqual(t, mgl32.Ident4(), cam.Transform().Mul4(cam.InvTransform()))
			assertVecEqual(t, tc.eye, cam.Eye())
			assertVecEqual(t, tc.center, cam.Center())
			assert.InDelta(t, tc.eye.Sub(tc.center).Len(), cam.Distance(), 1e-5)
		})
	}
}

func TestTransformMapsEyeToOriginAndCenterInFront(t *testing.T) {
	cam := defaultCamera()
	view := cam.Transform()

	eye := view.Mul4x1(mgl32.Vec4{0, 0, -2.5, 1}).Vec3()
	assertVecEqual(t, mgl32.Vec3{}, eye)

	center := view.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	// Camera space looks down -z, so depth along the forward axis is -z.
	assert.Greater(t, -center.Z(), float32(0))
	assert.InDelta(t, 2.5, -center.Z(), 1e-5)
	assert.InDelta(t, 0, center.X(), 1e-5)
	assert.InDelta(t, 0, center.Y(), 1e-5)
}

func TestRotateSamePointIsIdentity(t *testing.T) {
	points := []mgl32.Vec2{{0, 0}, {0.3, -0.2}, {-0.9, 0.1}, {0.9, 0.9}, {1, -1}}
	for _, p := range points {
		cam := defaultCamera()
		before := cam.Transform()
		cam.Rotate(p, p)
		assertMatEqual(t, before, cam.Transform())
	}
}

func TestRotateThereAndBackRestores(t *testing.T) {
	cam := NewArcballCamera(mgl32.Vec3{3, 2, 1}, mgl32.Vec3{0.5, -1, 2}, mgl32.Vec3{0, 1, 0})
	cam.Rotate(mgl32.Vec2{0.1, 0.1}, mgl32.Vec2{-0.2, 0.3})
	before := cam.Transform()

	a := mgl32.Vec2{-0.4, 0.25}
	b := mgl32.Vec2{0.35, -0.1}
	cam.Rotate(a, b)
	assert.False(t, before.ApproxEqualThreshold(cam.Transform(), tol))
	cam.Rotate(b, a)
	assertMatEqual(t, before, cam.Transform())
}

func TestRotateKeepsUnitQuaternion(t *testing.T) {
	cam := defaultCamera()
	rng := rand.New(rand.NewSource(7))
	next := func() mgl32.Vec2 {
		return mgl32.Vec2{rng.Float32()*2.4 - 1.2, rng.Float32()*2.4 - 1.2}
	}

	prev := next()
	for range 1000 {
		cur := next()
		cam.Rotate(prev, cur)
		prev = cur
		require.InDelta(t, 1, cam.Rotation().Len(), 1e-5)
	}
	assertMatEqual(t, mgl32.Ident4(), cam.Transform().Mul4(cam.InvTransform()))
}

func TestHorizontalDragRotatesAboutUp(t *testing.T) {
	cam := defaultCamera()
	before := cam.Rotation()
	up := cam.Up()
	distance := cam.Distance()

	cam.Rotate(mgl32.Vec2{-0.5, 0}, mgl32.Vec2{0.5, 0})

	delta := cam.Rotation().Mul(before.Inverse())
	axis := delta.V.Normalize()
	assert.InDelta(t, 1, math32.Abs(axis.Y()), 1e-4, "axis %v", axis)
	assert.InDelta(t, 0, axis.X(), 1e-4)
	assert.InDelta(t, 0, axis.Z(), 1e-4)

	// Rotating about the camera's up axis keeps the world up vector and the orbit distance.
	assertVecEqual(t, up, cam.Up())
	assert.InDelta(t, distance, cam.Eye().Sub(cam.Center()).Len(), 1e-4)
	assert.False(t, mgl32.Vec3{0, 0, -2.5}.ApproxEqualThreshold(cam.Eye(), tol))
}

func TestRotateProjectsOutsidePointsToRim(t *testing.T) {
	cam := defaultCamera()
	cam.Rotate(mgl32.Vec2{2, 0}, mgl32.Vec2{0, 3})

	for _, v := range cam.Transform() {
		assert.False(t, math32.IsNaN(v))
	}
	assert.InDelta(t, 1, cam.Rotation().Len(), 1e-5)
	// (1,0) -> (0,1) on the rim is a quarter turn on the sphere, a half turn of the view.
	assert.InDelta(t, 2.5, cam.Distance(), 1e-5)
}

func TestZoom(t *testing.T) {
	t.Run("zero is a no-op", func(t *testing.T) {
		cam := defaultCamera()
		before := cam.Transform()
		cam.Zoom(0)
		assertMatEqual(t, before, cam.Transform())
	})

	t.Run("in then out restores distance", func(t *testing.T) {
		cam := defaultCamera()
		cam.Rotate(mgl32.Vec2{0, 0}, mgl32.Vec2{0.3, 0.4})
		before := cam.Transform()
		cam.Zoom(0.7)
		cam.Zoom(-0.7)
		assert.InDelta(t, 2.5, cam.Distance(), 1e-5)
		assertMatEqual(t, before, cam.Transform())
	})

	t.Run("positive steps move closer", func(t *testing.T) {
		cam := defaultCamera()
		d0 := cam.Distance()
		cam.Zoom(0.1)
		d1 := cam.Distance()
		cam.Zoom(0.1)
		d2 := cam.Distance()
		assert.Less(t, d1, d0)
		assert.Less(t, d2, d1)
		assert.InDelta(t, 2.3, d2, 1e-5)
		assert.InDelta(t, d2, cam.Eye().Sub(cam.Center()).Len(), 1e-5)
	})

	t.Run("unclamped zoom passes through the center", func(t *testing.T) {
		cam := defaultCamera()
		dir := cam.Dir()
		cam.Zoom(5)
		assert.InDelta(t, 2.5, cam.Distance(), 1e-5)
		assertVecEqual(t, mgl32.Vec3{0, 0, 2.5}, cam.Eye())
		assertVecEqual(t, dir, cam.Dir())
	})

	t.Run("min distance floor", func(t *testing.T) {
		cam := defaultCamera(WithMinDistance(1))
		cam.Zoom(5)
		assert.InDelta(t, 1, cam.Distance(), 1e-5)
		cam.Zoom(0.5)
		assert.InDelta(t, 1, cam.Distance(), 1e-5)
		cam.Zoom(-0.5)
		assert.InDelta(t, 1.5, cam.Distance(), 1e-5)
	})
}

func TestPan(t *testing.T) {
	t.Run("zero is a no-op", func(t *testing.T) {
		cam := defaultCamera()
		before := cam.Transform()
		cam.Pan(mgl32.Vec2{0, 0})
		assertMatEqual(t, before, cam.Transform())
	})

	t.Run("moves eye and center together", func(t *testing.T) {
		cam := defaultCamera()
		cam.Rotate(mgl32.Vec2{0.1, -0.2}, mgl32.Vec2{-0.3, 0.2})
		eye, center, dir := cam.Eye(), cam.Center(), cam.Dir()
		distance := cam.Distance()

		delta := mgl32.Vec2{0.2, -0.1}
		cam.Pan(delta)

		moved := cam.Center().Sub(center)
		assertVecEqual(t, moved, cam.Eye().Sub(eye))
		assertVecEqual(t, dir, cam.Dir())
		assert.InDelta(t, distance, cam.Distance(), 1e-5)
		assert.InDelta(t, delta.Len()*distance, moved.Len(), 1e-4)
		// Panning stays in the view plane.
		assert.InDelta(t, 0, moved.Dot(dir), 1e-4)
	})

	t.Run("scales with zoom", func(t *testing.T) {
		near := defaultCamera()
		near.Zoom(1.5)
		far := defaultCamera()

		delta := mgl32.Vec2{0.1, 0}
		near.Pan(delta)
		far.Pan(delta)
		assert.InDelta(t, 0.1, near.Center().Len(), 1e-5)
		assert.InDelta(t, 0.25, far.Center().Len(), 1e-5)
	})
}
