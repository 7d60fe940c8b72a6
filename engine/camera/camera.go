package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// arcballCameraImpl is the implementation of ArcballCamera.
// The view matrix is composed as translation * rotation * centerTranslation and is
// recomputed eagerly by every mutator, so readers never observe a stale matrix.
type arcballCameraImpl struct {
	// centerTranslation moves the pivot to the origin: inverse(translate(center)).
	centerTranslation mgl32.Mat4
	// translation pushes the scene away from the eye along the view axis by the eye-to-center distance.
	translation mgl32.Mat4
	// rotation is the accumulated arcball orientation, always unit length.
	rotation mgl32.Quat

	camera    mgl32.Mat4
	invCamera mgl32.Mat4

	// minDistance is the closest Zoom may bring the eye to the center. Zero disables the floor.
	minDistance float32
}

// ArcballCamera is an orbit camera driven by normalized 2D input.
// Drags rotate the view around a pivot point by projecting cursor positions onto a
// virtual hemisphere, pans slide the pivot in the view plane, and zoom moves the eye
// along the view axis.
//
// An ArcballCamera is not safe for concurrent use; it is owned by the render loop.
type ArcballCamera interface {
	// Rotate applies the rotation that carries prevMouse onto curMouse on the arcball.
	// Both points are in normalized device coordinates and are clamped to [-1, 1].
	// Points outside the unit disk are projected onto the rim of the hemisphere.
	//
	// Parameters:
	//   - prevMouse: the cursor position before the drag sample
	//   - curMouse: the cursor position after the drag sample
	Rotate(prevMouse, curMouse mgl32.Vec2)

	// Pan slides the pivot within the current view plane. The delta is scaled by the
	// eye-to-center distance so panning speed follows the zoom level.
	//
	// Parameters:
	//   - mouseDelta: cursor motion in normalized device coordinates, usually cur - prev
	Pan(mouseDelta mgl32.Vec2)

	// Zoom moves the eye along the view axis. Positive amounts move toward the center.
	// The step is not clamped unless a minimum distance was configured.
	//
	// Parameters:
	//   - amount: distance to move, in world units
	Zoom(amount float32)

	// Transform returns the world-to-camera view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the current view matrix
	Transform() mgl32.Mat4

	// InvTransform returns the camera-to-world matrix, the inverse of Transform.
	//
	// Returns:
	//   - mgl32.Mat4: the current inverse view matrix
	InvTransform() mgl32.Mat4

	// Eye returns the camera position in world space.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position
	Eye() mgl32.Vec3

	// Center returns the pivot in world space.
	//
	// Returns:
	//   - mgl32.Vec3: the pivot the camera orbits and pans around
	Center() mgl32.Vec3

	// Dir returns the normalized world-space direction the camera looks along.
	//
	// Returns:
	//   - mgl32.Vec3: the view direction
	Dir() mgl32.Vec3

	// Up returns the normalized world-space up vector of the camera.
	//
	// Returns:
	//   - mgl32.Vec3: the camera up vector
	Up() mgl32.Vec3

	// Distance returns the current eye-to-center distance.
	//
	// Returns:
	//   - float32: the distance in world units
	Distance() float32

	// Rotation returns the accumulated orientation quaternion.
	//
	// Returns:
	//   - mgl32.Quat: the unit quaternion applied between the center and view translations
	Rotation() mgl32.Quat
}

var _ ArcballCamera = &arcballCameraImpl{}

// NewArcballCamera creates an ArcballCamera looking from eye at center.
// The up vector fixes the rotational reference frame for all later drags.
// eye must differ from center and up must not be parallel to the view direction;
// degenerate input yields NaN matrices rather than an error.
//
// Parameters:
//   - eye: the initial camera position
//   - center: the pivot point
//   - up: the approximate up direction
//   - options: functional options to configure the camera
//
// Returns:
//   - ArcballCamera: the newly created camera
func NewArcballCamera(eye, center, up mgl32.Vec3, options ...ArcballCameraBuilderOption) ArcballCamera {
	dir := center.Sub(eye)
	zAxis := dir.Normalize()
	xAxis := zAxis.Cross(up.Normalize()).Normalize()
	yAxis := xAxis.Cross(zAxis).Normalize()
	xAxis = zAxis.Cross(yAxis).Normalize()

	// Rows of the look-at rotation are the camera axes, with -z as forward.
	basis := mgl32.Mat3FromCols(xAxis, yAxis, zAxis.Mul(-1)).Transpose()

	c := &arcballCameraImpl{
		centerTranslation: mgl32.Translate3D(-center.X(), -center.Y(), -center.Z()),
		translation:       mgl32.Translate3D(0, 0, -dir.Len()),
		rotation:          mgl32.Mat4ToQuat(basis.Mat4()).Normalize(),
	}
	for _, option := range options {
		option(c)
	}
	c.updateCamera()
	return c
}

func (c *arcballCameraImpl) Rotate(prevMouse, curMouse mgl32.Vec2) {
	curMouse = clampNDC(curMouse)
	prevMouse = clampNDC(prevMouse)

	curBall := screenToArcball(curMouse)
	prevBall := screenToArcball(prevMouse)

	c.rotation = curBall.Mul(prevBall).Mul(c.rotation).Normalize()
	c.updateCamera()
}

func (c *arcballCameraImpl) Pan(mouseDelta mgl32.Vec2) {
	zoomAmount := c.Distance()
	motion := mgl32.Vec4{mouseDelta.X() * zoomAmount, mouseDelta.Y() * zoomAmount, 0, 0}
	// Find the panning amount in world space.
	motion = c.invCamera.Mul4x1(motion)

	c.centerTranslation = mgl32.Translate3D(motion.X(), motion.Y(), motion.Z()).Mul4(c.centerTranslation)
	c.updateCamera()
}

func (c *arcballCameraImpl) Zoom(amount float32) {
	if c.minDistance > 0 && amount > 0 {
		amount = math32.Min(amount, math32.Max(c.Distance()-c.minDistance, 0))
	}
	c.translation = mgl32.Translate3D(0, 0, amount).Mul4(c.translation)
	c.updateCamera()
}

func (c *arcballCameraImpl) Transform() mgl32.Mat4 {
	return c.camera
}

func (c *arcballCameraImpl) InvTransform() mgl32.Mat4 {
	return c.invCamera
}

func (c *arcballCameraImpl) Eye() mgl32.Vec3 {
	return c.invCamera.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
}

func (c *arcballCameraImpl) Center() mgl32.Vec3 {
	return mgl32.Vec3{-c.centerTranslation[12], -c.centerTranslation[13], -c.centerTranslation[14]}
}

func (c *arcballCameraImpl) Dir() mgl32.Vec3 {
	return c.invCamera.Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3().Normalize()
}

func (c *arcballCameraImpl) Up() mgl32.Vec3 {
	return c.invCamera.Mul4x1(mgl32.Vec4{0, 1, 0, 0}).Vec3().Normalize()
}

func (c *arcballCameraImpl) Distance() float32 {
	return math32.Abs(c.translation[14])
}

func (c *arcballCameraImpl) Rotation() mgl32.Quat {
	return c.rotation
}

// updateCamera recomputes the cached view matrix and its inverse.
func (c *arcballCameraImpl) updateCamera() {
	c.camera = c.translation.Mul4(c.rotation.Mat4()).Mul4(c.centerTranslation)
	c.invCamera = c.camera.Inv()
}

// clampNDC clamps both components of p to [-1, 1].
func clampNDC(p mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{mgl32.Clamp(p.X(), -1, 1), mgl32.Clamp(p.Y(), -1, 1)}
}

// screenToArcball maps a point in normalized device coordinates onto the unit hemisphere
// facing the viewer and returns it as a pure quaternion. Points outside the unit disk
// are projected onto the hemisphere's rim.
func screenToArcball(p mgl32.Vec2) mgl32.Quat {
	dist := p.Dot(p)
	if dist <= 1 {
		return mgl32.Quat{W: 0, V: mgl32.Vec3{p.X(), p.Y(), math32.Sqrt(1 - dist)}}
	}
	proj := p.Normalize()
	return mgl32.Quat{W: 0, V: mgl32.Vec3{proj.X(), proj.Y(), 0}}
}
