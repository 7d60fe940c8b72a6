package camera

import (
	"github.com/Carmen-Shannon/oxy-starter/common"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraController translates raw window input into ArcballCamera operations.
// It owns the previous cursor position, the viewport size used to normalize cursor
// coordinates, and a changed flag the render loop consumes once per frame to decide
// whether the view uniform needs re-uploading.
type CameraController interface {
	// Camera returns the controlled camera.
	//
	// Returns:
	//   - ArcballCamera: the camera receiving rotate, pan and zoom calls
	Camera() ArcballCamera

	// CursorMove handles a cursor event in window pixels.
	// With the left button held the camera rotates, with the right button held it pans.
	// The first event after construction or ResetCursor only records the position.
	//
	// Parameters:
	//   - x, y: cursor position in pixels, origin at the top-left corner
	//   - buttons: the mouse buttons currently held
	CursorMove(x, y float64, buttons common.MouseButtons)

	// Scroll handles a wheel event, zooming by ticks scaled by ZoomScale.
	//
	// Parameters:
	//   - ticks: wheel delta (positive = away from the user = zoom in)
	Scroll(ticks float32)

	// Resize updates the viewport size used to normalize cursor positions.
	//
	// Parameters:
	//   - width, height: the new viewport size in pixels
	Resize(width, height int)

	// ResetCursor forgets the previous cursor position, e.g. when the cursor leaves the window.
	ResetCursor()

	// MarkChanged flags the camera as changed so the next frame re-uploads the view uniform.
	MarkChanged()

	// Changed reports whether the camera changed since the last ConsumeChanged.
	//
	// Returns:
	//   - bool: true if a re-upload is pending
	Changed() bool

	// ConsumeChanged returns the changed flag and clears it.
	//
	// Returns:
	//   - bool: true if the camera changed since the previous call
	ConsumeChanged() bool

	// ZoomScale returns the multiplier applied to wheel ticks before zooming.
	//
	// Returns:
	//   - float32: the zoom scale
	ZoomScale() float32
}

// cameraControllerImpl is the single implementation of CameraController.
type cameraControllerImpl struct {
	camera ArcballCamera

	width  int
	height int

	// prevMouse is nil until the first cursor event, and again after ResetCursor.
	prevMouse *mgl32.Vec2

	zoomScale float32
	changed   bool
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a controller for the given camera.
// The changed flag starts set so the first frame uploads the initial view.
//
// Parameters:
//   - cam: the camera to control
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(cam ArcballCamera, options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		camera:    cam,
		width:     640,
		height:    480,
		zoomScale: 0.05,
		changed:   true,
	}
	for _, option := range options {
		option(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) Camera() ArcballCamera {
	return cc.camera
}

func (cc *cameraControllerImpl) CursorMove(x, y float64, buttons common.MouseButtons) {
	if cc.width <= 0 || cc.height <= 0 {
		return
	}
	cur := common.ScreenToNDC(x, y, cc.width, cc.height)

	if prev := cc.prevMouse; prev != nil {
		switch {
		case buttons.Has(common.MouseButtonLeft):
			cc.camera.Rotate(*prev, cur)
			cc.changed = true
		case buttons.Has(common.MouseButtonRight):
			cc.camera.Pan(cur.Sub(*prev))
			cc.changed = true
		}
	}
	cc.prevMouse = &cur
}

func (cc *cameraControllerImpl) Scroll(ticks float32) {
	if ticks == 0 {
		return
	}
	cc.camera.Zoom(ticks * cc.zoomScale)
	cc.changed = true
}

func (cc *cameraControllerImpl) Resize(width, height int) {
	cc.width = width
	cc.height = height
	cc.prevMouse = nil
}

func (cc *cameraControllerImpl) ResetCursor() {
	cc.prevMouse = nil
}

func (cc *cameraControllerImpl) MarkChanged() {
	cc.changed = true
}

func (cc *cameraControllerImpl) Changed() bool {
	return cc.changed
}

func (cc *cameraControllerImpl) ConsumeChanged() bool {
	changed := cc.changed
	cc.changed = false
	return changed
}

func (cc *cameraControllerImpl) ZoomScale() float32 {
	return cc.zoomScale
}
