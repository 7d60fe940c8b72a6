package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithViewport sets the initial viewport size used to normalize cursor positions.
//
// Parameters:
//   - width: viewport width in pixels
//   - height: viewport height in pixels
//
// Returns:
//   - CameraControllerOption: functional option to set the viewport size
func WithViewport(width, height int) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.width = width
		cc.height = height
	}
}

// WithZoomScale sets the multiplier applied to wheel ticks before they reach Zoom.
//
// Parameters:
//   - scale: world units per wheel tick
//
// Returns:
//   - CameraControllerOption: functional option to set the zoom scale
func WithZoomScale(scale float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomScale = scale
	}
}
