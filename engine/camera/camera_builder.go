package camera

// ArcballCameraBuilderOption is a functional option for configuring an ArcballCamera.
type ArcballCameraBuilderOption func(*arcballCameraImpl)

// WithMinDistance sets a floor on the eye-to-center distance that Zoom will not cross.
// Without this option zoom is unclamped and the eye may pass through the center.
//
// Parameters:
//   - distance: minimum distance in world units (<= 0 disables the floor)
//
// Returns:
//   - ArcballCameraBuilderOption: functional option to set the zoom floor
func WithMinDistance(distance float32) ArcballCameraBuilderOption {
	return func(c *arcballCameraImpl) {
		if distance < 0 {
			distance = 0
		}
		c.minDistance = distance
	}
}
