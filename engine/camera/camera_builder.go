package camera

type CameraBuilderOption func(*cameraImpl)

// WithFov sets the camera's vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithClipPlanes sets the near and far clipping plane distances.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the clip planes
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
		c.far = far
	}
}

// WithTarget sets the point the camera orbits.
//
// Parameters:
//   - x, y, z: the target position
//
// Returns:
//   - CameraBuilderOption: a function that sets the target
func WithTarget(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.target = [3]float32{x, y, z}
	}
}

// WithOrbit sets the initial spherical position of the eye around the target.
//
// Parameters:
//   - radius: distance from the target
//   - azimuth: horizontal angle around the Y axis in radians
//   - elevation: vertical angle above the horizontal plane in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the orbit
func WithOrbit(radius, azimuth, elevation float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.radius = radius
		c.azimuth = azimuth
		c.elevation = elevation
	}
}

// WithRadiusBounds sets the zoom limits.
//
// Parameters:
//   - min: the closest the eye may get to the target
//   - max: the farthest the eye may get from the target
//
// Returns:
//   - CameraBuilderOption: a function that sets the radius bounds
func WithRadiusBounds(min, max float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.minRadius = min
		c.maxRadius = max
	}
}

// WithMouseSensitivity sets the radians of orbit per pixel of cursor movement.
//
// Parameters:
//   - sensitivity: radians per pixel
//
// Returns:
//   - CameraBuilderOption: a function that sets the sensitivity
func WithMouseSensitivity(sensitivity float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.mouseSensitivity = sensitivity
	}
}

// WithZoomSpeed sets the change in radius per scroll step.
//
// Parameters:
//   - speed: world units per scroll step
//
// Returns:
//   - CameraBuilderOption: a function that sets the zoom speed
func WithZoomSpeed(speed float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.zoomSpeed = speed
	}
}
