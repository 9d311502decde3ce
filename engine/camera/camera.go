package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
)

type cameraImpl struct {
	mu *sync.Mutex

	up     [3]float32
	target [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	// Spherical coordinates of the eye around the target
	radius    float32
	azimuth   float32
	elevation float32

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	mouseSensitivity float32
	zoomSpeed        float32

	// home is the orbit restored by Reset
	home       [3]float32
	homeTarget [3]float32

	position             [3]float32
	viewMatrix           common.Mat4
	projectionMatrix     common.Mat4
	viewProjectionMatrix common.Mat4
}

// Camera is an orbit camera looking at a target point of the simulation space.
//
// The eye sits on a sphere around the target described by radius, azimuth and elevation.
// Every setter recomputes the view-projection matrix handed to the renderer.
type Camera interface {
	// Position returns the world-space eye position.
	//
	// Returns:
	//   - x, y, z: the eye position
	Position() (x, y, z float32)

	// Target returns the point the camera looks at.
	//
	// Returns:
	//   - x, y, z: the target position
	Target() (x, y, z float32)

	// SetTarget moves the point the camera orbits, keeping the eye's spherical offset.
	//
	// Parameters:
	//   - x, y, z: the new target
	SetTarget(x, y, z float32)

	// Radius returns the eye distance from the target.
	Radius() float32

	// Azimuth returns the horizontal angle around the Y axis in radians.
	Azimuth() float32

	// Elevation returns the vertical angle above the horizontal plane in radians.
	Elevation() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// SetAspect sets the aspect ratio from a framebuffer size. Zero sizes are ignored.
	//
	// Parameters:
	//   - width: framebuffer width in pixels
	//   - height: framebuffer height in pixels
	SetAspect(width, height int)

	// Orbit rotates the eye around the target by a cursor delta in pixels.
	// Elevation is clamped to the camera's bounds.
	//
	// Parameters:
	//   - dx: horizontal cursor movement
	//   - dy: vertical cursor movement
	Orbit(dx, dy float32)

	// Zoom moves the eye towards the target by scroll steps. Radius is clamped to the camera's bounds.
	//
	// Parameters:
	//   - delta: the scroll delta, positive zooms in
	Zoom(delta float32)

	// Reset restores the target and orbit the camera was created with.
	Reset()

	// ViewProjectionMatrix returns the combined view-projection matrix (column-major).
	//
	// Returns:
	//   - [16]float32: the view-projection matrix
	ViewProjectionMatrix() [16]float32
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new orbit Camera.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		up:     [3]float32{0, 1, 0},
		fov:    45.0 * (math.Pi / 180.0), // radians
		aspect: 16.0 / 9.0,
		near:   0.1,
		far:    1000.0,

		radius:    120.0,
		azimuth:   0.0,
		elevation: float32(math.Pi / 6),

		minRadius:    2.0,
		maxRadius:    900.0,
		minElevation: float32(-math.Pi/2 + 0.05),
		maxElevation: float32(math.Pi/2 - 0.05),

		mouseSensitivity: 0.005,
		zoomSpeed:        6.0,
	}
	for _, option := range options {
		option(c)
	}
	c.clamp()
	c.home = [3]float32{c.radius, c.azimuth, c.elevation}
	c.homeTarget = c.target
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Position() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position[0], c.position[1], c.position[2]
}

func (c *cameraImpl) Target() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target[0], c.target[1], c.target[2]
}

func (c *cameraImpl) SetTarget(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = [3]float32{x, y, z}
	c.updateMatrices()
}

func (c *cameraImpl) Radius() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.radius
}

func (c *cameraImpl) Azimuth() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.azimuth
}

func (c *cameraImpl) Elevation() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elevation
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) SetAspect(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = float32(width) / float32(height)
	c.updateMatrices()
}

func (c *cameraImpl) Orbit(dx, dy float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.azimuth -= dx * c.mouseSensitivity
	c.elevation += dy * c.mouseSensitivity
	c.clamp()
	c.updateMatrices()
}

func (c *cameraImpl) Zoom(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius -= delta * c.zoomSpeed
	c.clamp()
	c.updateMatrices()
}

func (c *cameraImpl) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius, c.azimuth, c.elevation = c.home[0], c.home[1], c.home[2]
	c.target = c.homeTarget
	c.updateMatrices()
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return [16]float32(c.viewProjectionMatrix)
}

// clamp keeps radius and elevation inside their bounds. Caller must hold the mutex.
func (c *cameraImpl) clamp() {
	c.radius = min(max(c.radius, c.minRadius), c.maxRadius)
	c.elevation = min(max(c.elevation, c.minElevation), c.maxElevation)
}

// updateMatrices recomputes the eye position and the view, projection and view-projection matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	cosElev := float32(math.Cos(float64(c.elevation)))
	sinElev := float32(math.Sin(float64(c.elevation)))
	cosAzim := float32(math.Cos(float64(c.azimuth)))
	sinAzim := float32(math.Sin(float64(c.azimuth)))

	c.position[0] = c.target[0] + c.radius*cosElev*sinAzim
	c.position[1] = c.target[1] + c.radius*sinElev
	c.position[2] = c.target[2] + c.radius*cosElev*cosAzim

	c.viewMatrix = common.LookAt(common.Vec3(c.position), common.Vec3(c.target), common.Vec3(c.up))
	c.projectionMatrix = common.Perspective(c.fov, c.aspect, c.near, c.far)
	c.viewProjectionMatrix = c.projectionMatrix.Mul(c.viewMatrix)
}
