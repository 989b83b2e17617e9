package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

type camera struct {
	mu *sync.Mutex

	up     mgl32.Vec3
	target mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	// spherical offset from target
	radius    float32
	azimuth   float32
	elevation float32

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed float32
	zoomSpeed  float32
}

// Camera is a perspective orbit camera. It circles a target at a radius, with azimuth measured
// around +Y and elevation measured from the horizontal plane, and supplies the per-frame
// constants (view-projection and eye position) that materials leave to the renderer.
//
// Camera is safe for concurrent use.
type Camera interface {
	// Position returns the world-space eye position derived from the orbit.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position
	Position() mgl32.Vec3

	// Target returns the look-at point.
	Target() mgl32.Vec3

	// SetTarget moves the look-at point, keeping the orbit angles and radius.
	SetTarget(target mgl32.Vec3)

	// Radius returns the distance from the target.
	Radius() float32

	// SetRadius sets the distance from the target, clamped to the radius bounds.
	SetRadius(radius float32)

	// Azimuth returns the horizontal orbit angle in radians.
	Azimuth() float32

	// Elevation returns the vertical orbit angle in radians.
	Elevation() float32

	// Orbit rotates around the target by whole orbit-speed steps. Elevation is clamped.
	//
	// Parameters:
	//   - horizontal: steps around +Y, positive turns right
	//   - vertical: steps up from the horizontal plane
	Orbit(horizontal, vertical float32)

	// Zoom moves toward the target by delta zoom-speed units. Positive zooms in.
	//
	// Parameters:
	//   - delta: the zoom amount, typically a scroll wheel delta
	Zoom(delta float32)

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// SetAspect sets the aspect ratio, typically on window resize.
	SetAspect(aspect float32)

	// View returns the world-to-view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	View() mgl32.Mat4

	// Projection returns the perspective projection matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	Projection() mgl32.Mat4

	// ViewProjection returns Projection * View.
	//
	// Returns:
	//   - mgl32.Mat4: the combined matrix
	ViewProjection() mgl32.Mat4

	// FrameUniform returns the per-frame constants for the current camera state.
	//
	// Returns:
	//   - GPUFrameUniform: the view-projection matrix and eye position
	FrameUniform() GPUFrameUniform
}

var _ Camera = &camera{}

// NewCamera creates a new Camera with a 45 degree field of view looking at the origin.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &camera{
		mu:     &sync.Mutex{},
		up:     mgl32.Vec3{0, 1, 0},
		fov:    mgl32.DegToRad(45),
		aspect: 1,
		near:   0.1,
		far:    100,

		radius:    10,
		elevation: float32(math.Pi / 6),

		minRadius:    0.5,
		maxRadius:    1000,
		minElevation: float32(-math.Pi/2 + 0.05),
		maxElevation: float32(math.Pi/2 - 0.05),

		orbitSpeed: 0.03,
		zoomSpeed:  1,
	}
	for _, option := range options {
		option(c)
	}
	c.radius = mgl32.Clamp(c.radius, c.minRadius, c.maxRadius)
	c.elevation = mgl32.Clamp(c.elevation, c.minElevation, c.maxElevation)
	return c
}

// position computes the eye from the spherical offset. Caller must hold the mutex.
func (c *camera) position() mgl32.Vec3 {
	sinElev, cosElev := math.Sincos(float64(c.elevation))
	sinAzim, cosAzim := math.Sincos(float64(c.azimuth))
	return c.target.Add(mgl32.Vec3{
		c.radius * float32(cosElev*sinAzim),
		c.radius * float32(sinElev),
		c.radius * float32(cosElev*cosAzim),
	})
}

func (c *camera) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position()
}

func (c *camera) Target() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *camera) SetTarget(target mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
}

func (c *camera) Radius() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.radius
}

func (c *camera) SetRadius(radius float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius = mgl32.Clamp(radius, c.minRadius, c.maxRadius)
}

func (c *camera) Azimuth() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.azimuth
}

func (c *camera) Elevation() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elevation
}

func (c *camera) Orbit(horizontal, vertical float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.azimuth += horizontal * c.orbitSpeed
	c.elevation = mgl32.Clamp(c.elevation+vertical*c.orbitSpeed, c.minElevation, c.maxElevation)
}

func (c *camera) Zoom(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius = mgl32.Clamp(c.radius-delta*c.zoomSpeed, c.minRadius, c.maxRadius)
}

func (c *camera) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *camera) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *camera) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
}

func (c *camera) View() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return mgl32.LookAtV(c.position(), c.target, c.up)
}

func (c *camera) Projection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
}

func (c *camera) ViewProjection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return mgl32.Perspective(c.fov, c.aspect, c.near, c.far).Mul4(mgl32.LookAtV(c.position(), c.target, c.up))
}

func (c *camera) FrameUniform() GPUFrameUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	eye := c.position()
	return GPUFrameUniform{
		ViewProj:       mgl32.Perspective(c.fov, c.aspect, c.near, c.far).Mul4(mgl32.LookAtV(eye, c.target, c.up)),
		CameraPosition: eye,
	}
}
