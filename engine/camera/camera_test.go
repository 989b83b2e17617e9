package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCameraOrbitPosition(t *testing.T) {
	c := NewCamera(WithTarget(mgl32.Vec3{1, 0, 0}), WithOrbit(5, 0, 0))
	assert.True(t, c.Position().ApproxEqual(mgl32.Vec3{1, 0, 5}))

	c = NewCamera(WithOrbit(5, float32(math.Pi/2), 0))
	assert.True(t, c.Position().ApproxEqualThreshold(mgl32.Vec3{5, 0, 0}, 1e-5))
}

func TestCameraClamps(t *testing.T) {
	c := NewCamera(WithRadiusBounds(2, 8), WithOrbit(20, 0, 0), WithSpeeds(1, 1))
	assert.Equal(t, float32(8), c.Radius())

	c.Zoom(100)
	assert.Equal(t, float32(2), c.Radius())

	c.Orbit(0, 10)
	assert.InDelta(t, math.Pi/2-0.05, c.Elevation(), 1e-6)

	c.Orbit(0.5, 0)
	assert.InDelta(t, 0.5, c.Azimuth(), 1e-6)

	c.SetAspect(0)
	assert.Equal(t, float32(1), c.Aspect())
}

func TestCameraViewProjectionMapsTargetToCenter(t *testing.T) {
	c := NewCamera(WithTarget(mgl32.Vec3{0, 1, 0}), WithOrbit(4, 0.3, 0.2), WithAspect(16.0/9.0))

	clip := c.ViewProjection().Mul4x1(c.Target().Vec4(1))
	ndc := clip.Vec3().Mul(1 / clip.W())
	assert.InDelta(t, 0, ndc.X(), 1e-5)
	assert.InDelta(t, 0, ndc.Y(), 1e-5)

	assert.Equal(t, c.Projection().Mul4(c.View()), c.ViewProjection())
}

func TestFrameUniformMarshal(t *testing.T) {
	c := NewCamera(WithOrbit(3, 0, 0))
	u := c.FrameUniform()
	buf := u.Marshal()

	assert.Len(t, buf, GPUFrameUniformSize)
	assert.Equal(t, u.ViewProj[5], math.Float32frombits(binary.LittleEndian.Uint32(buf[20:])))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(buf[72:])))
}
