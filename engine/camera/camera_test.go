package camera

import (
	"math"
	"testing"
)

func project(m [16]float32, x, y, z float32) (cx, cy, cz, cw float32) {
	cx = m[0]*x + m[4]*y + m[8]*z + m[12]
	cy = m[1]*x + m[5]*y + m[9]*z + m[13]
	cz = m[2]*x + m[6]*y + m[10]*z + m[14]
	cw = m[3]*x + m[7]*y + m[11]*z + m[15]
	return
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestTargetProjectsToCenter(t *testing.T) {
	c := NewCamera(WithTarget(3, -2, 5), WithOrbit(40, 0.7, 0.3))
	x, y, z, w := project(c.ViewProjectionMatrix(), 3, -2, 5)
	if w <= 0 {
		t.Fatalf("target behind the eye: w = %v", w)
	}
	if !near(x/w, 0) || !near(y/w, 0) {
		t.Errorf("target projects to (%v, %v), want center", x/w, y/w)
	}
	if d := z / w; d < 0 || d > 1 {
		t.Errorf("target depth %v outside [0, 1]", d)
	}
}

func TestOrbitPositionOnSphere(t *testing.T) {
	c := NewCamera(WithOrbit(10, 0, 0))
	x, y, z := c.Position()
	if !near(x, 0) || !near(y, 0) || !near(z, 10) {
		t.Errorf("position = (%v, %v, %v), want (0, 0, 10)", x, y, z)
	}

	c.Orbit(100, 50)
	x, y, z = c.Position()
	r := float32(math.Sqrt(float64(x*x + y*y + z*z)))
	if !near(r, 10) {
		t.Errorf("orbit changed radius to %v", r)
	}
}

func TestZoomAndElevationClamp(t *testing.T) {
	c := NewCamera(WithOrbit(10, 0, 0), WithRadiusBounds(5, 20), WithZoomSpeed(1))
	c.Zoom(100)
	if c.Radius() != 5 {
		t.Errorf("radius = %v, want 5", c.Radius())
	}
	c.Zoom(-100)
	if c.Radius() != 20 {
		t.Errorf("radius = %v, want 20", c.Radius())
	}

	c.Orbit(0, 1e6)
	if c.Elevation() >= math.Pi/2 {
		t.Errorf("elevation %v reached the pole", c.Elevation())
	}
}

func TestSetAspectIgnoresEmptyFramebuffer(t *testing.T) {
	c := NewCamera()
	c.SetAspect(800, 400)
	if c.Aspect() != 2 {
		t.Fatalf("aspect = %v, want 2", c.Aspect())
	}
	c.SetAspect(0, 0)
	if c.Aspect() != 2 {
		t.Errorf("minimized window changed aspect to %v", c.Aspect())
	}
}

func TestReset(t *testing.T) {
	c := NewCamera(WithTarget(1, 2, 3), WithOrbit(30, 0.5, 0.2))
	want := c.ViewProjectionMatrix()
	c.Orbit(40, -25)
	c.Zoom(2)
	c.SetTarget(0, 0, 0)
	c.Reset()
	if got := c.ViewProjectionMatrix(); got != want {
		t.Errorf("Reset did not restore the initial view")
	}
}
