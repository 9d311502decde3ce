package common

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestMulIdentity(t *testing.T) {
	var a Mat4
	for i := range a {
		a[i] = float32(i + 1)
	}
	if got := a.Mul(Identity()); got != a {
		t.Errorf("a*I = %v", got)
	}
	if got := Identity().Mul(a); got != a {
		t.Errorf("I*a = %v", got)
	}
}

func TestMulAppliesRightOperandFirst(t *testing.T) {
	translate := Identity()
	translate[12] = 5
	scale := Identity()
	scale[0] = 2

	// scale then translate: x -> 2x + 5
	if got := translate.Mul(scale).Transform(Vec3{1, 0, 0}); !near(got[0], 7) {
		t.Errorf("T*S moves x=1 to %v, want 7", got[0])
	}
	// translate then scale: x -> 2(x + 5)
	if got := scale.Mul(translate).Transform(Vec3{1, 0, 0}); !near(got[0], 12) {
		t.Errorf("S*T moves x=1 to %v, want 12", got[0])
	}
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	view := LookAt(Vec3{3, 4, 5}, Vec3{}, Vec3{0, 1, 0})

	eye := view.Transform(Vec3{3, 4, 5})
	if !near(eye[0], 0) || !near(eye[1], 0) || !near(eye[2], 0) {
		t.Errorf("eye in view space = %v", eye)
	}
	// The target lies on the -Z axis at the eye distance.
	target := view.Transform(Vec3{})
	if !near(target[0], 0) || !near(target[1], 0) || !near(target[2], -float32(math.Sqrt(50))) {
		t.Errorf("target in view space = %v", target)
	}
	// World up stays up.
	if up := view.Transform(Vec3{0, 10, 0}); up[1] <= target[1] {
		t.Errorf("world up maps below the target: %v", up)
	}
}

func TestLookAtDegenerateEye(t *testing.T) {
	view := LookAt(Vec3{1, 1, 1}, Vec3{1, 1, 1}, Vec3{0, 1, 0})
	for i, v := range view {
		if math.IsNaN(float64(v)) {
			t.Fatalf("element %d is NaN", i)
		}
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	proj := Perspective(math.Pi/2, 1, 0.5, 100)

	tests := []struct {
		name  string
		z     float32
		depth float32
	}{
		{"near plane", -0.5, 0},
		{"far plane", -100, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip := proj.Transform(Vec3{0, 0, tt.z})
			if got := clip[2] / clip[3]; !near(got, tt.depth) {
				t.Errorf("depth = %v, want %v", got, tt.depth)
			}
		})
	}
}

func TestSliceToBytes(t *testing.T) {
	if SliceToBytes([]float32{}) != nil {
		t.Error("empty slice should give nil")
	}
	if got := len(SliceToBytes([]float32{1, 2, 3})); got != 12 {
		t.Errorf("len = %d, want 12", got)
	}
}
