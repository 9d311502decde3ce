package common

import (
	"math"
	"unsafe"
)

// Vec3 is a 3D vector or point.
type Vec3 [3]float32

// Sub returns a - b.
func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Dot returns the dot product of a and b.
func (a Vec3) Dot(b Vec3) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// Cross returns a x b.
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Normalize returns a scaled to unit length, or a unchanged if it is zero.
func (a Vec3) Normalize() Vec3 {
	l := a.Dot(a)
	if l == 0 {
		return a
	}
	inv := float32(1 / math.Sqrt(float64(l)))
	return Vec3{a[0] * inv, a[1] * inv, a[2] * inv}
}

// Mat4 is a 4x4 matrix in column-major order, the layout WGSL mat4x4<f32> uniforms expect.
type Mat4 [16]float32

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{0: 1, 5: 1, 10: 1, 15: 1}
}

// Mul returns a * b, so b is applied first when transforming a point.
func (a Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// Transform returns m applied to the point p (w = 1), without the perspective divide.
func (m Mat4) Transform(p Vec3) [4]float32 {
	var out [4]float32
	for row := 0; row < 4; row++ {
		out[row] = m[row]*p[0] + m[4+row]*p[1] + m[8+row]*p[2] + m[12+row]
	}
	return out
}

// Perspective returns a right-handed projection mapping view depth -near..-far to the WebGPU clip
// depth range [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport width / height
//   - near: near plane distance (> 0)
//   - far: far plane distance (> near)
//
// Returns:
//   - Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := float32(1 / math.Tan(float64(fovY)/2))
	return Mat4{
		0:  f / aspect,
		5:  f,
		10: far / (near - far),
		11: -1,
		14: near * far / (near - far),
	}
}

// LookAt returns the view matrix of a camera at eye looking at center. The camera looks down its
// local -Z axis.
//
// Parameters:
//   - eye: camera position
//   - center: the point looked at
//   - up: world up, not parallel to center - eye
//
// Returns:
//   - Mat4: the view matrix
func LookAt(eye, center, up Vec3) Mat4 {
	z := eye.Sub(center).Normalize()
	if z == (Vec3{}) {
		z = Vec3{0, 0, 1}
	}
	x := up.Cross(z).Normalize()
	y := z.Cross(x)
	return Mat4{
		x[0], y[0], z[0], 0,
		x[1], y[1], z[1], 0,
		x[2], y[2], z[2], 0,
		-x.Dot(eye), -y.Dot(eye), -z.Dot(eye), 1,
	}
}

// SliceToBytes reinterprets a slice as bytes for queue writes. The result aliases data.
//
// Parameters:
//   - data: the source slice
//
// Returns:
//   - []byte: a view of data's memory, or nil if data is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(data[0])) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), size)
}
