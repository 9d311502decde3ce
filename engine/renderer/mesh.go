package renderer

import "math"

// Mesh is the geometry instanced once per agent. Vertices interleave position and normal
// (6 floats per vertex); faces wind counter-clockwise seen from outside.
type Mesh struct {
	Vertices []float32
	Indices  []uint32
}

// VertexCount returns the number of vertices in the mesh.
func (m Mesh) VertexCount() int {
	return len(m.Vertices) / 6
}

// CubeMesh builds an axis-aligned cube centered on the origin with flat per-face normals.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - Mesh: 24 vertices and 36 indices
func CubeMesh(size float32) Mesh {
	h := size / 2
	// normal, u, v per face with u x v = normal
	faces := [6][3][3]float32{
		{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
		{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}},
		{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
		{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
		{{0, 0, -1}, {0, 1, 0}, {1, 0, 0}},
	}

	var m Mesh
	for _, f := range faces {
		n, u, v := f[0], f[1], f[2]
		base := uint32(m.VertexCount())
		for _, c := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			for k := 0; k < 3; k++ {
				m.Vertices = append(m.Vertices, h*(n[k]+c[0]*u[k]+c[1]*v[k]))
			}
			m.Vertices = append(m.Vertices, n[0], n[1], n[2])
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

// DartMesh builds a four-sided dart pointing along +Z, so an agent's forward vector reads at a glance.
// Every face gets its own vertices so normals stay flat.
//
// Parameters:
//   - length: tip to tail distance
//   - width: span of the tail diamond
//
// Returns:
//   - Mesh: 6 triangles
func DartMesh(length, width float32) Mesh {
	tip := [3]float32{0, 0, length * 0.6}
	tail := length * -0.4
	w := width / 2
	right := [3]float32{w, 0, tail}
	top := [3]float32{0, w * 0.5, tail}
	left := [3]float32{-w, 0, tail}
	bottom := [3]float32{0, -w * 0.5, tail}

	tris := [][3][3]float32{
		{tip, right, top},
		{tip, top, left},
		{tip, left, bottom},
		{tip, bottom, right},
		{right, bottom, left},
		{right, left, top},
	}

	var m Mesh
	for _, tri := range tris {
		n := faceNormal(tri[0], tri[1], tri[2])
		for _, p := range tri {
			m.Indices = append(m.Indices, uint32(m.VertexCount()))
			m.Vertices = append(m.Vertices, p[0], p[1], p[2], n[0], n[1], n[2])
		}
	}
	return m
}

func faceNormal(a, b, c [3]float32) [3]float32 {
	e1 := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	e2 := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	n := [3]float32{
		e1[1]*e2[2] - e1[2]*e2[1],
		e1[2]*e2[0] - e1[0]*e2[2],
		e1[0]*e2[1] - e1[1]*e2[0],
	}
	l := float32(math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])))
	if l == 0 {
		return n
	}
	return [3]float32{n[0] / l, n[1] / l, n[2] / l}
}
