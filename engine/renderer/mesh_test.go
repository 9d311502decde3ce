package renderer

import (
	"math"
	"testing"
)

func TestMeshes(t *testing.T) {
	tests := []struct {
		name      string
		mesh      Mesh
		triangles int
	}{
		{"cube", CubeMesh(2), 12},
		{"dart", DartMesh(1, 0.35), 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.mesh
			if len(m.Vertices)%6 != 0 {
				t.Fatalf("vertex data length %d is not a multiple of 6", len(m.Vertices))
			}
			if got := len(m.Indices) / 3; got != tt.triangles {
				t.Fatalf("%d triangles, want %d", got, tt.triangles)
			}

			var centroid [3]float32
			for v := 0; v < m.VertexCount(); v++ {
				for k := 0; k < 3; k++ {
					centroid[k] += m.Vertices[v*6+k] / float32(m.VertexCount())
				}
			}

			for i := 0; i < len(m.Indices); i += 3 {
				var p [3][3]float32
				for j := 0; j < 3; j++ {
					idx := int(m.Indices[i+j])
					if idx >= m.VertexCount() {
						t.Fatalf("index %d out of range", idx)
					}
					copy(p[j][:], m.Vertices[idx*6:idx*6+3])
					n := m.Vertices[idx*6+3 : idx*6+6]
					l := math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]))
					if math.Abs(l-1) > 1e-5 {
						t.Errorf("vertex %d normal length %v", idx, l)
					}
				}

				// Counter-clockwise winding seen from outside points the face normal away from the centroid.
				n := faceNormal(p[0], p[1], p[2])
				var out float32
				for k := 0; k < 3; k++ {
					center := (p[0][k] + p[1][k] + p[2][k]) / 3
					out += n[k] * (center - centroid[k])
				}
				if out <= 0 {
					t.Errorf("triangle %d winds inward", i/3)
				}
			}
		})
	}
}

func TestDartPointsForward(t *testing.T) {
	m := DartMesh(2, 0.5)
	var maxZ, minZ float32
	for v := 0; v < m.VertexCount(); v++ {
		z := m.Vertices[v*6+2]
		maxZ = max(maxZ, z)
		minZ = min(minZ, z)
	}
	if maxZ <= -minZ {
		t.Errorf("tip at z=%v does not reach further than tail at z=%v", maxZ, minZ)
	}
}
