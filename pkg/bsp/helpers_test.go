package bsp

import (
	stdmath "math"
	"testing"

	"github.com/Faultbox/midgard-zonebsp/pkg/math"
	"github.com/Faultbox/midgard-zonebsp/pkg/mesh"
)

const tolerance = 1e-9

func approx(a, b float64) bool {
	return stdmath.Abs(a-b) <= tolerance*stdmath.Max(1, stdmath.Max(stdmath.Abs(a), stdmath.Abs(b)))
}

func vec(x, y, z float64) math.Vec3 {
	return math.Vec3{X: x, Y: y, Z: z}
}

// addPolygon appends fresh vertices for pts and a polygon over them.
func addPolygon(t *testing.T, m *mesh.Mesh, material int, pts ...math.Vec3) int {
	t.Helper()
	indices := make([]int, len(pts))
	for i, p := range pts {
		indices[i] = m.AddVertex(p)
	}
	idx, err := m.AddPolygon(indices, material)
	if err != nil {
		t.Fatalf("AddPolygon failed: %v", err)
	}
	return idx
}

// createSquare returns a mesh holding the 10x10 square in the z=0 plane.
func createSquare(t *testing.T) *mesh.Mesh {
	t.Helper()
	m := mesh.New()
	addPolygon(t, m, 3, vec(0, 0, 0), vec(10, 0, 0), vec(10, 10, 0), vec(0, 10, 0))
	return m
}

// createCube returns the six faces of the cube [0,size]^3 over 8 shared vertices.
func createCube(t *testing.T, size float64) *mesh.Mesh {
	t.Helper()
	m := mesh.New()
	for i := 0; i < 8; i++ {
		m.AddVertex(vec(
			float64(i&1)*size,
			float64((i>>1)&1)*size,
			float64((i>>2)&1)*size,
		))
	}
	faces := [][]int{
		{0, 2, 6, 4}, // x=0
		{1, 5, 7, 3}, // x=size
		{0, 4, 5, 1}, // y=0
		{2, 3, 7, 6}, // y=size
		{0, 1, 3, 2}, // z=0
		{4, 6, 7, 5}, // z=size
	}
	for i, f := range faces {
		if _, err := m.AddPolygon(f, i); err != nil {
			t.Fatalf("AddPolygon failed: %v", err)
		}
	}
	return m
}

// createGrid returns n*n quads of the given cell size in the z=0 plane,
// sharing corner vertices.
func createGrid(t *testing.T, n int, cell float64) *mesh.Mesh {
	t.Helper()
	m := mesh.New()
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			m.AddVertex(vec(float64(x)*cell, float64(y)*cell, 0))
		}
	}
	at := func(x, y int) int { return y*(n+1) + x }
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			quad := []int{at(x, y), at(x+1, y), at(x+1, y+1), at(x, y+1)}
			if _, err := m.AddPolygon(quad, (x+y)%4); err != nil {
				t.Fatalf("AddPolygon failed: %v", err)
			}
		}
	}
	return m
}

func totalArea(m *mesh.Mesh, polys []int) float64 {
	var sum float64
	for _, p := range polys {
		sum += m.Area(p)
	}
	return sum
}
