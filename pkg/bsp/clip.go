package bsp

import (
	"fmt"
	stdmath "math"

	"github.com/Faultbox/midgard-zonebsp/pkg/mesh"
)

// ClipResult holds the pieces of a polygon on each side of a plane.
// Front and Back are polygon indices, valid only when the matching Has flag
// is set.
type ClipResult struct {
	Front    int
	Back     int
	HasFront bool
	HasBack  bool

	// Dropped counts sides that came out with fewer than 3 vertices.
	Dropped int
}

// edge identifies a mesh edge independent of walking direction.
type edge struct {
	lo, hi int
}

// Clipper cuts polygons of a mesh against one plane.
//
// Vertices created on an edge are remembered, so two polygons sharing that
// edge get the same seam vertex. A Clipper appends to its mesh and must not
// be used concurrently.
type Clipper struct {
	mesh       *mesh.Mesh
	classifier Classifier
	plane      Plane
	seams      map[edge]int
}

// NewClipper returns a clipper for plane pl. It panics on a degenerate plane.
func NewClipper(m *mesh.Mesh, c Classifier, pl Plane) *Clipper {
	pl.mustBeValid()
	return &Clipper{
		mesh:       m,
		classifier: c,
		plane:      pl,
		seams:      make(map[edge]int),
	}
}

// Clip is a shorthand for NewClipper(m, c, pl).Clip(poly).
func Clip(m *mesh.Mesh, c Classifier, poly int, pl Plane) ClipResult {
	return NewClipper(m, c, pl).Clip(poly)
}

// Clip splits polygon poly against the clipper's plane.
//
// A polygon entirely on one side comes back unchanged on that side. A
// straddling polygon is cut into new polygons appended to the mesh; the
// original is left in place and should no longer be referenced.
func (c *Clipper) Clip(poly int) ClipResult {
	src := c.mesh.Polygons[poly]
	n := len(src.Indices)

	dists := make([]float64, n)
	sides := make([]Side, n)
	for i, idx := range src.Indices {
		dists[i], sides[i] = c.classifier.ClassifyPoint(c.mesh.Vertices[idx], c.plane)
	}

	switch polygonSide(sides) {
	case EntirelyFront:
		return ClipResult{Front: poly, HasFront: true}
	case EntirelyBack:
		return ClipResult{Back: poly, HasBack: true}
	}

	front := make([]int, 0, n+2)
	back := make([]int, 0, n+2)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cur := src.Indices[i]

		switch sides[i] {
		case Front:
			front = append(front, cur)
		case Back:
			back = append(back, cur)
		default:
			front = append(front, cur)
			back = append(back, cur)
		}

		if crosses(sides[i], sides[j]) {
			v := c.seam(cur, src.Indices[j], dists[i], dists[j])
			front = append(front, v)
			back = append(back, v)
		}
	}

	res := ClipResult{Front: -1, Back: -1}
	if len(front) >= 3 {
		res.Front, res.HasFront = c.emit(front, src.Material), true
	} else {
		res.Dropped++
	}
	if len(back) >= 3 {
		res.Back, res.HasBack = c.emit(back, src.Material), true
	} else {
		res.Dropped++
	}
	return res
}

// crosses reports whether an edge goes strictly from one side to the other.
func crosses(a, b Side) bool {
	return (a == Front && b == Back) || (a == Back && b == Front)
}

// seam returns the vertex where edge a-b meets the plane, creating it once.
// Interpolation always runs from the lower vertex index so the result does
// not depend on which polygon reached the edge first.
func (c *Clipper) seam(a, b int, da, db float64) int {
	key := edge{lo: a, hi: b}
	if a > b {
		key = edge{lo: b, hi: a}
		da, db = db, da
	}
	if v, ok := c.seams[key]; ok {
		return v
	}

	t := stdmath.Abs(da) / (stdmath.Abs(da) + stdmath.Abs(db))
	p := c.mesh.Vertices[key.lo].Lerp(c.mesh.Vertices[key.hi], t)
	v := c.mesh.AddVertex(p)
	c.seams[key] = v
	return v
}

func (c *Clipper) emit(indices []int, material int) int {
	idx, err := c.mesh.AddPolygon(indices, material)
	if err != nil {
		// Only reachable if the mesh was corrupted under us.
		panic(fmt.Sprintf("bsp: clip produced an invalid polygon: %v", err))
	}
	return idx
}
