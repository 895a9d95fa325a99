// Package mesh holds zone geometry as an append-only vertex and polygon store.
//
// Everything else refers to geometry by index into a Mesh. Vertices and
// polygons are only ever appended, so an index stays valid for the lifetime
// of the mesh. A Mesh has a single writer; concurrent reads are safe only
// while nothing appends.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-zonebsp/pkg/math"
)

// Mesh errors.
var (
	ErrDegeneratePolygon = errors.New("polygon has fewer than 3 vertices")
	ErrVertexOutOfRange  = errors.New("vertex index out of range")
)

// NoMaterial marks a polygon without a material.
const NoMaterial = -1

// Polygon is an ordered loop of vertex indices with an opaque material handle.
type Polygon struct {
	Indices  []int
	Material int // handle into the external material table, never interpreted
}

// Mesh owns the vertices and polygons of a zone.
type Mesh struct {
	Vertices  []math.Vec3
	Polygons  []Polygon
	Materials []string // optional names for Polygon.Material handles
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// AddVertex appends a vertex and returns its index.
func (m *Mesh) AddVertex(v math.Vec3) int {
	m.Vertices = append(m.Vertices, v)
	return len(m.Vertices) - 1
}

// AddPolygon appends a polygon and returns its index.
// The index slice is copied.
func (m *Mesh) AddPolygon(indices []int, material int) (int, error) {
	if len(indices) < 3 {
		return -1, fmt.Errorf("%w: got %d", ErrDegeneratePolygon, len(indices))
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(m.Vertices) {
			return -1, fmt.Errorf("%w: %d (have %d)", ErrVertexOutOfRange, idx, len(m.Vertices))
		}
	}

	m.Polygons = append(m.Polygons, Polygon{
		Indices:  append([]int(nil), indices...),
		Material: material,
	})
	return len(m.Polygons) - 1, nil
}

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i int) math.Vec3 {
	return m.Vertices[i]
}

// Polygon returns polygon i.
func (m *Mesh) Polygon(i int) *Polygon {
	return &m.Polygons[i]
}

// Positions returns the vertex positions of polygon i in winding order.
func (m *Mesh) Positions(i int) []math.Vec3 {
	p := &m.Polygons[i]
	out := make([]math.Vec3, len(p.Indices))
	for j, idx := range p.Indices {
		out[j] = m.Vertices[idx]
	}
	return out
}

// MaterialName returns the name behind a material handle, or "" if unknown.
func (m *Mesh) MaterialName(material int) string {
	if material < 0 || material >= len(m.Materials) {
		return ""
	}
	return m.Materials[material]
}

// Validate checks that every polygon has at least 3 in-range vertex indices.
func (m *Mesh) Validate() error {
	for i, p := range m.Polygons {
		if len(p.Indices) < 3 {
			return fmt.Errorf("polygon %d: %w", i, ErrDegeneratePolygon)
		}
		for _, idx := range p.Indices {
			if idx < 0 || idx >= len(m.Vertices) {
				return fmt.Errorf("polygon %d: %w: %d", i, ErrVertexOutOfRange, idx)
			}
		}
	}
	return nil
}

// Area returns the area of polygon i using the Newell cross-product sum.
// Works for any planar simple polygon regardless of orientation in space.
func (m *Mesh) Area(i int) float64 {
	return PolygonArea(m.Positions(i))
}

// PolygonArea returns the area of a planar polygon given its corners.
func PolygonArea(pts []math.Vec3) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum math.Vec3
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum = sum.Add(p.Cross(q))
	}
	return sum.Length() / 2
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Vertices:  append([]math.Vec3(nil), m.Vertices...),
		Polygons:  make([]Polygon, len(m.Polygons)),
		Materials: append([]string(nil), m.Materials...),
	}
	for i, p := range m.Polygons {
		out.Polygons[i] = Polygon{
			Indices:  append([]int(nil), p.Indices...),
			Material: p.Material,
		}
	}
	return out
}
