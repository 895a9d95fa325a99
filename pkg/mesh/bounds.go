package mesh

import (
	stdmath "math"

	"github.com/Faultbox/midgard-zonebsp/pkg/math"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// EmptyBounds returns an inverted box that any point will grow.
func EmptyBounds() Bounds {
	inf := stdmath.Inf(1)
	return Bounds{
		Min: math.Vec3{X: inf, Y: inf, Z: inf},
		Max: math.Vec3{X: -inf, Y: -inf, Z: -inf},
	}
}

// IsEmpty reports whether the box contains no point.
func (b Bounds) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Extend grows the box to contain p.
func (b Bounds) Extend(p math.Vec3) Bounds {
	return Bounds{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Extent returns the size of the box along an axis.
func (b Bounds) Extent(a math.Axis) float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.Max.Component(a) - b.Min.Component(a)
}

// Center returns the midpoint of the box.
func (b Bounds) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Bounds returns the box around every vertex referenced by a polygon.
// Vertices no polygon uses do not count.
func (m *Mesh) Bounds() Bounds {
	b := EmptyBounds()
	for i := range m.Polygons {
		b = m.extendPolygon(b, i)
	}
	return b
}

// PolygonBounds returns the box around the given polygons.
func (m *Mesh) PolygonBounds(polys []int) Bounds {
	b := EmptyBounds()
	for _, i := range polys {
		b = m.extendPolygon(b, i)
	}
	return b
}

func (m *Mesh) extendPolygon(b Bounds, i int) Bounds {
	for _, idx := range m.Polygons[i].Indices {
		b = b.Extend(m.Vertices[idx])
	}
	return b
}
