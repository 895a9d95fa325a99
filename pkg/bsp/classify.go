package bsp

import (
	"github.com/Faultbox/midgard-zonebsp/pkg/math"
	"github.com/Faultbox/midgard-zonebsp/pkg/mesh"
)

// DefaultEpsilon is the on-plane tolerance used when none is configured.
const DefaultEpsilon = 1e-5

// Side is the position of a point relative to a plane.
type Side uint8

// Point sides.
const (
	On Side = iota
	Front
	Back
)

// String returns the side name.
func (s Side) String() string {
	switch s {
	case Front:
		return "front"
	case Back:
		return "back"
	default:
		return "on"
	}
}

// PolygonSide is the position of a whole polygon relative to a plane.
type PolygonSide uint8

// Polygon sides.
const (
	EntirelyFront PolygonSide = iota
	EntirelyBack
	Straddling
)

// String returns the polygon side name.
func (s PolygonSide) String() string {
	switch s {
	case EntirelyFront:
		return "front"
	case EntirelyBack:
		return "back"
	default:
		return "straddling"
	}
}

// Classifier places points and polygons against planes.
// Points closer to the plane than Epsilon are On it.
type Classifier struct {
	Epsilon float64
}

// NewClassifier returns a classifier using eps, or DefaultEpsilon if eps <= 0.
func NewClassifier(eps float64) Classifier {
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	return Classifier{Epsilon: eps}
}

// ClassifyPoint returns the signed distance of p from the plane and its side.
func (c Classifier) ClassifyPoint(p math.Vec3, pl Plane) (float64, Side) {
	d := pl.Distance(p)
	switch {
	case d >= c.Epsilon:
		return d, Front
	case d <= -c.Epsilon:
		return d, Back
	default:
		return d, On
	}
}

// ClassifyPolygon places polygon poly of m against the plane.
// A polygon lying in the plane counts as front.
func (c Classifier) ClassifyPolygon(m *mesh.Mesh, poly int, pl Plane) PolygonSide {
	var front, back bool
	for _, idx := range m.Polygons[poly].Indices {
		_, s := c.ClassifyPoint(m.Vertices[idx], pl)
		switch s {
		case Front:
			front = true
		case Back:
			back = true
		}
		if front && back {
			return Straddling
		}
	}
	if back {
		return EntirelyBack
	}
	return EntirelyFront
}

// polygonSide reduces per-vertex sides to a polygon side.
func polygonSide(sides []Side) PolygonSide {
	var front, back bool
	for _, s := range sides {
		switch s {
		case Front:
			front = true
		case Back:
			back = true
		}
	}
	switch {
	case front && back:
		return Straddling
	case back:
		return EntirelyBack
	default:
		return EntirelyFront
	}
}
