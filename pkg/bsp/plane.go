// Package bsp partitions a zone mesh into a tree of regions.
//
// A Tree starts with one root Region holding every polygon of a mesh.
// A Strategy picks split planes; each Region.Split routes polygons to a front
// and a back child, clipping the ones that straddle the plane. Regions never
// copy geometry: they hold polygon indices into the shared mesh, and clipping
// appends new vertices and polygons to it.
package bsp

import (
	"fmt"
	stdmath "math"

	"github.com/Faultbox/midgard-zonebsp/pkg/math"
)

// Plane is the set of points p with Normal·p + D = 0.
// Points with a positive distance are in front of the plane.
type Plane struct {
	Normal math.Vec3
	D      float64
}

// unitTolerance bounds how far |Normal| may stray from 1.
const unitTolerance = 1e-6

// NewPlane builds a plane from any non-zero normal, rescaling d to match the
// normalized normal. It panics if the normal has no length.
func NewPlane(normal math.Vec3, d float64) Plane {
	l := normal.Length()
	if l == 0 || stdmath.IsNaN(l) || stdmath.IsInf(l, 0) {
		panic(fmt.Sprintf("bsp: degenerate plane normal %v", normal))
	}
	return Plane{Normal: normal.Scale(1 / l), D: d / l}
}

// PlaneThrough builds the plane with the given normal passing through point.
func PlaneThrough(normal, point math.Vec3) Plane {
	p := NewPlane(normal, 0)
	p.D = -p.Normal.Dot(point)
	return p
}

// AxisPlane builds the plane perpendicular to axis at coordinate at.
// Points with a larger coordinate are in front.
func AxisPlane(axis math.Axis, at float64) Plane {
	return Plane{Normal: axis.Unit(), D: -at}
}

// Distance returns the signed distance from p to the plane.
func (pl Plane) Distance(p math.Vec3) float64 {
	return pl.Normal.Dot(p) + pl.D
}

// Flip returns the same plane facing the other way.
func (pl Plane) Flip() Plane {
	return Plane{Normal: pl.Normal.Negate(), D: -pl.D}
}

// String formats the plane as "n=(x, y, z) d=D".
func (pl Plane) String() string {
	return fmt.Sprintf("n=(%g, %g, %g) d=%g", pl.Normal.X, pl.Normal.Y, pl.Normal.Z, pl.D)
}

// mustBeValid panics unless the plane has a finite unit normal and finite d.
func (pl Plane) mustBeValid() {
	l := pl.Normal.Length()
	if stdmath.IsNaN(l) || stdmath.Abs(l-1) > unitTolerance {
		panic(fmt.Sprintf("bsp: plane normal is not unit length: %v", pl))
	}
	if stdmath.IsNaN(pl.D) || stdmath.IsInf(pl.D, 0) {
		panic(fmt.Sprintf("bsp: plane distance is not finite: %v", pl))
	}
}
