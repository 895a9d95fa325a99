package bsp

import (
	"errors"
	"fmt"
	stdmath "math"
	"slices"

	"github.com/Faultbox/midgard-zonebsp/pkg/math"
)

// DefaultRegionSize is the leaf extent used by the legacy zone exporter.
const DefaultRegionSize = 12.8

// ErrInvalidRegionSize is returned for a non-positive or non-finite region size.
var ErrInvalidRegionSize = errors.New("region size must be positive")

// DefaultAxes is the order in which AxisGrid processes axes.
var DefaultAxes = []math.Axis{math.AxisX, math.AxisY, math.AxisZ}

// AxisGrid bisects regions at the midpoint of their extent, one axis at a
// time, until no region is wider than RegionSize along any processed axis.
//
// Axes are handled one after another: every split along the first axis is
// done before the second axis is touched. The zone format expects the tree in
// that shape.
type AxisGrid struct {
	RegionSize float64
	Axes       []math.Axis

	// MinPolygons stops subdivision of regions holding this many polygons
	// or fewer. Zero disables the check.
	MinPolygons int
}

// NewAxisGrid returns an AxisGrid with the default axis order.
func NewAxisGrid(regionSize float64) *AxisGrid {
	return &AxisGrid{
		RegionSize: regionSize,
		Axes:       slices.Clone(DefaultAxes),
	}
}

// span is a pending bisection of a region over [lo, hi] on one axis.
type span struct {
	region *Region
	lo, hi float64
}

// Partition implements Strategy.
func (g *AxisGrid) Partition(t *Tree) error {
	if !(g.RegionSize > 0) || stdmath.IsInf(g.RegionSize, 0) {
		return fmt.Errorf("%w: %g", ErrInvalidRegionSize, g.RegionSize)
	}
	axes := g.Axes
	if len(axes) == 0 {
		axes = DefaultAxes
	}

	root := t.Root()
	bounds := t.Mesh().PolygonBounds(root.Polygons())

	for _, axis := range axes {
		lo, hi := bounds.Min.Component(axis), bounds.Max.Component(axis)
		leaves := slices.Collect(t.Leaves())
		for _, leaf := range leaves {
			g.bisect(leaf, axis, lo, hi)
		}
	}
	return nil
}

// bisect splits r along axis until every descendant spans at most
// RegionSize. Each step halves the span, so it stops after about
// log2((hi-lo)/RegionSize) levels. The work stack pops front children first,
// giving the same mesh append order as a recursive front-then-back walk.
func (g *AxisGrid) bisect(r *Region, axis math.Axis, lo, hi float64) {
	stack := []span{{region: r, lo: lo, hi: hi}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if s.hi-s.lo <= g.RegionSize {
			continue
		}
		if g.MinPolygons > 0 && len(s.region.Polygons()) <= g.MinPolygons {
			continue
		}

		mid := (s.lo + s.hi) / 2
		s.region.Split(AxisPlane(axis, mid))

		if back := s.region.Back(); back != nil {
			stack = append(stack, span{region: back, lo: s.lo, hi: mid})
		}
		if front := s.region.Front(); front != nil {
			stack = append(stack, span{region: front, lo: mid, hi: s.hi})
		}
	}
}
