package bsp

import (
	"sync"

	"github.com/Faultbox/midgard-zonebsp/pkg/mesh"
)

// parallelThreshold is the smallest polygon count worth classifying on
// several goroutines.
const parallelThreshold = 512

// space is the state shared by every region of one tree.
type space struct {
	mesh       *mesh.Mesh
	classifier Classifier
	workers    int
}

// Region is a node of the partition tree.
//
// A region holds polygon indices into the tree's mesh. Once split it gets up
// to two children and its own polygon list is no longer consulted: leaves
// are exactly the regions without children.
type Region struct {
	space    *space
	polygons []int
	depth    int

	plane    Plane // plane this region lies in front of
	hasPlane bool

	split    Plane
	hasSplit bool

	front *Region
	back  *Region
}

// SplitStats describes what one split did.
type SplitStats struct {
	Front       int // polygons routed unchanged to the front child
	Back        int // polygons routed unchanged to the back child
	Clipped     int // straddling polygons that were cut
	Dropped     int // clip sides discarded for having fewer than 3 vertices
	NewVertices int
	NewPolygons int
}

// Polygons returns the polygon indices held by the region.
// The slice must not be modified.
func (r *Region) Polygons() []int { return r.polygons }

// Depth returns the distance from the root.
func (r *Region) Depth() int { return r.depth }

// Front returns the front child or nil.
func (r *Region) Front() *Region { return r.front }

// Back returns the back child or nil.
func (r *Region) Back() *Region { return r.back }

// IsLeaf reports whether the region has no children.
func (r *Region) IsLeaf() bool { return r.front == nil && r.back == nil }

// Plane returns the plane the region lies in front of. The root has none.
func (r *Region) Plane() (Plane, bool) { return r.plane, r.hasPlane }

// SplitPlane returns the plane the region was split along, if any.
func (r *Region) SplitPlane() (Plane, bool) { return r.split, r.hasSplit }

// Split divides the region along pl.
//
// Polygons entirely in front go to the front child, those entirely behind go
// to the back child and straddling ones are clipped with the pieces routed to
// each side. A child is attached only if it receives a polygon; the back child
// stores the flipped plane. Splitting an empty region does nothing.
//
// Split panics on a degenerate plane or if the region was already split.
func (r *Region) Split(pl Plane) SplitStats {
	var stats SplitStats
	if len(r.polygons) == 0 {
		return stats
	}
	if r.hasSplit {
		panic("bsp: region already split")
	}

	m := r.space.mesh
	clipper := NewClipper(m, r.space.classifier, pl)
	vertsBefore, polysBefore := len(m.Vertices), len(m.Polygons)

	sides := r.space.classifyAll(r.polygons, pl)

	var front, back []int
	for i, poly := range r.polygons {
		switch sides[i] {
		case EntirelyFront:
			front = append(front, poly)
			stats.Front++
		case EntirelyBack:
			back = append(back, poly)
			stats.Back++
		default:
			res := clipper.Clip(poly)
			if res.HasFront {
				front = append(front, res.Front)
			}
			if res.HasBack {
				back = append(back, res.Back)
			}
			stats.Clipped++
			stats.Dropped += res.Dropped
		}
	}

	r.split, r.hasSplit = pl, true
	if len(front) > 0 {
		r.front = r.child(front, pl)
	}
	if len(back) > 0 {
		r.back = r.child(back, pl.Flip())
	}

	stats.NewVertices = len(m.Vertices) - vertsBefore
	stats.NewPolygons = len(m.Polygons) - polysBefore
	return stats
}

func (r *Region) child(polygons []int, pl Plane) *Region {
	return &Region{
		space:    r.space,
		polygons: polygons,
		depth:    r.depth + 1,
		plane:    pl,
		hasPlane: true,
	}
}

// classifyAll classifies polygons against pl, in parallel chunks when
// configured. It only reads the mesh.
func (s *space) classifyAll(polygons []int, pl Plane) []PolygonSide {
	sides := make([]PolygonSide, len(polygons))

	workers := s.workers
	if workers <= 1 || len(polygons) < parallelThreshold {
		for i, poly := range polygons {
			sides[i] = s.classifier.ClassifyPolygon(s.mesh, poly, pl)
		}
		return sides
	}

	chunk := (len(polygons) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(polygons); start += chunk {
		end := min(start+chunk, len(polygons))
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				sides[i] = s.classifier.ClassifyPolygon(s.mesh, polygons[i], pl)
			}
		}(start, end)
	}
	wg.Wait()
	return sides
}
