package bsp

import (
	"errors"
	"fmt"
	"iter"

	"github.com/Faultbox/midgard-zonebsp/pkg/mesh"
)

// Tree errors.
var (
	ErrEmptyMesh      = errors.New("mesh has no polygons")
	ErrAlreadyBuilt   = errors.New("tree already built")
	ErrInvalidTree    = errors.New("invalid region tree")
	ErrInvalidEpsilon = errors.New("epsilon must be positive")
)

// Strategy decides where a tree is split. Implementations call Region.Split
// on the tree's regions; they must not touch the mesh directly.
type Strategy interface {
	Partition(t *Tree) error
}

// Option configures a Tree.
type Option func(*options)

type options struct {
	epsilon float64
	workers int
}

// WithEpsilon sets the on-plane tolerance used by every split.
func WithEpsilon(eps float64) Option {
	return func(o *options) { o.epsilon = eps }
}

// WithWorkers sets how many goroutines classify polygons within one split.
// Values below 2 keep classification on the calling goroutine.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Tree is a region tree over one mesh.
type Tree struct {
	space *space
	root  *Region
	built bool
}

// Stats summarises a tree.
type Stats struct {
	Regions      int
	Leaves       int
	MaxDepth     int
	LeafPolygons int // polygon references held by leaves
	Vertices     int // mesh vertex count
	Polygons     int // mesh polygon count, superseded polygons included
}

// New returns a tree whose root holds every polygon of m.
func New(m *mesh.Mesh, opts ...Option) (*Tree, error) {
	o := options{epsilon: DefaultEpsilon, workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.epsilon <= 0 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidEpsilon, o.epsilon)
	}
	if m == nil || len(m.Polygons) == 0 {
		return nil, ErrEmptyMesh
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("validating mesh: %w", err)
	}

	s := &space{
		mesh:       m,
		classifier: Classifier{Epsilon: o.epsilon},
		workers:    o.workers,
	}

	polygons := make([]int, len(m.Polygons))
	for i := range polygons {
		polygons[i] = i
	}

	return &Tree{
		space: s,
		root:  &Region{space: s, polygons: polygons},
	}, nil
}

// Subdivide builds a tree over m with strategy s.
func Subdivide(m *mesh.Mesh, s Strategy, opts ...Option) (*Tree, error) {
	t, err := New(m, opts...)
	if err != nil {
		return nil, err
	}
	if err := t.Build(s); err != nil {
		return nil, err
	}
	return t, nil
}

// Build runs the strategy once and validates the result.
func (t *Tree) Build(s Strategy) error {
	if t.built {
		return ErrAlreadyBuilt
	}
	t.built = true

	if err := s.Partition(t); err != nil {
		return fmt.Errorf("partitioning: %w", err)
	}
	return t.Validate()
}

// Root returns the root region.
func (t *Tree) Root() *Region { return t.root }

// Mesh returns the mesh the tree indexes into.
func (t *Tree) Mesh() *mesh.Mesh { return t.space.mesh }

// Classifier returns the classifier used by every split of the tree.
func (t *Tree) Classifier() Classifier { return t.space.classifier }

// Leaves yields every leaf depth-first, front before back.
func (t *Tree) Leaves() iter.Seq[*Region] {
	return func(yield func(*Region) bool) {
		stack := []*Region{t.root}
		for len(stack) > 0 {
			r := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if r.IsLeaf() {
				if !yield(r) {
					return
				}
				continue
			}
			if r.back != nil {
				stack = append(stack, r.back)
			}
			if r.front != nil {
				stack = append(stack, r.front)
			}
		}
	}
}

// LeafPaths yields every leaf with the planes bounding it, root first.
// Each yielded slice is a fresh copy.
func (t *Tree) LeafPaths() iter.Seq2[*Region, []Plane] {
	return func(yield func(*Region, []Plane) bool) {
		var walk func(r *Region, path []Plane) bool
		walk = func(r *Region, path []Plane) bool {
			if pl, ok := r.Plane(); ok {
				path = append(path, pl)
			}
			if r.IsLeaf() {
				return yield(r, append([]Plane(nil), path...))
			}
			if r.front != nil && !walk(r.front, path) {
				return false
			}
			if r.back != nil && !walk(r.back, path) {
				return false
			}
			return true
		}
		walk(t.root, nil)
	}
}

// Stats walks the tree and counts regions, leaves and depth.
func (t *Tree) Stats() Stats {
	st := Stats{
		Vertices: len(t.space.mesh.Vertices),
		Polygons: len(t.space.mesh.Polygons),
	}
	stack := []*Region{t.root}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		st.Regions++
		st.MaxDepth = max(st.MaxDepth, r.depth)
		if r.IsLeaf() {
			st.Leaves++
			st.LeafPolygons += len(r.polygons)
			continue
		}
		if r.front != nil {
			stack = append(stack, r.front)
		}
		if r.back != nil {
			stack = append(stack, r.back)
		}
	}
	return st
}

// Validate checks that every leaf holds at least one polygon and that every
// leaf polygon is well formed.
func (t *Tree) Validate() error {
	m := t.space.mesh
	id := 0
	for leaf := range t.Leaves() {
		if len(leaf.polygons) == 0 {
			return fmt.Errorf("%w: leaf %d is empty", ErrInvalidTree, id)
		}
		for _, poly := range leaf.polygons {
			if poly < 0 || poly >= len(m.Polygons) {
				return fmt.Errorf("%w: leaf %d references polygon %d (have %d)",
					ErrInvalidTree, id, poly, len(m.Polygons))
			}
			p := &m.Polygons[poly]
			if len(p.Indices) < 3 {
				return fmt.Errorf("%w: leaf %d polygon %d has %d vertices",
					ErrInvalidTree, id, poly, len(p.Indices))
			}
			for _, v := range p.Indices {
				if v < 0 || v >= len(m.Vertices) {
					return fmt.Errorf("%w: leaf %d polygon %d references vertex %d",
						ErrInvalidTree, id, poly, v)
				}
			}
		}
		id++
	}
	return nil
}
