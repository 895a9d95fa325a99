package mesh

import (
	"errors"
	stdmath "math"
	"testing"

	"github.com/Faultbox/midgard-zonebsp/pkg/math"
)

// createSquare builds a 10x10 square in the z=0 plane.
func createSquare(t *testing.T) *Mesh {
	t.Helper()
	m := New()
	a := m.AddVertex(math.Vec3{X: 0, Y: 0, Z: 0})
	b := m.AddVertex(math.Vec3{X: 10, Y: 0, Z: 0})
	c := m.AddVertex(math.Vec3{X: 10, Y: 10, Z: 0})
	d := m.AddVertex(math.Vec3{X: 0, Y: 10, Z: 0})
	if _, err := m.AddPolygon([]int{a, b, c, d}, 7); err != nil {
		t.Fatalf("AddPolygon failed: %v", err)
	}
	return m
}

func TestAddVertex_StableIndices(t *testing.T) {
	m := New()
	for i := 0; i < 5; i++ {
		if got := m.AddVertex(math.Vec3{X: float64(i)}); got != i {
			t.Errorf("AddVertex #%d returned %d", i, got)
		}
	}
	if m.Vertex(3).X != 3 {
		t.Errorf("vertex 3 moved: %v", m.Vertex(3))
	}
}

func TestAddPolygon_Errors(t *testing.T) {
	m := New()
	m.AddVertex(math.Vec3{})
	m.AddVertex(math.Vec3{X: 1})
	m.AddVertex(math.Vec3{Y: 1})

	tests := []struct {
		name    string
		indices []int
		want    error
	}{
		{"too few", []int{0, 1}, ErrDegeneratePolygon},
		{"negative", []int{0, 1, -1}, ErrVertexOutOfRange},
		{"past end", []int{0, 1, 3}, ErrVertexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.AddPolygon(tt.indices, NoMaterial)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if len(m.Polygons) != 0 {
		t.Errorf("rejected polygons were stored: %d", len(m.Polygons))
	}
}

func TestAddPolygon_CopiesIndices(t *testing.T) {
	m := New()
	for i := 0; i < 3; i++ {
		m.AddVertex(math.Vec3{X: float64(i), Y: float64(i * i)})
	}
	indices := []int{0, 1, 2}
	p, err := m.AddPolygon(indices, 2)
	if err != nil {
		t.Fatalf("AddPolygon failed: %v", err)
	}
	indices[0] = 2
	if m.Polygon(p).Indices[0] != 0 {
		t.Error("polygon shares the caller's slice")
	}
	if m.Polygon(p).Material != 2 {
		t.Errorf("expected material 2, got %d", m.Polygon(p).Material)
	}
}

func TestValidate(t *testing.T) {
	m := createSquare(t)
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate failed on a good mesh: %v", err)
	}

	m.Polygons[0].Indices[2] = 99
	if err := m.Validate(); !errors.Is(err, ErrVertexOutOfRange) {
		t.Errorf("expected ErrVertexOutOfRange, got %v", err)
	}

	m.Polygons[0].Indices = []int{0, 1}
	if err := m.Validate(); !errors.Is(err, ErrDegeneratePolygon) {
		t.Errorf("expected ErrDegeneratePolygon, got %v", err)
	}
}

func TestArea(t *testing.T) {
	m := createSquare(t)
	if got := m.Area(0); stdmath.Abs(got-100) > 1e-9 {
		t.Errorf("expected area 100, got %f", got)
	}

	// Same square standing upright in the x=3 plane.
	upright := []math.Vec3{
		{X: 3, Y: 0, Z: 0},
		{X: 3, Y: 10, Z: 0},
		{X: 3, Y: 10, Z: 10},
		{X: 3, Y: 0, Z: 10},
	}
	if got := PolygonArea(upright); stdmath.Abs(got-100) > 1e-9 {
		t.Errorf("expected upright area 100, got %f", got)
	}

	if got := PolygonArea(upright[:2]); got != 0 {
		t.Errorf("expected 0 for a segment, got %f", got)
	}
}

func TestBounds(t *testing.T) {
	m := createSquare(t)
	// Unreferenced vertex must not widen the box.
	m.AddVertex(math.Vec3{X: 500, Y: 500, Z: 500})

	b := m.Bounds()
	if b.Min != (math.Vec3{}) || b.Max != (math.Vec3{X: 10, Y: 10}) {
		t.Errorf("unexpected bounds %+v", b)
	}
	if b.Extent(math.AxisX) != 10 || b.Extent(math.AxisZ) != 0 {
		t.Errorf("unexpected extents %f %f", b.Extent(math.AxisX), b.Extent(math.AxisZ))
	}
	if c := b.Center(); c != (math.Vec3{X: 5, Y: 5}) {
		t.Errorf("unexpected center %v", c)
	}
}

func TestBounds_Empty(t *testing.T) {
	b := New().Bounds()
	if !b.IsEmpty() {
		t.Error("expected empty bounds for an empty mesh")
	}
	if b.Extent(math.AxisY) != 0 {
		t.Errorf("expected zero extent, got %f", b.Extent(math.AxisY))
	}
}

func TestMaterialName(t *testing.T) {
	m := &Mesh{Materials: []string{"grass.bmp", "stone.bmp"}}
	if got := m.MaterialName(1); got != "stone.bmp" {
		t.Errorf("expected stone.bmp, got %q", got)
	}
	if got := m.MaterialName(NoMaterial); got != "" {
		t.Errorf("expected empty name, got %q", got)
	}
	if got := m.MaterialName(5); got != "" {
		t.Errorf("expected empty name, got %q", got)
	}
}

func TestClone(t *testing.T) {
	m := createSquare(t)
	m.Materials = []string{"a"}
	c := m.Clone()

	c.Polygons[0].Indices[0] = 3
	c.AddVertex(math.Vec3{X: 1})
	c.Materials[0] = "b"

	if m.Polygons[0].Indices[0] != 0 || len(m.Vertices) != 4 || m.Materials[0] != "a" {
		t.Error("clone shares state with the original")
	}
}
