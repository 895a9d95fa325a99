package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/midgard-zonebsp/pkg/bsp"
	"github.com/Faultbox/midgard-zonebsp/pkg/math"
	"github.com/Faultbox/midgard-zonebsp/pkg/mesh"
)

// floorTree partitions a 20x20 floor at y=0 into four 10x10 leaves.
func floorTree(t *testing.T) *bsp.Tree {
	t.Helper()

	m := mesh.New()
	m.Materials = []string{"grass.bmp"}
	a := m.AddVertex(math.Vec3{X: 0, Z: 0})
	b := m.AddVertex(math.Vec3{X: 20, Z: 0})
	c := m.AddVertex(math.Vec3{X: 20, Z: 20})
	d := m.AddVertex(math.Vec3{X: 0, Z: 20})
	if _, err := m.AddPolygon([]int{a, b, c, d}, 0); err != nil {
		t.Fatalf("AddPolygon: %v", err)
	}

	tree, err := bsp.Subdivide(m, bsp.NewAxisGrid(bsp.DefaultRegionSize))
	if err != nil {
		t.Fatalf("Subdivide: %v", err)
	}
	return tree
}

func TestBuild_Totals(t *testing.T) {
	r := Build(floorTree(t), Options{Zone: "floor", RegionSize: bsp.DefaultRegionSize})

	want := Totals{
		Regions:      7,
		Leaves:       4,
		MaxDepth:     2,
		LeafPolygons: 4,
		Vertices:     r.Totals.Vertices,
		Polygons:     r.Totals.Polygons,
		LeafArea:     r.Totals.LeafArea,
		MaxLeafSize:  1,
	}
	if r.Totals != want {
		t.Errorf("expected totals %+v, got %+v", want, r.Totals)
	}
	if d := r.Totals.LeafArea - 400; d > 1e-9 || d < -1e-9 {
		t.Errorf("expected leaf area 400, got %f", r.Totals.LeafArea)
	}
	if len(r.Leaves) != 4 {
		t.Fatalf("expected 4 leaves, got %d", len(r.Leaves))
	}
	if r.Zone != "floor" || r.RegionSize != 12.8 {
		t.Errorf("unexpected header %q %g", r.Zone, r.RegionSize)
	}
}

func TestBuild_Leaves(t *testing.T) {
	r := Build(floorTree(t), Options{})

	for i, leaf := range r.Leaves {
		if leaf.ID != i {
			t.Errorf("leaf %d has id %d", i, leaf.ID)
		}
		if leaf.Depth != 2 || leaf.Polygons != 1 {
			t.Errorf("leaf %d: depth %d, polygons %d", i, leaf.Depth, leaf.Polygons)
		}
		if len(leaf.Materials) != 1 || leaf.Materials[0] != "grass.bmp" {
			t.Errorf("leaf %d materials %v", i, leaf.Materials)
		}
		if leaf.Planes != nil {
			t.Errorf("leaf %d has planes without IncludePlanes", i)
		}
	}

	// Front of x=10, then front of z=10.
	first := r.Leaves[0].Bounds
	if first.Min != [3]float64{10, 0, 10} || first.Max != [3]float64{20, 0, 20} {
		t.Errorf("unexpected first leaf bounds %+v", first)
	}
}

func TestBuild_Planes(t *testing.T) {
	r := Build(floorTree(t), Options{IncludePlanes: true})

	want := []Plane{
		{Normal: [3]float64{1, 0, 0}, D: -10},
		{Normal: [3]float64{0, 0, 1}, D: -10},
	}
	got := r.Leaves[0].Planes
	if len(got) != len(want) {
		t.Fatalf("expected %d planes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("plane %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	// The last leaf is behind both planes.
	last := r.Leaves[len(r.Leaves)-1].Planes
	if last[0].Normal != [3]float64{-1, 0, 0} || last[0].D != 10 {
		t.Errorf("unexpected back plane %+v", last[0])
	}
}

func TestEncode(t *testing.T) {
	r := Build(floorTree(t), Options{Zone: "floor", IncludePlanes: true})

	var buf bytes.Buffer
	if err := r.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"zone: floor", "totals:", "leaf_polygons: 4", "materials: [grass.bmp]", "normal: [1, 0, 0]"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestWriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "floor.yaml")
	r := Build(floorTree(t), Options{Zone: "floor"})

	if err := r.Write(path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Totals != r.Totals || len(loaded.Leaves) != len(r.Leaves) {
		t.Errorf("loaded report differs: %+v", loaded.Totals)
	}
	if loaded.Leaves[3].Bounds != r.Leaves[3].Bounds {
		t.Errorf("leaf bounds differ: %+v vs %+v", loaded.Leaves[3].Bounds, r.Leaves[3].Bounds)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing report")
	}
}
