// Package report summarises a region tree as a YAML document for inspection.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-zonebsp/internal/logger"
	"github.com/Faultbox/midgard-zonebsp/pkg/bsp"
	"github.com/Faultbox/midgard-zonebsp/pkg/math"
	"github.com/Faultbox/midgard-zonebsp/pkg/mesh"
)

// Options controls what Build records per leaf.
type Options struct {
	Zone          string // source name written into the header
	RegionSize    float64
	IncludePlanes bool
}

// Report is the document written by Write.
type Report struct {
	Zone       string  `yaml:"zone,omitempty"`
	RegionSize float64 `yaml:"region_size,omitempty"`
	Totals     Totals  `yaml:"totals"`
	Leaves     []Leaf  `yaml:"leaves"`
}

// Totals mirrors bsp.Stats plus derived figures.
type Totals struct {
	Regions      int     `yaml:"regions"`
	Leaves       int     `yaml:"leaves"`
	MaxDepth     int     `yaml:"max_depth"`
	LeafPolygons int     `yaml:"leaf_polygons"`
	Vertices     int     `yaml:"vertices"`
	Polygons     int     `yaml:"polygons"`
	LeafArea     float64 `yaml:"leaf_area"`
	MaxLeafSize  int     `yaml:"max_leaf_polygons"`
}

// Leaf describes one leaf region. IDs follow depth-first order, front first.
type Leaf struct {
	ID        int      `yaml:"id"`
	Depth     int      `yaml:"depth"`
	Polygons  int      `yaml:"polygons"`
	Area      float64  `yaml:"area"`
	Bounds    Box      `yaml:"bounds"`
	Materials []string `yaml:"materials,omitempty,flow"`
	Planes    []Plane  `yaml:"planes,omitempty"`
}

// Box is an axis-aligned box as two corners.
type Box struct {
	Min [3]float64 `yaml:"min,flow"`
	Max [3]float64 `yaml:"max,flow"`
}

// Plane is a bounding plane n·p + d = 0 with the leaf on the front side.
type Plane struct {
	Normal [3]float64 `yaml:"normal,flow"`
	D      float64    `yaml:"d"`
}

// Build walks the leaves of t.
func Build(t *bsp.Tree, opts Options) *Report {
	st := t.Stats()
	r := &Report{
		Zone:       opts.Zone,
		RegionSize: opts.RegionSize,
		Totals: Totals{
			Regions:      st.Regions,
			Leaves:       st.Leaves,
			MaxDepth:     st.MaxDepth,
			LeafPolygons: st.LeafPolygons,
			Vertices:     st.Vertices,
			Polygons:     st.Polygons,
		},
		Leaves: make([]Leaf, 0, st.Leaves),
	}

	m := t.Mesh()
	for region, path := range t.LeafPaths() {
		leaf := Leaf{
			ID:        len(r.Leaves),
			Depth:     region.Depth(),
			Polygons:  len(region.Polygons()),
			Bounds:    boxOf(m.PolygonBounds(region.Polygons())),
			Materials: materials(m, region.Polygons()),
		}
		for _, poly := range region.Polygons() {
			leaf.Area += m.Area(poly)
		}
		if opts.IncludePlanes {
			leaf.Planes = make([]Plane, len(path))
			for i, pl := range path {
				leaf.Planes[i] = Plane{Normal: vec(pl.Normal), D: pl.D}
			}
		}

		r.Totals.LeafArea += leaf.Area
		r.Totals.MaxLeafSize = max(r.Totals.MaxLeafSize, leaf.Polygons)
		r.Leaves = append(r.Leaves, leaf)
	}
	return r
}

// Encode writes the report as YAML.
func (r *Report) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

// Write writes the report to path, creating parent directories.
func (r *Report) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := r.Encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing report: %w", err)
	}

	logger.Named("report").Info("wrote partition report",
		zap.String("path", path),
		zap.Int("leaves", len(r.Leaves)))
	return nil
}

// Load reads a report written by Write.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &r, nil
}

func boxOf(b mesh.Bounds) Box {
	if b.IsEmpty() {
		return Box{}
	}
	return Box{Min: vec(b.Min), Max: vec(b.Max)}
}

func vec(v math.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// materials returns the sorted distinct material names used by polys.
// Polygons without a named material are skipped.
func materials(m *mesh.Mesh, polys []int) []string {
	var names []string
	for _, poly := range polys {
		if name := m.MaterialName(m.Polygon(poly).Material); name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}
