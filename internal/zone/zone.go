// Package zone turns a parsed ground file into a polygon mesh ready for
// partitioning.
package zone

import (
	"errors"
	stdmath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-zonebsp/internal/logger"
	"github.com/Faultbox/midgard-zonebsp/pkg/formats"
	"github.com/Faultbox/midgard-zonebsp/pkg/math"
	"github.com/Faultbox/midgard-zonebsp/pkg/mesh"
)

// Zone build errors.
var (
	ErrNilGround = errors.New("ground is nil")
	ErrEmptyZone = errors.New("ground has no textured faces")
)

const (
	// wallThreshold is the altitude step below which no wall is built between tiles.
	wallThreshold = 0.001
	// planarTolerance decides when a top quad is kept whole instead of split in two.
	planarTolerance = 1e-4
)

// Options controls which faces are emitted and how altitude maps to world Y.
type Options struct {
	IncludeWalls bool // emit front/right walls between tiles of different altitude
	FlipAltitude bool // world Y = -altitude, as the client renders it
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{IncludeWalls: true, FlipAltitude: true}
}

// Stats counts what Build emitted.
type Stats struct {
	Tops       int
	SplitTops  int // non-planar tops emitted as two triangles
	FrontWalls int
	RightWalls int
	Vertices   int
}

// Faces returns the total number of tile faces.
func (s Stats) Faces() int {
	return s.Tops + s.FrontWalls + s.RightWalls
}

// corner identifies a welded vertex: a grid point at one altitude.
type corner struct {
	gx, gz int
	h      float32
}

type builder struct {
	gnd   *formats.GND
	opts  Options
	mesh  *mesh.Mesh
	verts map[corner]int
	stats Stats
}

// Build converts gnd into a mesh. Tile corners with the same grid position
// and altitude share one vertex. Polygon materials index gnd.Textures, which
// become the mesh's material names.
func Build(gnd *formats.GND, opts Options) (*mesh.Mesh, error) {
	m, _, err := BuildWithStats(gnd, opts)
	return m, err
}

// BuildWithStats is Build that also reports face counts.
func BuildWithStats(gnd *formats.GND, opts Options) (*mesh.Mesh, Stats, error) {
	if gnd == nil {
		return nil, Stats{}, ErrNilGround
	}

	b := &builder{
		gnd:   gnd,
		opts:  opts,
		mesh:  mesh.New(),
		verts: make(map[corner]int),
	}
	b.mesh.Materials = append([]string(nil), gnd.Textures...)

	for y := range int(gnd.Height) {
		for x := range int(gnd.Width) {
			b.tile(x, y)
		}
	}
	b.stats.Vertices = len(b.mesh.Vertices)

	log := logger.Named("zone")
	log.Debug("built zone mesh",
		zap.Uint32("width", gnd.Width),
		zap.Uint32("height", gnd.Height),
		zap.Int("tops", b.stats.Tops),
		zap.Int("splitTops", b.stats.SplitTops),
		zap.Int("frontWalls", b.stats.FrontWalls),
		zap.Int("rightWalls", b.stats.RightWalls),
		zap.Int("vertices", b.stats.Vertices))

	if len(b.mesh.Polygons) == 0 {
		return nil, b.stats, ErrEmptyZone
	}
	return b.mesh, b.stats, nil
}

func (b *builder) tile(x, y int) {
	t := b.gnd.Tile(x, y)
	// GND corners: [0]=bottom-left, [1]=bottom-right, [2]=top-left, [3]=top-right.
	// Bottom is the +Z edge.
	bl := b.vertex(x, y+1, t.Altitude[0])
	br := b.vertex(x+1, y+1, t.Altitude[1])
	tl := b.vertex(x, y, t.Altitude[2])
	tr := b.vertex(x+1, y, t.Altitude[3])

	if s := b.gnd.Surface(t.TopSurface); s != nil {
		mat := b.material(s)
		a := t.Altitude
		if absf(a[0]+a[3]-a[1]-a[2]) <= planarTolerance {
			b.emit(mat, bl, br, tr, tl)
		} else {
			b.emit(mat, bl, br, tl)
			b.emit(mat, br, tr, tl)
			b.stats.SplitTops++
		}
		b.stats.Tops++
	}

	if !b.opts.IncludeWalls {
		return
	}

	if next := b.gnd.Tile(x, y+1); next != nil {
		if absf(t.Altitude[0]-next.Altitude[2]) > wallThreshold || absf(t.Altitude[1]-next.Altitude[3]) > wallThreshold {
			if mat, ok := b.wallMaterial(t.FrontSurface, t.TopSurface); ok {
				nl := b.vertex(x, y+1, next.Altitude[2])
				nr := b.vertex(x+1, y+1, next.Altitude[3])
				if b.emit(mat, bl, br, nr, nl) {
					b.stats.FrontWalls++
				}
			}
		}
	}

	if next := b.gnd.Tile(x+1, y); next != nil {
		if absf(t.Altitude[1]-next.Altitude[0]) > wallThreshold || absf(t.Altitude[3]-next.Altitude[2]) > wallThreshold {
			if mat, ok := b.wallMaterial(t.RightSurface, t.TopSurface); ok {
				nb := b.vertex(x+1, y+1, next.Altitude[0])
				nt := b.vertex(x+1, y, next.Altitude[2])
				if b.emit(mat, br, tr, nt, nb) {
					b.stats.RightWalls++
				}
			}
		}
	}
}

// wallMaterial picks the wall's own surface, falling back to the tile top.
func (b *builder) wallMaterial(wall, top int32) (int, bool) {
	if s := b.gnd.Surface(wall); s != nil {
		return b.material(s), true
	}
	if s := b.gnd.Surface(top); s != nil {
		return b.material(s), true
	}
	return 0, false
}

func (b *builder) material(s *formats.GNDSurface) int {
	if s.TextureID < 0 || int(s.TextureID) >= len(b.gnd.Textures) {
		return mesh.NoMaterial
	}
	return int(s.TextureID)
}

func (b *builder) vertex(gx, gz int, altitude float32) int {
	key := corner{gx: gx, gz: gz, h: altitude}
	if idx, ok := b.verts[key]; ok {
		return idx
	}
	h := float64(altitude)
	if b.opts.FlipAltitude {
		h = -h
	}
	zoom := float64(b.gnd.Zoom)
	idx := b.mesh.AddVertex(math.Vec3{X: float64(gx) * zoom, Y: h, Z: float64(gz) * zoom})
	b.verts[key] = idx
	return idx
}

// emit adds a polygon after dropping repeated corners. A wall whose one side
// has no step collapses to a triangle; one with fewer corners is skipped.
func (b *builder) emit(material int, corners ...int) bool {
	loop := make([]int, 0, len(corners))
	for i, c := range corners {
		if c == corners[(i+len(corners)-1)%len(corners)] {
			continue
		}
		loop = append(loop, c)
	}
	if len(loop) < 3 {
		return false
	}
	if _, err := b.mesh.AddPolygon(loop, material); err != nil {
		// Indices come from AddVertex, so this is unreachable.
		panic(err)
	}
	return true
}

func absf(v float32) float32 {
	return float32(stdmath.Abs(float64(v)))
}
