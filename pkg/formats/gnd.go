package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	stdmath "math"
	"os"

	"github.com/Faultbox/midgard-zonebsp/pkg/encoding"
)

// GND format errors.
var (
	ErrInvalidGNDMagic       = errors.New("invalid GND magic: expected 'GRGN'")
	ErrUnsupportedGNDVersion = errors.New("unsupported GND version")
	ErrTruncatedGNDData      = errors.New("truncated GND data")
	ErrInvalidGNDDimensions  = errors.New("invalid GND dimensions")
)

// maxGNDSide bounds the tile grid so a corrupt header cannot request a huge allocation.
const maxGNDSide = 1024

// GNDVersion represents the GND file version.
type GNDVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v GNDVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// GNDSurface is a textured face referenced by tiles.
type GNDSurface struct {
	U          [4]float32
	V          [4]float32
	TextureID  int16 // -1 = untextured
	LightmapID int16
	Color      [4]uint8 // BGRA
}

// GNDTile is one cell of the ground grid.
type GNDTile struct {
	Altitude     [4]float32 // corner heights: bottom-left, bottom-right, top-left, top-right
	TopSurface   int32      // -1 = none
	FrontSurface int32      // -1 = none
	RightSurface int32      // -1 = none
}

// GND is a parsed ground file. Lightmap pixels are skipped; only their
// layout is kept.
type GND struct {
	Version        GNDVersion
	Width          uint32
	Height         uint32
	Zoom           float32 // world size of one tile
	Textures       []string
	LightmapCount  uint32
	LightmapWidth  uint32
	LightmapHeight uint32
	LightmapCells  uint32
	Surfaces       []GNDSurface
	Tiles          []GNDTile
}

// Tile returns the tile at (x, y), or nil outside the grid.
func (g *GND) Tile(x, y int) *GNDTile {
	if x < 0 || y < 0 || x >= int(g.Width) || y >= int(g.Height) {
		return nil
	}
	return &g.Tiles[y*int(g.Width)+x]
}

// Surface returns surface id, or nil for -1 and out-of-range ids.
func (g *GND) Surface(id int32) *GNDSurface {
	if id < 0 || int(id) >= len(g.Surfaces) {
		return nil
	}
	return &g.Surfaces[id]
}

// AltitudeRange returns the lowest and highest corner altitude.
func (g *GND) AltitudeRange() (lo, hi float32) {
	if len(g.Tiles) == 0 {
		return 0, 0
	}
	lo, hi = g.Tiles[0].Altitude[0], g.Tiles[0].Altitude[0]
	for i := range g.Tiles {
		for _, h := range g.Tiles[i].Altitude {
			lo = min(lo, h)
			hi = max(hi, h)
		}
	}
	return lo, hi
}

// SurfaceCounts returns how many tile faces reference a surface, split by face kind.
func (g *GND) SurfaceCounts() (top, front, right int) {
	for i := range g.Tiles {
		t := &g.Tiles[i]
		if g.Surface(t.TopSurface) != nil {
			top++
		}
		if g.Surface(t.FrontSurface) != nil {
			front++
		}
		if g.Surface(t.RightSurface) != nil {
			right++
		}
	}
	return top, front, right
}

// gndReader reads little-endian fields and remembers the first short read.
type gndReader struct {
	data []byte
	off  int
	err  error
}

func (r *gndReader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("%w: reading %s at offset %d", ErrTruncatedGNDData, what, r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *gndReader) u32(what string) uint32 {
	if b := r.take(4, what); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *gndReader) i32(what string) int32 { return int32(r.u32(what)) }

func (r *gndReader) f32(what string) float32 {
	return stdmath.Float32frombits(r.u32(what))
}

func (r *gndReader) i16(what string) int16 {
	if b := r.take(2, what); b != nil {
		return int16(binary.LittleEndian.Uint16(b))
	}
	return 0
}

// ParseGND parses a GND file (versions 1.5 to 1.9) from raw bytes.
func ParseGND(data []byte) (*GND, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedGNDData
	}
	if string(data[:4]) != "GRGN" {
		return nil, ErrInvalidGNDMagic
	}

	g := &GND{Version: GNDVersion{Major: data[4], Minor: data[5]}}
	if g.Version.Major != 1 || g.Version.Minor < 5 || g.Version.Minor > 9 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGNDVersion, g.Version)
	}

	r := &gndReader{data: data, off: 6}
	g.Width = r.u32("width")
	g.Height = r.u32("height")
	g.Zoom = r.f32("zoom")
	if r.err != nil {
		return nil, r.err
	}
	if g.Width == 0 || g.Height == 0 || g.Width > maxGNDSide || g.Height > maxGNDSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGNDDimensions, g.Width, g.Height)
	}

	textureCount := r.u32("texture count")
	nameLen := r.u32("texture name length")
	if r.err == nil && uint64(textureCount)*uint64(nameLen) > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %d textures of %d bytes", ErrTruncatedGNDData, textureCount, nameLen)
	}
	g.Textures = make([]string, 0, textureCount)
	for i := uint32(0); i < textureCount && r.err == nil; i++ {
		if field := r.take(int(nameLen), "texture name"); field != nil {
			g.Textures = append(g.Textures, encoding.FixedStringToUTF8(field))
		}
	}
	if r.err != nil {
		return nil, r.err
	}

	g.LightmapCount = r.u32("lightmap count")
	g.LightmapWidth = r.u32("lightmap width")
	g.LightmapHeight = r.u32("lightmap height")
	g.LightmapCells = r.u32("lightmap cells")
	pixels := uint64(g.LightmapWidth) * uint64(g.LightmapHeight) * uint64(g.LightmapCells)
	lightmapBytes := uint64(g.LightmapCount) * pixels * 4 // brightness + RGB
	if r.err == nil && lightmapBytes > uint64(len(data)) {
		return nil, fmt.Errorf("%w: lightmaps need %d bytes", ErrTruncatedGNDData, lightmapBytes)
	}
	r.take(int(lightmapBytes), "lightmaps")
	if r.err != nil {
		return nil, r.err
	}

	surfaceCount := r.u32("surface count")
	if r.err != nil {
		return nil, r.err
	}
	if uint64(surfaceCount)*40 > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %d surfaces", ErrTruncatedGNDData, surfaceCount)
	}
	g.Surfaces = make([]GNDSurface, surfaceCount)
	for i := range g.Surfaces {
		s := &g.Surfaces[i]
		for c := 0; c < 4; c++ {
			s.U[c] = r.f32("surface U")
		}
		for c := 0; c < 4; c++ {
			s.V[c] = r.f32("surface V")
		}
		s.TextureID = r.i16("surface texture")
		s.LightmapID = r.i16("surface lightmap")
		copy(s.Color[:], r.take(4, "surface color"))
		if r.err != nil {
			return nil, fmt.Errorf("parsing surface %d: %w", i, r.err)
		}
	}

	g.Tiles = make([]GNDTile, int(g.Width)*int(g.Height))
	for i := range g.Tiles {
		t := &g.Tiles[i]
		for c := 0; c < 4; c++ {
			t.Altitude[c] = r.f32("tile altitude")
		}
		t.TopSurface = r.i32("tile top surface")
		t.FrontSurface = r.i32("tile front surface")
		t.RightSurface = r.i32("tile right surface")
		if r.err != nil {
			return nil, fmt.Errorf("parsing tile %d: %w", i, r.err)
		}
	}

	return g, nil
}

// ParseGNDFile parses a GND file from disk.
func ParseGNDFile(path string) (*GND, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GND file: %w", err)
	}
	return ParseGND(data)
}
