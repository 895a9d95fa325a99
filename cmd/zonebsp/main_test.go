package main

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/midgard-zonebsp/internal/logger"
	"github.com/Faultbox/midgard-zonebsp/internal/report"
)

// groundFile encodes an n x n flat GND whose tiles all use texture 0.
func groundFile(n int) []byte {
	buf := new(bytes.Buffer)
	le := func(v any) { binary.Write(buf, binary.LittleEndian, v) }

	buf.WriteString("GRGN")
	buf.Write([]byte{1, 7})
	le(uint32(n))
	le(uint32(n))
	le(float32(10))

	le(uint32(1))
	le(uint32(80))
	name := make([]byte, 80)
	copy(name, "grass.bmp")
	buf.Write(name)

	le([4]uint32{0, 8, 8, 1}) // no lightmaps

	le(uint32(1))
	le([8]float32{})
	le([2]int16{0, 0})
	buf.Write([]byte{255, 255, 255, 255})

	for range n * n {
		le([4]float32{})
		le([3]int32{0, -1, -1})
	}
	return buf.Bytes()
}

// archiveFile wraps one stored entry in a GRF archive.
func archiveFile(name string, data []byte) []byte {
	var table bytes.Buffer
	table.WriteString(name)
	table.WriteByte(0)
	binary.Write(&table, binary.LittleEndian, [3]uint32{uint32(len(data)), uint32(len(data)), uint32(len(data))})
	table.WriteByte(0x01)
	binary.Write(&table, binary.LittleEndian, uint32(0))

	var packed bytes.Buffer
	zw := zlib.NewWriter(&packed)
	zw.Write(table.Bytes())
	zw.Close()

	var out bytes.Buffer
	var magic [30]byte
	copy(magic[:], "Master of Magic")
	out.Write(magic[:])
	binary.Write(&out, binary.LittleEndian, [4]uint32{uint32(len(data)), 0, 8, 0x200})
	out.Write(data)
	binary.Write(&out, binary.LittleEndian, [2]uint32{uint32(packed.Len()), uint32(table.Len())})
	out.Write(packed.Bytes())
	return out.Bytes()
}

// workspace switches to a fresh directory with no config files around.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)
	t.Cleanup(logger.InitNop)
	return dir
}

func TestCmdBuild(t *testing.T) {
	dir := workspace(t)
	gndPath := filepath.Join(dir, "field.gnd")
	if err := os.WriteFile(gndPath, groundFile(4), 0644); err != nil {
		t.Fatalf("failed to write ground: %v", err)
	}
	reportPath := filepath.Join(dir, "out", "field.yaml")

	var out bytes.Buffer
	err := cmdBuild(&out, []string{"-region-size", "10", "-workers", "1", "-report", reportPath, "-planes", gndPath})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if !strings.Contains(out.String(), "Faces:     16 (16 tops, 0 walls)") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	r, err := report.Load(reportPath)
	if err != nil {
		t.Fatalf("loading report: %v", err)
	}
	// 40x40 floor, 10-unit regions: 4x4 cells, one tile each.
	if r.Totals.Leaves != 16 || r.Totals.LeafPolygons != 16 {
		t.Errorf("unexpected totals %+v", r.Totals)
	}
	if r.Zone != "field.gnd" || r.RegionSize != 10 {
		t.Errorf("unexpected header %q %g", r.Zone, r.RegionSize)
	}
	if len(r.Leaves[0].Planes) == 0 {
		t.Error("expected plane chains with -planes")
	}
}

func TestCmdBuildFromArchive(t *testing.T) {
	dir := workspace(t)
	grfPath := filepath.Join(dir, "data.grf")
	if err := os.WriteFile(grfPath, archiveFile("data\\field.gnd", groundFile(2)), 0644); err != nil {
		t.Fatalf("failed to write archive: %v", err)
	}

	var out bytes.Buffer
	if err := cmdBuild(&out, []string{"-grf", grfPath, "data/field.gnd"}); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !strings.Contains(out.String(), "Regions:") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	out.Reset()
	if err := cmdZones(&out, []string{grfPath}); err != nil {
		t.Fatalf("zones failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != "data/field.gnd" {
		t.Errorf("unexpected zones output %q", out.String())
	}
}

func TestCmdBuildErrors(t *testing.T) {
	dir := workspace(t)

	if err := cmdBuild(new(bytes.Buffer), nil); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
	if err := cmdBuild(new(bytes.Buffer), []string{filepath.Join(dir, "missing.gnd")}); err == nil {
		t.Error("expected error for missing ground file")
	}

	gndPath := filepath.Join(dir, "field.gnd")
	if err := os.WriteFile(gndPath, groundFile(1), 0644); err != nil {
		t.Fatalf("failed to write ground: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "zonebsp.yaml"), []byte("partition:\n  axes: [w]\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if err := cmdBuild(new(bytes.Buffer), []string{gndPath}); err == nil {
		t.Error("expected config validation error")
	}
}

func TestCmdInfo(t *testing.T) {
	dir := workspace(t)
	gndPath := filepath.Join(dir, "field.gnd")
	if err := os.WriteFile(gndPath, groundFile(3), 0644); err != nil {
		t.Fatalf("failed to write ground: %v", err)
	}

	var out bytes.Buffer
	if err := cmdInfo(&out, []string{gndPath}); err != nil {
		t.Fatalf("info failed: %v", err)
	}
	for _, want := range []string{"Version:   1.7", "Size:      3x3 tiles", "Surfaces:  1 (9 top, 0 front, 0 right)", "grass.bmp"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, out.String())
		}
	}
}
