// zonebsp partitions Ragnarok Online zone ground meshes into region trees.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-zonebsp/internal/config"
	"github.com/Faultbox/midgard-zonebsp/internal/logger"
	"github.com/Faultbox/midgard-zonebsp/internal/report"
	"github.com/Faultbox/midgard-zonebsp/internal/zone"
	"github.com/Faultbox/midgard-zonebsp/pkg/bsp"
	"github.com/Faultbox/midgard-zonebsp/pkg/formats"
	"github.com/Faultbox/midgard-zonebsp/pkg/grf"
)

var errUsage = errors.New("usage")

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "build":
		err = cmdBuild(os.Stdout, args)
	case "info":
		err = cmdInfo(os.Stdout, args)
	case "zones":
		err = cmdZones(os.Stdout, args)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `zonebsp - zone region tree builder

Usage:
  zonebsp <command> [options]

Commands:
  build [options] <file.gnd>   Partition a ground mesh into regions
  info [-grf archive] <file.gnd>
                               Show ground file information
  zones <file.grf> [pattern]   List ground files in an archive
  help                         Show this help

Build options:
  -config path      Config file (default ./zonebsp.yaml, then user config dir)
  -grf archive      Read the ground file from a GRF archive
  -region-size n    Maximum region extent per axis (default 12.8)
  -epsilon n        On-plane tolerance (default 1e-5)
  -workers n        Classification goroutines per split
  -report path      Write a YAML partition report
  -planes           Include plane chains in the report
  -no-walls         Skip wall faces between tiles
  -debug            Enable debug logging

Examples:
  zonebsp build prontera.gnd
  zonebsp build -grf data.grf -report out/prontera.yaml data/prontera.gnd
  zonebsp zones data.grf "prt_*"`)
}

// loadGround reads a GND file from disk, or from archive when it is set.
func loadGround(archive, name string) (*formats.GND, error) {
	if archive == "" {
		return formats.ParseGNDFile(name)
	}

	a, err := grf.Open(archive)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	data, err := a.Read(name)
	if err != nil {
		return nil, err
	}
	return formats.ParseGND(data)
}

func cmdBuild(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fl := config.RegisterFlags(fs)
	archive := fs.String("grf", "", "Read the ground file from this GRF archive")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: zonebsp build [options] <file.gnd>")
		return errUsage
	}
	name := fs.Arg(0)

	cfg, err := config.Load(fl.ConfigPath(), fl)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	log := logger.Named("build").With(zap.String("zone", name))

	gnd, err := loadGround(*archive, name)
	if err != nil {
		return fmt.Errorf("loading %s: %w", name, err)
	}

	m, zs, err := zone.BuildWithStats(gnd, cfg.Zone.Options())
	if err != nil {
		return fmt.Errorf("building mesh: %w", err)
	}
	log.Info("built zone mesh",
		zap.Int("faces", zs.Faces()),
		zap.Int("vertices", zs.Vertices))

	strategy, err := cfg.Partition.Strategy()
	if err != nil {
		return err
	}

	start := time.Now()
	tree, err := bsp.Subdivide(m, strategy, cfg.Partition.TreeOptions()...)
	if err != nil {
		return err
	}
	st := tree.Stats()
	log.Info("partitioned zone",
		zap.Int("regions", st.Regions),
		zap.Int("leaves", st.Leaves),
		zap.Int("maxDepth", st.MaxDepth),
		zap.Int("leafPolygons", st.LeafPolygons),
		zap.Int("polygons", st.Polygons),
		zap.Duration("elapsed", time.Since(start)))

	fmt.Fprintf(out, "Zone:      %s\n", name)
	fmt.Fprintf(out, "Faces:     %d (%d tops, %d walls)\n", zs.Faces(), zs.Tops, zs.FrontWalls+zs.RightWalls)
	fmt.Fprintf(out, "Regions:   %d (%d leaves, depth %d)\n", st.Regions, st.Leaves, st.MaxDepth)
	fmt.Fprintf(out, "Polygons:  %d in leaves, %d in mesh\n", st.LeafPolygons, st.Polygons)
	fmt.Fprintf(out, "Vertices:  %d\n", st.Vertices)

	if path := cfg.Export.ReportPath; path != "" {
		r := report.Build(tree, report.Options{
			Zone:          filepath.Base(name),
			RegionSize:    cfg.Partition.RegionSize,
			IncludePlanes: cfg.Export.IncludePlanes,
		})
		if err := r.Write(path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report:    %s\n", path)
	}
	return nil
}

func cmdInfo(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	archive := fs.String("grf", "", "Read the ground file from this GRF archive")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: zonebsp info [-grf archive] <file.gnd>")
		return errUsage
	}

	gnd, err := loadGround(*archive, fs.Arg(0))
	if err != nil {
		return err
	}

	top, front, right := gnd.SurfaceCounts()
	lo, hi := gnd.AltitudeRange()

	fmt.Fprintf(out, "Ground:    %s\n", fs.Arg(0))
	fmt.Fprintf(out, "Version:   %s\n", gnd.Version)
	fmt.Fprintf(out, "Size:      %dx%d tiles, zoom %.1f\n", gnd.Width, gnd.Height, gnd.Zoom)
	fmt.Fprintf(out, "Altitude:  %.2f to %.2f\n", lo, hi)
	fmt.Fprintf(out, "Surfaces:  %d (%d top, %d front, %d right)\n", len(gnd.Surfaces), top, front, right)
	fmt.Fprintf(out, "Lightmaps: %d (%dx%d)\n", gnd.LightmapCount, gnd.LightmapWidth, gnd.LightmapHeight)
	fmt.Fprintf(out, "Textures:  %d\n", len(gnd.Textures))
	for i, name := range gnd.Textures {
		fmt.Fprintf(out, "  %3d %s\n", i, name)
	}
	return nil
}

func cmdZones(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("zones", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: zonebsp zones <file.grf> [pattern]")
		return errUsage
	}

	a, err := grf.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer a.Close()

	pattern := "*.gnd"
	if fs.NArg() > 1 {
		pattern = fs.Arg(1)
		if !strings.HasSuffix(strings.ToLower(pattern), ".gnd") {
			pattern += ".gnd"
		}
	}

	names, err := a.Glob(pattern)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}
