// Package config handles zonebsp configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Faultbox/midgard-zonebsp/internal/logger"
	"github.com/Faultbox/midgard-zonebsp/internal/zone"
	"github.com/Faultbox/midgard-zonebsp/pkg/bsp"
	"github.com/Faultbox/midgard-zonebsp/pkg/math"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all zonebsp settings.
type Config struct {
	Partition PartitionConfig `yaml:"partition"`
	Zone      ZoneConfig      `yaml:"zone"`
	Export    ExportConfig    `yaml:"export"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// PartitionConfig holds region tree settings.
type PartitionConfig struct {
	RegionSize  float64  `yaml:"region_size"`
	Epsilon     float64  `yaml:"epsilon"`
	Axes        []string `yaml:"axes"`         // split order, e.g. [x, y, z]
	MinPolygons int      `yaml:"min_polygons"` // 0 = subdivide regardless of content
	Workers     int      `yaml:"workers"`      // classification goroutines per split
}

// ZoneConfig holds ground-to-mesh settings.
type ZoneConfig struct {
	IncludeWalls bool `yaml:"include_walls"`
	FlipAltitude bool `yaml:"flip_altitude"`
}

// ExportConfig holds partition report settings.
type ExportConfig struct {
	ReportPath    string `yaml:"report_path"` // empty = no report
	IncludePlanes bool   `yaml:"include_planes"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Partition: PartitionConfig{
			RegionSize: bsp.DefaultRegionSize,
			Epsilon:    bsp.DefaultEpsilon,
			Axes:       []string{"x", "y", "z"},
			Workers:    runtime.NumCPU(),
		},
		Zone: ZoneConfig{
			IncludeWalls: true,
			FlipAltitude: true,
		},
		Export: ExportConfig{
			ReportPath:    "",
			IncludePlanes: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values the loader cannot type-check.
func (c *Config) Validate() error {
	p := c.Partition
	if !(p.RegionSize > 0) {
		return fmt.Errorf("%w: partition.region_size must be positive, got %g", ErrInvalidConfig, p.RegionSize)
	}
	if !(p.Epsilon > 0) {
		return fmt.Errorf("%w: partition.epsilon must be positive, got %g", ErrInvalidConfig, p.Epsilon)
	}
	if p.MinPolygons < 0 {
		return fmt.Errorf("%w: partition.min_polygons must not be negative", ErrInvalidConfig)
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w: partition.workers must not be negative", ErrInvalidConfig)
	}
	if _, err := p.ParsedAxes(); err != nil {
		return fmt.Errorf("%w: partition.axes: %w", ErrInvalidConfig, err)
	}
	if !logger.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: unknown logging.level %q", ErrInvalidConfig, c.Logging.Level)
	}
	return nil
}

// ParsedAxes converts the configured axis names. An empty list yields the
// default order.
func (p PartitionConfig) ParsedAxes() ([]math.Axis, error) {
	if len(p.Axes) == 0 {
		return append([]math.Axis(nil), bsp.DefaultAxes...), nil
	}
	axes := make([]math.Axis, 0, len(p.Axes))
	for _, name := range p.Axes {
		a, err := math.ParseAxis(name)
		if err != nil {
			return nil, err
		}
		axes = append(axes, a)
	}
	return axes, nil
}

// Strategy returns the axis-grid strategy described by the partition section.
func (p PartitionConfig) Strategy() (*bsp.AxisGrid, error) {
	axes, err := p.ParsedAxes()
	if err != nil {
		return nil, err
	}
	return &bsp.AxisGrid{
		RegionSize:  p.RegionSize,
		Axes:        axes,
		MinPolygons: p.MinPolygons,
	}, nil
}

// TreeOptions returns the tree options described by the partition section.
func (p PartitionConfig) TreeOptions() []bsp.Option {
	return []bsp.Option{bsp.WithEpsilon(p.Epsilon), bsp.WithWorkers(p.Workers)}
}

// Options returns the zone builder options.
func (z ZoneConfig) Options() zone.Options {
	return zone.Options{IncludeWalls: z.IncludeWalls, FlipAltitude: z.FlipAltitude}
}
