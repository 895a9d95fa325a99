package config

import "flag"

// Flags holds command-line overrides registered on one FlagSet.
// Zero values leave the loaded config untouched.
type Flags struct {
	Config     *string
	Debug      *bool
	RegionSize *float64
	Epsilon    *float64
	Workers    *int
	Report     *string
	Planes     *bool
	NoWalls    *bool
}

// RegisterFlags adds the config override flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Config:     fs.String("config", "", "Path to config file"),
		Debug:      fs.Bool("debug", false, "Enable debug logging"),
		RegionSize: fs.Float64("region-size", 0, "Maximum region extent per axis"),
		Epsilon:    fs.Float64("epsilon", 0, "On-plane tolerance"),
		Workers:    fs.Int("workers", 0, "Classification goroutines per split"),
		Report:     fs.String("report", "", "Write a YAML partition report to this path"),
		Planes:     fs.Bool("planes", false, "Include each leaf's plane chain in the report"),
		NoWalls:    fs.Bool("no-walls", false, "Skip wall faces between tiles"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	return *f.Config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if *f.Debug {
		cfg.Logging.Level = "debug"
	}
	if *f.RegionSize > 0 {
		cfg.Partition.RegionSize = *f.RegionSize
	}
	if *f.Epsilon > 0 {
		cfg.Partition.Epsilon = *f.Epsilon
	}
	if *f.Workers > 0 {
		cfg.Partition.Workers = *f.Workers
	}
	if *f.Report != "" {
		cfg.Export.ReportPath = *f.Report
	}
	if *f.Planes {
		cfg.Export.IncludePlanes = true
	}
	if *f.NoWalls {
		cfg.Zone.IncludeWalls = false
	}
}
