package config

import "github.com/spf13/pflag"

// Flags holds command-line overrides. Only flags the user actually set are
// applied, so a zero value never masks a file setting.
type Flags struct {
	ConfigPath  string
	Debug       bool
	LogFile     string
	Features    string
	FeaturesSRS string
	Styles      string
	Catalog     string
	TerrainGrid string
	RangeFactor float64
	Workers     int
	OutputSRS   string

	fs *pflag.FlagSet
}

// BindFlags registers the configuration flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Write logs to this file (rotated)")
	fs.StringVar(&f.Features, "features", "", "GeoJSON footprint file")
	fs.StringVar(&f.FeaturesSRS, "features-srs", "", "SRS of the footprint file")
	fs.StringVar(&f.Styles, "styles", "", "Style sheet YAML")
	fs.StringVar(&f.Catalog, "catalog", "", "Building catalog YAML")
	fs.StringVar(&f.TerrainGrid, "terrain", "", "Terrain grid YAML")
	fs.Float64Var(&f.RangeFactor, "range-factor", 0, "Visibility range as a multiple of tile radius")
	fs.IntVarP(&f.Workers, "workers", "j", 0, "Concurrent tile workers")
	fs.StringVar(&f.OutputSRS, "output-srs", "", "Reproject features into this SRS before generation")
	return f
}

func (f *Flags) changed(name string) bool {
	return f.fs != nil && f.fs.Changed(name)
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.changed("log-file") {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.changed("features") {
		cfg.Features.Path = f.Features
	}
	if f.changed("features-srs") {
		cfg.Features.SRS = f.FeaturesSRS
	}
	if f.changed("styles") {
		cfg.Styles.Path = f.Styles
	}
	if f.changed("catalog") {
		cfg.Catalog.Path = f.Catalog
	}
	if f.changed("terrain") {
		cfg.Terrain.GridPath = f.TerrainGrid
	}
	if f.changed("range-factor") {
		cfg.Pager.RangeFactor = f.RangeFactor
	}
	if f.changed("workers") {
		cfg.Pager.Workers = f.Workers
	}
	if f.changed("output-srs") {
		cfg.Pager.OutputSRS = f.OutputSRS
	}
}
