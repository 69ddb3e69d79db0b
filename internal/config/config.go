// Package config handles generator configuration loading and management.
package config

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/Faultbox/buildings/pkg/geo"
)

// Config holds all generator settings.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Features FeaturesConfig `yaml:"features"`
	Styles   StylesConfig   `yaml:"styles"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Terrain  TerrainConfig  `yaml:"terrain"`
	Pager    PagerConfig    `yaml:"pager"`
	Compiler CompilerConfig `yaml:"compiler"`
	Cache    CacheConfig    `yaml:"cache"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// FeaturesConfig points at the footprint source.
type FeaturesConfig struct {
	Path        string `yaml:"path"`         // GeoJSON FeatureCollection
	SRS         string `yaml:"srs"`          // SRS of the coordinates in Path
	FIDProperty string `yaml:"fid_property"` // property used as FID when "id" is absent
}

// StylesConfig locates the style sheet.
type StylesConfig struct {
	Path string `yaml:"path"`
}

// CatalogConfig locates the optional building catalog.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// TerrainConfig holds elevation service settings.
type TerrainConfig struct {
	GridPath         string  `yaml:"grid_path"`
	Resolution       float64 `yaml:"resolution"`
	FallbackOnNoData bool    `yaml:"fallback_on_no_data"`
}

// PagerConfig holds tile driver settings.
type PagerConfig struct {
	RangeFactor float64 `yaml:"range_factor"`
	Workers     int     `yaml:"workers"`
	OutputSRS   string  `yaml:"output_srs"`
}

// CompilerConfig holds mesh compiler settings.
type CompilerConfig struct {
	RoofCaps bool `yaml:"roof_caps"`
	Merge    bool `yaml:"merge"`
}

// CacheConfig is passed through to the host untouched.
type CacheConfig struct {
	Bin    string        `yaml:"bin"`
	Policy string        `yaml:"policy"`
	MaxAge time.Duration `yaml:"max_age"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Features: FeaturesConfig{
			SRS: "wgs84",
		},
		Terrain: TerrainConfig{
			Resolution:       0,
			FallbackOnNoData: true,
		},
		Pager: PagerConfig{
			RangeFactor: 6.0,
			Workers:     4,
			OutputSRS:   "",
		},
		Compiler: CompilerConfig{
			RoofCaps: true,
		},
		Cache: CacheConfig{
			Policy: "default",
		},
	}
}

// Validate checks values that would otherwise fail deep inside generation.
func (c *Config) Validate() error {
	if c.Pager.RangeFactor <= 0 {
		return errors.Newf("pager.range_factor must be positive, got %v", c.Pager.RangeFactor)
	}
	if c.Pager.Workers < 1 {
		return errors.Newf("pager.workers must be at least 1, got %d", c.Pager.Workers)
	}
	if c.Terrain.Resolution < 0 {
		return errors.Newf("terrain.resolution must not be negative, got %v", c.Terrain.Resolution)
	}
	if _, err := geo.ParseSRS(c.Features.SRS); err != nil {
		return errors.Wrap(err, "features.srs")
	}
	if c.Pager.OutputSRS != "" {
		if _, err := geo.ParseSRS(c.Pager.OutputSRS); err != nil {
			return errors.Wrap(err, "pager.output_srs")
		}
	}
	return nil
}
