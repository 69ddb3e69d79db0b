package main

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Faultbox/buildings/internal/catalog"
	"github.com/Faultbox/buildings/internal/compiler"
	"github.com/Faultbox/buildings/internal/config"
	"github.com/Faultbox/buildings/internal/feature"
	"github.com/Faultbox/buildings/internal/logger"
	"github.com/Faultbox/buildings/internal/pager"
	"github.com/Faultbox/buildings/internal/style"
	"github.com/Faultbox/buildings/internal/terrain"
	"github.com/Faultbox/buildings/pkg/geo"
)

// app is the host side of the generator: it loads every collaborator named
// in the config and hands them to a pager.
type app struct {
	cfg      *config.Config
	pager    *pager.Pager
	features *feature.MemorySource
	metrics  *pager.Metrics
	registry *prometheus.Registry
}

func newApp(cfg *config.Config) (*app, error) {
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	if cfg.Styles.Path == "" {
		return nil, errors.New("styles.path is required")
	}
	if cfg.Features.Path == "" {
		return nil, errors.New("features.path is required")
	}

	featureSRS, err := geo.ParseSRS(cfg.Features.SRS)
	if err != nil {
		return nil, err
	}
	mapSRS := featureSRS
	if cfg.Pager.OutputSRS != "" {
		if mapSRS, err = geo.ParseSRS(cfg.Pager.OutputSRS); err != nil {
			return nil, err
		}
	}

	sheet, err := style.LoadSheet(cfg.Styles.Path)
	if err != nil {
		return nil, err
	}
	source, err := feature.LoadGeoJSON(cfg.Features.Path, feature.GeoJSONOptions{
		SRS:         featureSRS,
		FIDProperty: cfg.Features.FIDProperty,
	})
	if err != nil {
		return nil, err
	}

	settings := compiler.Settings{
		RoofCaps: cfg.Compiler.RoofCaps,
		Merge:    cfg.Compiler.Merge,
	}

	p := pager.New()
	p.SetCompilerSettings(settings)
	p.SetSession(style.NewSession(sheet, mapSRS))
	p.SetFeatureSource(source)
	p.SetRangeFactor(cfg.Pager.RangeFactor)
	p.SetCacheBin(cfg.Cache.Bin, cfg.Cache.Policy)

	if cfg.Catalog.Path != "" {
		cat, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		p.SetCatalog(cat)
	}

	if cfg.Terrain.GridPath != "" {
		grid, err := terrain.LoadGrid(cfg.Terrain.GridPath)
		if err != nil {
			return nil, err
		}
		p.SetElevationService(grid, cfg.Terrain.Resolution, cfg.Terrain.FallbackOnNoData)
	}

	reg := prometheus.NewRegistry()
	metrics := pager.NewMetrics(reg)
	p.SetMetrics(metrics)

	logger.Info("generator ready",
		zap.String("styles", sheet.Name),
		zap.Int("features", source.Len()),
		zap.Stringer("map_srs", mapSRS),
		zap.Uint32("min_lod", p.MinLevel()),
		zap.Uint32("max_lod", p.MaxLevel()))

	return &app{
		cfg:      cfg,
		pager:    p,
		features: source,
		metrics:  metrics,
		registry: reg,
	}, nil
}
