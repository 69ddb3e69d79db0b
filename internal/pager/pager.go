// Package pager drives building generation for one map tile at a time and
// hands the result to a mesh compiler.
package pager

import (
	"fmt"
	"time"

	"github.com/paulmach/orb/maptile"
	"go.uber.org/zap"

	"github.com/Faultbox/buildings/internal/building"
	"github.com/Faultbox/buildings/internal/compiler"
	"github.com/Faultbox/buildings/internal/feature"
	"github.com/Faultbox/buildings/internal/logger"
	"github.com/Faultbox/buildings/internal/style"
	"github.com/Faultbox/buildings/internal/terrain"
	"github.com/Faultbox/buildings/pkg/geo"
)

// DefaultRangeFactor scales a tile's bounding radius into its visibility
// range.
const DefaultRangeFactor = 6.0

// Compiler turns a tile's buildings into compiled output.
type Compiler interface {
	Compile(buildings []*building.Building) (*compiler.Output, error)
}

// Pager creates one scene node per tile. Configure it once, then call
// CreateNode from any number of goroutines; every call builds its own
// factory and buildings and only reads the shared collaborators.
type Pager struct {
	session  *style.Session
	features feature.Source
	gen      building.Generator
	compiler Compiler
	settings compiler.Settings
	ownsComp bool
	outSRS   *geo.SRS
	sampler  *terrain.Sampler

	cacheBin    string
	cachePolicy string

	rangeFactor float64
	minLOD      uint32
	maxLOD      uint32

	metrics *Metrics
	log     *zap.Logger
}

// New creates a pager with the default range factor and compiler settings.
func New() *Pager {
	return &Pager{
		settings:    compiler.DefaultSettings(),
		rangeFactor: DefaultRangeFactor,
		log:         logger.Named("pager"),
	}
}

// SetSession installs the style session and derives the LOD range from
// the styles it names after levels. A reference compiler is created when
// none has been set.
func (p *Pager) SetSession(s *style.Session) {
	p.session = s
	if s == nil {
		return
	}
	if p.compiler == nil {
		p.compiler = compiler.New(p.settings)
		p.ownsComp = true
	}
	if s.Styles == nil {
		return
	}
	if lo, hi, ok := LODRange(s); ok {
		p.minLOD, p.maxLOD = lo, hi
	} else {
		p.minLOD, p.maxLOD = 0, 0
	}
}

// SetFeatureSource sets where footprints come from.
func (p *Pager) SetFeatureSource(src feature.Source) {
	p.features = src
}

// SetCatalog routes generation through c; nil uses the sample generator.
func (p *Pager) SetCatalog(c building.Catalog) {
	if c == nil {
		p.gen = nil
		return
	}
	p.SetGenerator(building.CatalogGenerator{Catalog: c})
}

// SetGenerator replaces the building generator for every tile. g must be
// safe for concurrent use; nil uses the sample generator.
func (p *Pager) SetGenerator(g building.Generator) {
	p.gen = g
}

// SetCompiler replaces the mesh compiler. nil leaves the pager unconfigured.
func (p *Pager) SetCompiler(c Compiler) {
	p.compiler = c
	p.ownsComp = false
}

// SetCompilerSettings sets the settings used when assembling scene nodes
// and by the reference compiler.
func (p *Pager) SetCompilerSettings(s compiler.Settings) {
	p.settings = s
	if p.ownsComp {
		p.compiler = compiler.New(s)
	}
}

// SetCacheBin records the host's cache bin and policy. The pager does not
// interpret them.
func (p *Pager) SetCacheBin(bin, policy string) {
	p.cacheBin = bin
	p.cachePolicy = policy
}

// CacheBin returns what SetCacheBin stored.
func (p *Pager) CacheBin() (bin, policy string) {
	return p.cacheBin, p.cachePolicy
}

// SetRangeFactor sets the multiple of the tile radius at which nodes become
// visible. Non-positive values restore the default.
func (p *Pager) SetRangeFactor(f float64) {
	if f <= 0 {
		f = DefaultRangeFactor
	}
	p.rangeFactor = f
}

// RangeFactor returns the current range factor.
func (p *Pager) RangeFactor() float64 {
	return p.rangeFactor
}

// SetOutputSRS overrides the session's map SRS as the output reference.
func (p *Pager) SetOutputSRS(srs *geo.SRS) {
	p.outSRS = srs
}

// SetElevationService enables terrain clamping for styles that ask for it.
func (p *Pager) SetElevationService(svc terrain.ElevationService, resolution float64, fallbackOnNoData bool) {
	if svc == nil {
		p.sampler = nil
		return
	}
	p.sampler = terrain.NewSampler(svc, resolution, fallbackOnNoData)
}

// SetMetrics records tile outcomes into m.
func (p *Pager) SetMetrics(m *Metrics) {
	p.metrics = m
}

// MinLevel returns the lowest level with a style.
func (p *Pager) MinLevel() uint32 {
	return p.minLOD
}

// MaxLevel returns the highest level the pager serves.
func (p *Pager) MaxLevel() uint32 {
	return p.maxLOD
}

// TileName formats a tile as z/x/y.
func TileName(t maptile.Tile) string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// CreateNode builds the scene node for a tile. It returns nil when the
// pager is misconfigured, the tile has no buildings, or compilation fails;
// the reason is logged.
func (p *Pager) CreateNode(t maptile.Tile) *compiler.Node {
	name := TileName(t)
	log := p.log.With(zap.String("tile", name))

	if p.session == nil || p.compiler == nil || p.features == nil {
		log.Warn("misconfiguration: session, compiler and feature source must be set")
		p.metrics.tile(ResultMisconfigured)
		return nil
	}

	start := time.Now()
	defer func() { p.metrics.observe(time.Since(start).Seconds()) }()

	cursor, err := p.features.Cursor(feature.TileQuery(t))
	if err != nil {
		log.Warn("feature query failed", zap.Error(err))
		p.metrics.tile(ResultFailed)
		return nil
	}
	if cursor == nil || !cursor.HasMore() {
		log.Debug("no features for tile")
		p.metrics.tile(ResultEmpty)
		return nil
	}

	factory := building.NewFactory(p.session)
	if p.gen != nil {
		factory.SetGenerator(p.gen)
	}
	factory.SetOutputSRS(p.outputSRS())
	factory.SetSampler(p.sampler)

	st := p.session.Style(StyleName(uint32(t.Z)))

	factoryStart := time.Now()
	buildings, ok := factory.Create(cursor, geo.TileExtent(t), st, nil, nil)
	if !ok {
		log.Warn("failed to create building data model")
		p.metrics.tile(ResultFailed)
		return nil
	}
	log.Debug("created buildings",
		zap.Int("buildings", len(buildings)),
		zap.Duration("elapsed", time.Since(factoryStart)))
	p.metrics.buildings(len(buildings))

	if len(buildings) == 0 {
		p.metrics.tile(ResultEmpty)
		return nil
	}

	compileStart := time.Now()
	out, err := p.compiler.Compile(buildings)
	if err != nil || out == nil {
		log.Warn("compile failed", zap.Error(err))
		p.metrics.tile(ResultFailed)
		return nil
	}

	out.SetRange(Bounds(t).Radius * p.rangeFactor)

	node, err := out.CreateSceneGraph(p.session, p.settings)
	if err != nil || node == nil {
		log.Warn("build scene graph failed", zap.Error(err))
		p.metrics.tile(ResultFailed)
		return nil
	}
	node.Name = name

	log.Debug("compiled buildings",
		zap.Int("buildings", len(buildings)),
		zap.Duration("elapsed", time.Since(compileStart)),
		zap.Duration("total", time.Since(start)))
	p.metrics.tile(ResultBuilt)
	return node
}

func (p *Pager) outputSRS() *geo.SRS {
	if p.outSRS != nil {
		return p.outSRS
	}
	return p.session.MapSRS
}
