package building

import (
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/buildings/internal/feature"
	"github.com/Faultbox/buildings/internal/logger"
	"github.com/Faultbox/buildings/internal/style"
	"github.com/Faultbox/buildings/internal/terrain"
	"github.com/Faultbox/buildings/pkg/geo"
)

// baseMinHeight is the catalog's minimum building height on flat ground.
const baseMinHeight = 3.0

// Factory turns features into buildings. It is configured once and then
// used by a single goroutine per Create call; the session, catalog and
// elevation service it points at must tolerate concurrent reads.
type Factory struct {
	session   *style.Session
	generator Generator
	outSRS    *geo.SRS
	sampler   *terrain.Sampler
	log       *zap.Logger
}

// NewFactory creates a factory bound to session, using the sample
// generator until a catalog or generator is set.
func NewFactory(session *style.Session) *Factory {
	return &Factory{
		session:   session,
		generator: NewSampleGenerator(),
		log:       logger.Named("factory"),
	}
}

// SetCatalog routes generation through c. A nil catalog restores the
// sample generator.
func (f *Factory) SetCatalog(c Catalog) {
	if c == nil {
		f.SetGenerator(nil)
		return
	}
	f.SetGenerator(CatalogGenerator{Catalog: c})
}

// SetGenerator replaces the generator outright.
func (f *Factory) SetGenerator(g Generator) {
	if g == nil {
		g = NewSampleGenerator()
	}
	f.generator = g
}

// SetOutputSRS reprojects every feature into srs before generation.
func (f *Factory) SetOutputSRS(srs *geo.SRS) {
	f.outSRS = srs
}

// SetElevationService enables terrain sampling for clamped styles. Points
// without data are skipped.
func (f *Factory) SetElevationService(svc terrain.ElevationService, resolution float64) {
	if svc == nil {
		f.sampler = nil
		return
	}
	f.sampler = terrain.NewSampler(svc, resolution, true)
}

// SetSampler installs a preconfigured sampler.
func (f *Factory) SetSampler(s *terrain.Sampler) {
	f.sampler = s
}

// Create generates buildings for every feature in cursor and appends them
// to out. Features whose bounding-box center falls outside a valid cropTo
// are skipped so a footprint straddling tiles lands in exactly one.
//
// Features are modified in place (colinear points removed, reprojected),
// so cursors should hand out copies. It returns false only when cursor is
// nil; an empty result is still a success.
func (f *Factory) Create(cursor feature.Cursor, cropTo geo.Extent, st *style.Style, out []*Building, progress Progress) ([]*Building, bool) {
	if cursor == nil {
		return out, false
	}

	start := time.Now()
	needToClamp := st.NeedsClamping()
	seen, cropped := 0, 0
	first := len(out)

	for cursor.HasMore() {
		feat := cursor.Next()
		if feat == nil || feat.Geometry == nil {
			continue
		}
		seen++
		if feat.SRS == nil {
			f.log.Warn("feature has no spatial reference, skipping", zap.Int64("fid", feat.FID))
			continue
		}

		feat.Geometry = geo.RemoveColinearPoints(feat.Geometry, feat.SRS.ColinearTolerance())

		if f.outSRS != nil {
			feat.Transform(f.outSRS)
		}

		if !cropToCenter(feat, cropTo) {
			cropped++
			f.log.Debug("feature center outside extent", zap.Int64("fid", feat.FID))
			continue
		}

		var min, max float64
		ok := false
		if needToClamp {
			min, max, ok = f.sampler.SampleMinMax(terrain.Parts(feat.Geometry), feat.SRS)
		}

		minHeight := baseMinHeight
		if ok && min < max {
			minHeight = max - min + baseMinHeight
		}

		offset := len(out)
		out = f.generator.Generate(&Request{
			Feature:   feat,
			Session:   f.session,
			Style:     st,
			MinHeight: minHeight,
			Progress:  progress,
		}, out)

		if ok {
			ClampToTerrain(out[offset:], min)
		}
		notify(progress, feat.FID, len(out)-offset)
	}

	f.log.Debug("features processed",
		zap.Int("features", seen),
		zap.Int("cropped", cropped),
		zap.Int("buildings", len(out)-first),
		zap.Duration("elapsed", time.Since(start)))
	return out, true
}

// cropToCenter reports whether the feature belongs to extent. The extent is
// half-open so a center on a shared tile edge lands in one tile only. An
// invalid extent accepts everything.
func cropToCenter(feat *feature.Feature, extent geo.Extent) bool {
	if !extent.IsValid() {
		return true
	}
	return extent.ContainsHalfOpen(feat.BoundCenter())
}
