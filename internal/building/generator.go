package building

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/buildings/internal/feature"
	"github.com/Faultbox/buildings/internal/logger"
	"github.com/Faultbox/buildings/internal/style"
)

// Skin names the sample generator looks for in the resource library.
const (
	SampleFacadeSkin = "facade.commercial.1"
	SampleRoofSkin   = "roof.commercial.1"
)

// Defaults of the sample generator.
const (
	DefaultHeight    = 15.0
	DefaultNumFloors = 1
	ParapetWidth     = 2.0
	ParapetHeight    = 2.0
)

// Request is everything a generator gets for one feature.
type Request struct {
	Feature   *feature.Feature
	Session   *style.Session
	Style     *style.Style
	MinHeight float64
	Progress  Progress
}

// Generator appends the buildings for one feature to out.
type Generator interface {
	Generate(req *Request, out []*Building) []*Building
}

// Catalog is a rule set that may produce any number of buildings from one
// footprint. minHeight is a lower bound on the generated height.
type Catalog interface {
	CreateBuildings(f *feature.Feature, session *style.Session, st *style.Style,
		minHeight float64, out []*Building, progress Progress) []*Building
}

// CatalogGenerator adapts a Catalog to Generator.
type CatalogGenerator struct {
	Catalog Catalog
}

// Generate implements Generator.
func (g CatalogGenerator) Generate(req *Request, out []*Building) []*Building {
	return g.Catalog.CreateBuildings(req.Feature, req.Session, req.Style, req.MinHeight, out, req.Progress)
}

// SampleGenerator builds one flat-roofed block with a parapet per polygon.
type SampleGenerator struct {
	log *zap.Logger
}

// NewSampleGenerator creates the default generator.
func NewSampleGenerator() *SampleGenerator {
	return &SampleGenerator{log: logger.Named("factory")}
}

// Generate implements Generator.
func (g *SampleGenerator) Generate(req *Request, out []*Building) []*Building {
	f := req.Feature
	loc, err := Localize(f)
	if err != nil {
		if errors.Is(err, ErrNotPolygon) {
			g.log.Warn("feature is not a polygon, skipping", zap.Int64("fid", f.FID), zap.Error(err))
		} else {
			g.log.Warn("cannot localize feature", zap.Int64("fid", f.FID), zap.Error(err))
		}
		return out
	}
	if loc.Skipped > 0 {
		g.log.Warn("skipped non-polygon parts", zap.Int64("fid", f.FID), zap.Int("parts", loc.Skipped))
	}

	for _, fp := range loc.Footprints {
		b := g.sampleBuilding(f, req.Session, req.Style)
		b.ReferenceFrame = loc.LocalToWorld
		if b.Build(fp, NewBuildContext(f.FID)) {
			out = append(out, b)
		}
	}
	return out
}

// heightSymbol picks the building symbol of st, else the session default.
func heightSymbol(session *style.Session, st *style.Style) *style.BuildingSymbol {
	if sym := st.BuildingSymbol(); sym != nil {
		return sym
	}
	return session.DefaultStyle().BuildingSymbol()
}

func (g *SampleGenerator) sampleBuilding(f *feature.Feature, session *style.Session, st *style.Style) *Building {
	b := New(f.FID)

	height := DefaultHeight
	numFloors := DefaultNumFloors

	roof := &Roof{Type: RoofFlat, Color: White}
	main := Elevation{Roof: roof, Color: White}

	lib := session.Resources()
	wallSkin := lib.Skin(SampleFacadeSkin)
	roofSkin := lib.Skin(SampleRoofSkin)
	main.Skin = wallSkin
	roof.Skin = roofSkin

	if sym := heightSymbol(session, st); sym != nil {
		if sym.Height != nil {
			height = sym.Height.Eval(f)
		}
		unit := sym.UnitHeight()
		if wallSkin != nil && wallSkin.ImageHeight > 0 {
			unit = wallSkin.ImageHeight
		}
		numFloors = FloorCount(height, unit)
	}
	main.Height = height
	main.NumFloors = numFloors

	id := b.AddElevation(NoElevation, main)
	b.AddElevation(id, Elevation{
		Height:    ParapetHeight,
		Width:     ParapetWidth,
		NumFloors: 1,
		Parapet:   true,
		Color:     Gray.Brightness(1.3),
		Roof: &Roof{
			Type:  RoofFlat,
			Skin:  roofSkin,
			Color: Gray.Brightness(1.2),
		},
	})
	return b
}
