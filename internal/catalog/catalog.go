// Package catalog implements a rule-based building catalog. Rules are tried
// in order; the first whose match clause accepts a feature decides how its
// footprints are subdivided and stacked.
package catalog

import (
	gomath "math"
	"os"
	"slices"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/buildings/internal/building"
	"github.com/Faultbox/buildings/internal/feature"
	"github.com/Faultbox/buildings/internal/logger"
	"github.com/Faultbox/buildings/internal/style"
	"github.com/Faultbox/buildings/pkg/geo"
)

// maxSplitDepth bounds subdivision to 2^maxSplitDepth pieces per footprint.
const maxSplitDepth = 4

// Match selects features by attribute. An empty Key matches everything.
type Match struct {
	Key    string   `yaml:"key"`
	Values []string `yaml:"values"`
}

func (m Match) accepts(f *feature.Feature) bool {
	if m.Key == "" {
		return true
	}
	if !f.Has(m.Key) {
		return false
	}
	if len(m.Values) == 0 {
		return true
	}
	return slices.Contains(m.Values, f.String(m.Key))
}

// Range is an inclusive height range in meters.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Parapet describes the low wall around a flat roof.
type Parapet struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Podium splits a building into a base block and a tower set back by Inset.
type Podium struct {
	Height float64 `yaml:"height"`
	Inset  float64 `yaml:"inset"`
}

// Rule is one catalog entry.
type Rule struct {
	Name        string                   `yaml:"name"`
	Match       Match                    `yaml:"match"`
	MinArea     float64                  `yaml:"min_area"`
	Height      *style.NumericExpression `yaml:"height"`
	HeightRange Range                    `yaml:"height_range"`
	FloorHeight float64                  `yaml:"floor_height"`
	Roof        string                   `yaml:"roof"`
	FacadeTags  []string                 `yaml:"facade_tags"`
	RoofTags    []string                 `yaml:"roof_tags"`
	Color       []float64                `yaml:"color"`
	Parapet     *Parapet                 `yaml:"parapet"`
	Podium      *Podium                  `yaml:"podium"`
	MaxArea     float64                  `yaml:"max_area"` // split footprints larger than this

	roofType building.RoofType
}

// Catalog is an ordered rule list. It is read-only after loading and safe
// for concurrent use.
type Catalog struct {
	Rules []*Rule `yaml:"rules"`
	log   *zap.Logger
}

var _ building.Catalog = (*Catalog)(nil)

// New validates rules and returns a catalog.
func New(rules ...*Rule) (*Catalog, error) {
	c := &Catalog{Rules: rules}
	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) init() error {
	c.log = logger.Named("catalog")
	for i, r := range c.Rules {
		if r == nil {
			return errors.Newf("rule %d is empty", i)
		}
		if r.Name == "" {
			r.Name = "rule-" + strconv.Itoa(i)
		}
		switch r.Roof {
		case "", "flat":
			r.roofType = building.RoofFlat
		case "gable":
			r.roofType = building.RoofGable
		case "hipped":
			r.roofType = building.RoofHipped
		default:
			return errors.Newf("rule %s: unknown roof %q", r.Name, r.Roof)
		}
		if r.HeightRange.Max < r.HeightRange.Min {
			return errors.Newf("rule %s: height_range max %v below min %v", r.Name, r.HeightRange.Max, r.HeightRange.Min)
		}
		if len(r.Color) != 0 && len(r.Color) != 3 {
			return errors.Newf("rule %s: color needs 3 components", r.Name)
		}
	}
	return nil
}

// Parse decodes a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "decoding catalog")
	}
	if err := c.init(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads a YAML catalog from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading catalog %s", path)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return c, nil
}

// RuleFor returns the first rule accepting f, or nil.
func (c *Catalog) RuleFor(f *feature.Feature) *Rule {
	for _, r := range c.Rules {
		if r.Match.accepts(f) {
			return r
		}
	}
	return nil
}

// CreateBuildings implements building.Catalog.
func (c *Catalog) CreateBuildings(f *feature.Feature, session *style.Session, st *style.Style,
	minHeight float64, out []*building.Building, progress building.Progress) []*building.Building {

	rule := c.RuleFor(f)
	if rule == nil {
		c.log.Debug("no catalog rule matches", zap.Int64("fid", f.FID))
		return out
	}

	loc, err := building.Localize(f)
	if err != nil {
		c.log.Warn("cannot localize feature", zap.Int64("fid", f.FID), zap.Error(err))
		return out
	}

	ctx := building.NewBuildContext(f.FID)
	lib := session.Resources()

	for _, fp := range loc.Footprints {
		if rule.MinArea > 0 && gomath.Abs(planar.Area(fp)) < rule.MinArea {
			continue
		}
		for _, piece := range split(fp, rule.MaxArea, maxSplitDepth) {
			b := rule.building(f, piece, lib, st, minHeight, ctx)
			b.ReferenceFrame = loc.LocalToWorld
			if b.Build(piece, ctx) {
				out = append(out, b)
			}
		}
	}
	return out
}

// building lays out the elevations for one footprint.
func (r *Rule) building(f *feature.Feature, fp orb.Ring, lib *style.ResourceLibrary, st *style.Style,
	minHeight float64, ctx *building.BuildContext) *building.Building {

	height := 0.0
	if r.Height != nil {
		height = r.Height.Eval(f)
	}
	if height <= 0 {
		height = ctx.Float64Between(r.HeightRange.Min, r.HeightRange.Max)
	}
	height = gomath.Max(height, minHeight)

	facade := pick(lib, r.FacadeTags, ctx)
	roofSkin := pick(lib, r.RoofTags, ctx)

	unit := r.FloorHeight
	if unit <= 0 {
		unit = st.BuildingSymbol().UnitHeight()
	}
	if facade != nil && facade.ImageHeight > 0 {
		unit = facade.ImageHeight
	}

	var color building.Color
	if len(r.Color) == 3 {
		color = building.Color{R: r.Color[0], G: r.Color[1], B: r.Color[2], A: 1}
	}

	b := building.New(f.FID)
	top := building.NoElevation

	if r.Podium != nil && r.Podium.Height > 0 && r.Podium.Height < height {
		if tower, ok := geo.InsetRing(fp, r.Podium.Inset); ok {
			podium := b.AddElevation(building.NoElevation, building.Elevation{
				Height:    r.Podium.Height,
				NumFloors: building.FloorCount(r.Podium.Height, unit),
				Skin:      facade,
				Color:     color,
				Roof:      &building.Roof{Type: building.RoofFlat, Skin: roofSkin, Color: color},
			})
			rest := height - r.Podium.Height
			top = b.AddElevation(podium, building.Elevation{
				Height:    rest,
				NumFloors: building.FloorCount(rest, unit),
				Skin:      facade,
				Color:     color,
				Footprint: tower,
			})
		}
	}
	if top == building.NoElevation {
		top = b.AddElevation(building.NoElevation, building.Elevation{
			Height:    height,
			NumFloors: building.FloorCount(height, unit),
			Skin:      facade,
			Color:     color,
		})
	}
	b.Elevation(top).Roof = &building.Roof{Type: r.roofType, Skin: roofSkin, Color: color}

	if r.Parapet != nil && r.roofType == building.RoofFlat && r.Parapet.Height > 0 {
		b.AddElevation(top, building.Elevation{
			Height:    r.Parapet.Height,
			Width:     r.Parapet.Width,
			NumFloors: 1,
			Parapet:   true,
			Color:     building.Gray.Brightness(1.3),
			Roof:      &building.Roof{Type: building.RoofFlat, Skin: roofSkin, Color: building.Gray.Brightness(1.2)},
		})
	}
	return b
}

// pick draws a skin carrying every tag. No tags or no match yields nil.
func pick(lib *style.ResourceLibrary, tags []string, ctx *building.BuildContext) *style.SkinResource {
	if len(tags) == 0 {
		return nil
	}
	skins := lib.SkinsWithTags(tags...)
	if len(skins) == 0 {
		return nil
	}
	return skins[ctx.IntN(len(skins))]
}

// split halves fp across its longer side until every piece is at most
// maxArea. maxArea <= 0 disables splitting.
func split(fp orb.Ring, maxArea float64, depth int) []orb.Ring {
	if maxArea <= 0 || depth == 0 || gomath.Abs(planar.Area(fp)) <= maxArea {
		return []orb.Ring{fp}
	}

	b := fp.Bound()
	lo, hi := b, b
	if b.Max[0]-b.Min[0] >= b.Max[1]-b.Min[1] {
		mid := (b.Min[0] + b.Max[0]) / 2
		lo.Max[0], hi.Min[0] = mid, mid
	} else {
		mid := (b.Min[1] + b.Max[1]) / 2
		lo.Max[1], hi.Min[1] = mid, mid
	}

	var out []orb.Ring
	for _, half := range []orb.Bound{lo, hi} {
		closed := append(fp.Clone(), fp[0])
		piece := geo.CleanFootprint(clip.Ring(half, closed))
		if !geo.IsValidRing(piece) {
			continue
		}
		out = append(out, split(piece, maxArea, depth-1)...)
	}
	return out
}
