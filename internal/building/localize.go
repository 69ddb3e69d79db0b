package building

import (
	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"

	"github.com/Faultbox/buildings/internal/feature"
	"github.com/Faultbox/buildings/pkg/geo"
	"github.com/Faultbox/buildings/pkg/math"
)

var (
	// ErrNotPolygon is returned for features whose geometry is not areal.
	ErrNotPolygon = errors.New("geometry is not a polygon")
	// ErrNoSRS is returned for features without a spatial reference.
	ErrNoSRS = errors.New("feature has no spatial reference")
)

// Localized is a feature re-expressed in a local east-north-up frame
// anchored at its bounding-box center.
type Localized struct {
	FID          int64
	LocalToWorld math.Mat4
	WorldToLocal math.Mat4
	// Footprints holds one cleaned outer ring per valid polygon.
	Footprints []orb.Ring
	// Skipped counts parts that were not valid polygons.
	Skipped int
}

// Localize transforms every polygon of f into a local frame and cleans the
// outer rings. f is not modified.
func Localize(f *feature.Feature) (*Localized, error) {
	if f == nil || f.Geometry == nil {
		return nil, ErrNotPolygon
	}
	if f.SRS == nil {
		return nil, ErrNoSRS
	}

	polygons, skipped := polygonParts(f.Geometry)
	if len(polygons) == 0 && skipped == 0 {
		return nil, errors.Wrapf(ErrNotPolygon, "%s", f.Geometry.GeoJSONType())
	}

	anchor := f.BoundCenter()
	l2w, w2l := geo.LocalFrame(anchor)

	out := &Localized{
		FID:          f.FID,
		LocalToWorld: l2w,
		WorldToLocal: w2l,
		Skipped:      skipped,
	}
	for _, p := range polygons {
		if !geo.IsValidPolygon(p) {
			out.Skipped++
			continue
		}
		ring := make(orb.Ring, len(p[0]))
		for i, pt := range p[0] {
			local := w2l.TransformPoint(f.SRS.ToWorld(pt, 0))
			ring[i] = orb.Point{local.X, local.Y}
		}
		fp := geo.CleanFootprint(ring)
		if !geo.IsValidRing(fp) {
			out.Skipped++
			continue
		}
		out.Footprints = append(out.Footprints, fp)
	}
	return out, nil
}

// polygonParts splits g into polygons and counts non-areal parts.
func polygonParts(g orb.Geometry) ([]orb.Polygon, int) {
	switch g := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{g}, 0
	case orb.MultiPolygon:
		return []orb.Polygon(g), 0
	case orb.Ring:
		return []orb.Polygon{{g}}, 0
	case orb.Collection:
		var polys []orb.Polygon
		skipped := 0
		for _, part := range g {
			p, s := polygonParts(part)
			if len(p) == 0 && s == 0 {
				s = 1
			}
			polys = append(polys, p...)
			skipped += s
		}
		return polys, skipped
	}
	return nil, 0
}
