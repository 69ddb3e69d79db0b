// Package feature provides building footprints and the sources that serve
// them per tile.
package feature

import (
	"fmt"
	"maps"
	"strconv"

	"github.com/paulmach/orb"

	"github.com/Faultbox/buildings/pkg/geo"
)

// Feature is one input record: geometry in SRS plus a flat attribute map.
type Feature struct {
	FID        int64
	Geometry   orb.Geometry
	SRS        *geo.SRS
	Attributes map[string]any
}

// New creates a feature with an empty attribute map.
func New(fid int64, g orb.Geometry, srs *geo.SRS) *Feature {
	return &Feature{FID: fid, Geometry: g, SRS: srs, Attributes: map[string]any{}}
}

// Clone returns a deep copy of the geometry and a shallow copy of the
// attribute map.
func (f *Feature) Clone() *Feature {
	out := &Feature{
		FID: f.FID,
		SRS: f.SRS,
	}
	if f.Geometry != nil {
		out.Geometry = orb.Clone(f.Geometry)
	}
	if f.Attributes != nil {
		out.Attributes = maps.Clone(f.Attributes)
	}
	return out
}

// Transform reprojects the geometry into to, replacing it in place.
func (f *Feature) Transform(to *geo.SRS) {
	if to == nil || f.SRS.Equal(to) {
		return
	}
	f.Geometry = f.SRS.Transform(f.Geometry, to)
	f.SRS = to
}

// Bound returns the geometry bounding box in the feature's SRS.
func (f *Feature) Bound() orb.Bound {
	if f.Geometry == nil {
		return orb.Bound{}
	}
	return f.Geometry.Bound()
}

// BoundCenter returns the bounding-box center at zero altitude.
func (f *Feature) BoundCenter() geo.GeoPoint {
	c := f.Bound().Center()
	return geo.NewGeoPoint(f.SRS, c[0], c[1], 0, geo.AltitudeAbsolute)
}

// Has reports whether the attribute is present.
func (f *Feature) Has(key string) bool {
	_, ok := f.Attributes[key]
	return ok
}

// Float returns a numeric attribute. Strings holding numbers are accepted.
func (f *Feature) Float(key string) (float64, bool) {
	switch v := f.Attributes[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseFloat(v, 64)
		return n, err == nil
	}
	return 0, false
}

// String returns an attribute formatted as text, or "" when missing.
func (f *Feature) String(key string) string {
	v, ok := f.Attributes[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
