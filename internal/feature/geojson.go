package feature

import (
	"math"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb/geojson"

	"github.com/Faultbox/buildings/pkg/geo"
)

// GeoJSONOptions controls how a FeatureCollection becomes features.
type GeoJSONOptions struct {
	// SRS of the coordinates. GeoJSON is WGS84 unless a producer says
	// otherwise, so nil means WGS84.
	SRS *geo.SRS
	// FIDProperty names a property holding the identifier, used when the
	// feature has no numeric "id" member.
	FIDProperty string
}

// ParseGeoJSON decodes a FeatureCollection. Features without geometry are
// dropped. FIDs come from the "id" member, then FIDProperty, then the
// 1-based position in the collection.
func ParseGeoJSON(data []byte, opts GeoJSONOptions) ([]*Feature, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "decoding feature collection")
	}

	srs := opts.SRS
	if srs == nil {
		srs = geo.WGS84
	}

	out := make([]*Feature, 0, len(fc.Features))
	for i, gf := range fc.Features {
		if gf.Geometry == nil {
			continue
		}
		fid, ok := toFID(gf.ID)
		if !ok && opts.FIDProperty != "" {
			fid, ok = toFID(gf.Properties[opts.FIDProperty])
		}
		if !ok {
			fid = int64(i + 1)
		}

		f := New(fid, gf.Geometry, srs)
		for k, v := range gf.Properties {
			f.Attributes[k] = v
		}
		out = append(out, f)
	}
	return out, nil
}

// LoadGeoJSON reads a FeatureCollection file into an indexed source.
func LoadGeoJSON(path string, opts GeoJSONOptions) (*MemorySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	features, err := ParseGeoJSON(data, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return NewMemorySource(features...)
}

func toFID(v any) (int64, bool) {
	switch v := v.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}
