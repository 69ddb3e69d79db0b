package terrain

import (
	"math"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/Faultbox/buildings/internal/logger"
	"github.com/Faultbox/buildings/pkg/geo"
)

// Sampler reduces per-point elevations along a footprint to a min/max pair.
// It never fails: missing terrain simply means ok is false.
type Sampler struct {
	service          ElevationService
	resolution       float64
	fallbackOnNoData bool
	log              *zap.Logger
}

// NewSampler wraps service. With fallbackOnNoData set, points without data are
// skipped; otherwise a single missing point discards its whole part.
func NewSampler(service ElevationService, resolution float64, fallbackOnNoData bool) *Sampler {
	return &Sampler{
		service:          service,
		resolution:       resolution,
		fallbackOnNoData: fallbackOnNoData,
		log:              logger.Named("terrain"),
	}
}

// SampleMinMax queries every part separately and folds all resolved samples.
// When nothing resolves, min is +Inf and max is -Inf.
func (s *Sampler) SampleMinMax(parts [][]orb.Point, srs *geo.SRS) (min, max float64, ok bool) {
	min, max = math.Inf(1), math.Inf(-1)
	if s == nil || s.service == nil {
		return min, max, false
	}

	for i, part := range parts {
		if len(part) == 0 {
			continue
		}
		elevations, err := s.service.Elevations(part, srs, s.resolution)
		if err != nil {
			s.log.Debug("elevation query failed", zap.Int("part", i), zap.Error(err))
			continue
		}

		partMin, partMax := math.Inf(1), math.Inf(-1)
		resolved := 0
		complete := true
		for _, e := range elevations {
			if IsNoData(e) {
				complete = false
				continue
			}
			partMin = math.Min(partMin, e)
			partMax = math.Max(partMax, e)
			resolved++
		}
		if resolved == 0 || (!complete && !s.fallbackOnNoData) {
			continue
		}

		min = math.Min(min, partMin)
		max = math.Max(max, partMax)
		ok = true
	}
	return min, max, ok
}

// Parts flattens the rings of a geometry into point lists, one per ring.
// Non-areal geometries yield their vertices as a single part.
func Parts(g orb.Geometry) [][]orb.Point {
	var out [][]orb.Point
	switch g := g.(type) {
	case orb.Ring:
		out = append(out, []orb.Point(g))
	case orb.Polygon:
		for _, r := range g {
			out = append(out, []orb.Point(r))
		}
	case orb.MultiPolygon:
		for _, p := range g {
			out = append(out, Parts(p)...)
		}
	case orb.LineString:
		out = append(out, []orb.Point(g))
	case orb.MultiPoint:
		out = append(out, []orb.Point(g))
	case orb.Point:
		out = append(out, []orb.Point{g})
	case orb.Collection:
		for _, c := range g {
			out = append(out, Parts(c)...)
		}
	}
	return out
}
