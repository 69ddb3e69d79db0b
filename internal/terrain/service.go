// Package terrain samples ground elevation under building footprints.
package terrain

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/Faultbox/buildings/pkg/geo"
)

// NoData marks a point the service has no elevation for.
var NoData = math.NaN()

// IsNoData reports whether v is the NoData marker.
func IsNoData(v float64) bool {
	return math.IsNaN(v)
}

// ElevationService resolves ground heights for a batch of points given in srs.
// The returned slice has one entry per point; unresolved points hold NoData.
// resolution is a hint in the units of the service (0 means finest available).
// A non-nil error means the whole batch failed.
type ElevationService interface {
	Elevations(points []orb.Point, srs *geo.SRS, resolution float64) ([]float64, error)
}

// Flat is a service that reports the same height everywhere.
type Flat float64

// Elevations implements ElevationService.
func (f Flat) Elevations(points []orb.Point, _ *geo.SRS, _ float64) ([]float64, error) {
	out := make([]float64, len(points))
	for i := range out {
		out[i] = float64(f)
	}
	return out, nil
}
