package pager

import (
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb/maptile"

	"github.com/Faultbox/buildings/pkg/geo"
	"github.com/Faultbox/buildings/pkg/math"
)

// Sphere bounds a tile on the earth's surface.
type Sphere struct {
	Center math.Vec3 // ECEF meters
	Radius float64   // meters
}

// Bounds returns the bounding sphere of a tile: centered on the tile center
// and reaching its farthest corner along the great circle.
func Bounds(t maptile.Tile) Sphere {
	b := t.Bound()
	c := b.Center()
	center := s2.LatLngFromDegrees(c[1], c[0])

	radius := 0.0
	for _, p := range [][2]float64{
		{b.Min[0], b.Min[1]},
		{b.Max[0], b.Min[1]},
		{b.Max[0], b.Max[1]},
		{b.Min[0], b.Max[1]},
	} {
		d := center.Distance(s2.LatLngFromDegrees(p[1], p[0])).Radians() * geo.SemiMajorAxis
		if d > radius {
			radius = d
		}
	}

	return Sphere{
		Center: geo.GeodeticToECEF(c[0], c[1], 0),
		Radius: radius,
	}
}
