package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/paulmach/orb/maptile"
)

// Extent is a rectangle in a spatial reference. The zero value is invalid
// and contains nothing.
type Extent struct {
	SRS   *SRS
	Bound orb.Bound
}

// NewExtent creates an extent.
func NewExtent(srs *SRS, b orb.Bound) Extent {
	return Extent{SRS: srs, Bound: b}
}

// TileExtent returns the geographic extent of a quadtree tile.
func TileExtent(t maptile.Tile) Extent {
	return Extent{SRS: WGS84, Bound: t.Bound()}
}

// IsValid reports whether the extent has a reference and a positive area.
func (e Extent) IsValid() bool {
	return e.SRS != nil &&
		e.Bound.Min[0] < e.Bound.Max[0] &&
		e.Bound.Min[1] < e.Bound.Max[1]
}

// Center returns the center point of the extent.
func (e Extent) Center() GeoPoint {
	c := e.Bound.Center()
	return GeoPoint{SRS: e.SRS, X: c[0], Y: c[1]}
}

// Contains reports whether p, after reprojection into the extent's SRS,
// lies inside the extent. Points on the boundary are inside.
func (e Extent) Contains(p GeoPoint) bool {
	if !e.IsValid() || p.SRS == nil {
		return false
	}
	return e.Bound.Contains(p.SRS.TransformPoint(p.Point(), e.SRS))
}

// ContainsHalfOpen is Contains with the extent's max edges left out, except
// where they lie on the edge of the world. Extents that tile the world then
// claim every point exactly once.
func (e Extent) ContainsHalfOpen(p GeoPoint) bool {
	if !e.Contains(p) {
		return false
	}
	q := p.SRS.TransformPoint(p.Point(), e.SRS)
	world := e.SRS.worldMax()
	if q[0] >= e.Bound.Max[0] && e.Bound.Max[0] < world[0] {
		return false
	}
	if q[1] >= e.Bound.Max[1] && e.Bound.Max[1] < world[1] {
		return false
	}
	return true
}

// maxLatitude is the northern edge of the quadtree tiling.
const maxLatitude = 85.05112877980659

// worldMax is the upper corner of the tiled world in the SRS, lowered by a
// rounding margin.
func (s *SRS) worldMax() orb.Point {
	const margin = 1e-9
	if s.Equal(Mercator) {
		m := project.WGS84.ToMercator(orb.Point{180, maxLatitude})
		return orb.Point{m[0] * (1 - margin), m[1] * (1 - margin)}
	}
	return orb.Point{180 - margin, maxLatitude - margin}
}

// Transform returns the extent reprojected into another SRS.
func (e Extent) Transform(to *SRS) Extent {
	if e.SRS.Equal(to) {
		return e
	}
	lo := e.SRS.TransformPoint(e.Bound.Min, to)
	hi := e.SRS.TransformPoint(e.Bound.Max, to)
	return Extent{SRS: to, Bound: orb.Bound{Min: lo, Max: lo}.Extend(hi)}
}
