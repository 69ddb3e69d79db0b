package geo

import (
	gomath "math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// colinearAreaTolerance is the relative area change a ring may undergo
// when colinear vertices are removed.
const colinearAreaTolerance = 1e-6

// OpenRing drops duplicated closing vertices so the first point is not
// repeated at the end.
func OpenRing(r orb.Ring) orb.Ring {
	for len(r) > 1 && r[0] == r[len(r)-1] {
		r = r[:len(r)-1]
	}
	return r
}

// RemoveDuplicates removes consecutive duplicate vertices in place,
// including a trailing vertex equal to the first one.
func RemoveDuplicates(r orb.Ring) orb.Ring {
	if len(r) < 2 {
		return r
	}
	out := r[:1]
	for _, p := range r[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return OpenRing(out)
}

// Rewind reverses the ring in place when its winding differs from o.
// Degenerate rings are left untouched.
func Rewind(r orb.Ring, o orb.Orientation) orb.Ring {
	if len(r) < 3 {
		return r
	}
	if got := r.Orientation(); got != 0 && got != o {
		r.Reverse()
	}
	return r
}

// CleanFootprint returns an open, deduplicated, counter-clockwise copy of
// the ring. Applying it to its own output is a no-op.
func CleanFootprint(r orb.Ring) orb.Ring {
	out := r.Clone()
	out = OpenRing(out)
	out = RemoveDuplicates(out)
	return Rewind(out, orb.CCW)
}

// IsValidRing reports whether the ring has at least three distinct
// vertices and a non-zero area. Self-intersection is not checked.
func IsValidRing(r orb.Ring) bool {
	distinct := RemoveDuplicates(OpenRing(r.Clone()))
	if len(distinct) < 3 {
		return false
	}
	return planar.Area(distinct) != 0
}

// IsValidPolygon reports whether the outer ring of p is valid.
func IsValidPolygon(p orb.Polygon) bool {
	return len(p) > 0 && IsValidRing(p[0])
}

// RemoveColinearPoints returns a copy of g with vertices lying within
// tolerance of the segment joining their neighbours removed from every
// polygon ring. A ring whose area would change by more than a small
// relative amount, or which would collapse, keeps its original vertices.
// Non-polygonal geometries are returned unchanged.
func RemoveColinearPoints(g orb.Geometry, tolerance float64) orb.Geometry {
	switch g := g.(type) {
	case orb.Polygon:
		return removeColinearPolygon(g, tolerance)
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(g))
		for i, p := range g {
			out[i] = removeColinearPolygon(p, tolerance)
		}
		return out
	case orb.Collection:
		out := make(orb.Collection, len(g))
		for i, part := range g {
			out[i] = RemoveColinearPoints(part, tolerance)
		}
		return out
	}
	return g
}

func removeColinearPolygon(p orb.Polygon, tolerance float64) orb.Polygon {
	dp := simplify.DouglasPeucker(tolerance)
	out := make(orb.Polygon, len(p))
	for i, ring := range p {
		// The simplifier works in place.
		reduced := dp.Ring(ring.Clone())
		if keepReduced(ring, reduced) {
			out[i] = reduced
		} else {
			out[i] = ring.Clone()
		}
	}
	return out
}

func keepReduced(orig, reduced orb.Ring) bool {
	if len(RemoveDuplicates(OpenRing(reduced.Clone()))) < 3 {
		return false
	}
	before := gomath.Abs(planar.Area(orig))
	after := gomath.Abs(planar.Area(reduced))
	return gomath.Abs(before-after) <= colinearAreaTolerance*before
}
