package geo

import (
	gomath "math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// InsetRing offsets every edge of an open counter-clockwise ring inward by d
// and joins neighbouring edges at their mitred intersection. It reports
// false when the inset ring degenerates (flips or vanishes), which happens
// when d is large compared to the ring.
func InsetRing(r orb.Ring, d float64) (orb.Ring, bool) {
	n := len(r)
	if n < 3 || d <= 0 {
		return nil, false
	}

	out := make(orb.Ring, n)
	for i := range r {
		prev := r[(i+n-1)%n]
		cur := r[i]
		next := r[(i+1)%n]

		e0 := orb.Point{cur[0] - prev[0], cur[1] - prev[1]}
		e1 := orb.Point{next[0] - cur[0], next[1] - cur[1]}
		n0, ok0 := leftNormal(e0)
		n1, ok1 := leftNormal(e1)
		if !ok0 || !ok1 {
			return nil, false
		}

		// Lines a + s*e0 and b + t*e1.
		a := orb.Point{prev[0] + d*n0[0], prev[1] + d*n0[1]}
		b := orb.Point{cur[0] + d*n1[0], cur[1] + d*n1[1]}

		den := e0[0]*e1[1] - e0[1]*e1[0]
		if gomath.Abs(den) < 1e-12*(e0[0]*e0[0]+e0[1]*e0[1]) {
			// straight continuation
			out[i] = b
			continue
		}
		s := ((b[0]-a[0])*e1[1] - (b[1]-a[1])*e1[0]) / den
		out[i] = orb.Point{a[0] + s*e0[0], a[1] + s*e0[1]}
	}

	// A mitred ring inset past half the ring's width comes back
	// point-reflected; its edges then run against their source edges.
	for i := range r {
		j := (i + 1) % n
		src := orb.Point{r[j][0] - r[i][0], r[j][1] - r[i][1]}
		dst := orb.Point{out[j][0] - out[i][0], out[j][1] - out[i][1]}
		if src[0]*dst[0]+src[1]*dst[1] <= 0 {
			return nil, false
		}
	}

	before := planar.Area(r)
	after := planar.Area(out)
	if before <= 0 || after <= 0 || after >= before {
		return nil, false
	}
	return out, true
}

func leftNormal(e orb.Point) (orb.Point, bool) {
	l := gomath.Hypot(e[0], e[1])
	if l == 0 {
		return orb.Point{}, false
	}
	return orb.Point{-e[1] / l, e[0] / l}, true
}
