package compiler

import (
	"github.com/paulmach/orb"
	"github.com/rclancey/earcut"
)

// triangulate splits a ring into triangles with earcut. The returned index
// triples point into r and wind counter-clockwise. A closing point equal to
// the first is ignored.
func triangulate(r orb.Ring) [][3]int {
	n := len(r)
	if n > 1 && r[0] == r[n-1] {
		n--
	}
	if n < 3 {
		return nil
	}

	flat := make([]float64, 0, 2*n)
	for _, p := range r[:n] {
		flat = append(flat, p[0], p[1])
	}
	idx, err := earcut.Earcut(flat, nil, 2)
	if err != nil {
		return nil
	}

	tris := make([][3]int, 0, len(idx)/3)
	for i := 0; i+2 < len(idx); i += 3 {
		a, b, c := idx[i], idx[i+1], idx[i+2]
		switch ccw := cross(r[a], r[b], r[c]); {
		case ccw > 0:
			tris = append(tris, [3]int{a, b, c})
		case ccw < 0:
			tris = append(tris, [3]int{a, c, b})
		}
	}
	return tris
}

// cross is the z component of (b-a) x (c-b); positive for a left turn.
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-b[1]) - (b[1]-a[1])*(c[0]-b[0])
}
