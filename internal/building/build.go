package building

import (
	gomath "math"

	"github.com/paulmach/orb"

	"github.com/Faultbox/buildings/pkg/geo"
	"github.com/Faultbox/buildings/pkg/math"
)

// FloorCount is max(1, round(height/unit)). A non-positive unit yields 1.
func FloorCount(height, unit float64) int {
	if unit <= 0 || gomath.IsNaN(height) {
		return 1
	}
	n := gomath.Round(height / unit)
	if n < 1 {
		return 1
	}
	return int(n)
}

// Build derives walls for every elevation from footprint, an open
// counter-clockwise ring in the building's local frame. Root elevations
// stand on z=0 and each child stands on top of its parent. It reports
// false, leaving the building untouched, when the footprint is degenerate.
// Elevations without a color get a shade of white drawn from ctx.
func (b *Building) Build(footprint orb.Ring, ctx *BuildContext) bool {
	if !geo.IsValidRing(footprint) {
		return false
	}
	if ctx == nil {
		ctx = NewBuildContext(b.UID)
	}
	for _, id := range b.roots {
		b.buildElevation(id, footprint, 0, ctx)
	}
	return true
}

func (b *Building) buildElevation(id ElevationID, inherited orb.Ring, base float64, ctx *BuildContext) {
	e := &b.arena[id]
	if e.Footprint == nil {
		e.Footprint = inherited.Clone()
	}
	if e.Color == (Color{}) {
		e.Color = White.Brightness(ctx.Float64Between(0.8, 1.0))
	}

	bottom, top := base, base+e.Height
	e.Walls = e.Walls[:0]
	e.Walls = append(e.Walls, Wall{Faces: faces(e.Footprint, bottom, top, false)})

	if e.Parapet && e.Width > 0 {
		if inner, ok := geo.InsetRing(e.Footprint, e.Width); ok {
			e.Walls = append(e.Walls, Wall{Faces: faces(inner, bottom, top, true), Inner: true})
		}
	}

	footprint := e.Footprint
	children := e.Children
	for _, c := range children {
		b.buildElevation(c, footprint, top, ctx)
	}
}

// faces builds one face per ring edge. Inner walls run backwards so their
// outside is the interior of the ring.
func faces(r orb.Ring, bottom, top float64, inner bool) []Face {
	n := len(r)
	out := make([]Face, 0, n)
	corner := func(p orb.Point) Corner {
		return Corner{
			Lower: math.Vec3{X: p[0], Y: p[1], Z: bottom},
			Upper: math.Vec3{X: p[0], Y: p[1], Z: top},
		}
	}
	for i := range r {
		a, c := r[i], r[(i+1)%n]
		if inner {
			a, c = c, a
		}
		out = append(out, Face{Left: corner(a), Right: corner(c)})
	}
	return out
}
