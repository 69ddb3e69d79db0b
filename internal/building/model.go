// Package building turns footprints into structured building models.
//
// A Building owns its elevations in an arena; elevations refer to each other
// by ElevationID, so the tree has no pointer cycles. Parents are looked up
// through the arena and children are listed in order.
package building

import (
	gomath "math"

	"github.com/paulmach/orb"

	"github.com/Faultbox/buildings/internal/style"
	"github.com/Faultbox/buildings/pkg/math"
)

// RoofType selects the roof shape.
type RoofType int

const (
	RoofFlat RoofType = iota
	RoofGable
	RoofHipped
)

func (t RoofType) String() string {
	switch t {
	case RoofFlat:
		return "flat"
	case RoofGable:
		return "gable"
	case RoofHipped:
		return "hipped"
	}
	return "unknown"
}

// Color is linear RGBA in [0, 1].
type Color struct {
	R, G, B, A float64
}

var (
	White = Color{1, 1, 1, 1}
	Gray  = Color{128.0 / 255.0, 128.0 / 255.0, 128.0 / 255.0, 1}
)

// Brightness scales the color channels by f, clamped to [0, 1]. Alpha is kept.
func (c Color) Brightness(f float64) Color {
	scale := func(v float64) float64 {
		return gomath.Min(1, gomath.Max(0, v*f))
	}
	return Color{scale(c.R), scale(c.G), scale(c.B), c.A}
}

// Roof caps an elevation.
type Roof struct {
	Type  RoofType
	Skin  *style.SkinResource
	Color Color
}

// Corner is one vertical wall edge in local coordinates.
type Corner struct {
	Lower, Upper math.Vec3
}

// Face is a wall quad between two corners, left to right when seen from
// outside.
type Face struct {
	Left, Right Corner
}

// Width returns the horizontal length of the face.
func (f Face) Width() float64 {
	d := f.Right.Lower.Sub(f.Left.Lower)
	return gomath.Hypot(d.X, d.Y)
}

// Wall is the ring of faces along one footprint ring.
type Wall struct {
	Faces []Face
	Inner bool // faces the inside of the footprint, e.g. a parapet's back side
}

// ElevationID addresses an elevation inside its Building.
type ElevationID int

// NoElevation is the parent of root elevations.
const NoElevation ElevationID = -1

// Elevation is one vertical section of a building.
type Elevation struct {
	Height    float64
	NumFloors int
	Roof      *Roof
	Skin      *style.SkinResource
	Color     Color

	// Footprint overrides the footprint inherited from the parent. Left nil,
	// Build fills it with the parent's (or the building's) footprint.
	Footprint orb.Ring

	// Parapet elevations build an outer and an inner wall, Width apart.
	Parapet bool
	Width   float64

	Parent   ElevationID
	Children []ElevationID

	// Walls are derived by Building.Build.
	Walls []Wall
}

// Building is a generated model in a local east-north-up frame.
type Building struct {
	UID            int64
	ReferenceFrame math.Mat4 // local to world (ECEF)

	roots []ElevationID
	arena []Elevation
}

// New creates an empty building with an identity frame.
func New(uid int64) *Building {
	return &Building{UID: uid, ReferenceFrame: math.Identity()}
}

// AddElevation stores e under parent (NoElevation for a root) and returns
// its handle.
func (b *Building) AddElevation(parent ElevationID, e Elevation) ElevationID {
	id := ElevationID(len(b.arena))
	e.Parent = parent
	e.Children = nil
	b.arena = append(b.arena, e)
	if parent == NoElevation {
		b.roots = append(b.roots, id)
	} else {
		p := &b.arena[parent]
		p.Children = append(p.Children, id)
	}
	return id
}

// Elevation returns the elevation for id. The pointer is invalidated by the
// next AddElevation.
func (b *Building) Elevation(id ElevationID) *Elevation {
	return &b.arena[id]
}

// Roots returns the top-level elevations in order.
func (b *Building) Roots() []ElevationID {
	return b.roots
}

// Len returns the total number of elevations.
func (b *Building) Len() int {
	return len(b.arena)
}

// Walk visits every elevation depth first, parents before children.
func (b *Building) Walk(fn func(id ElevationID, e *Elevation, depth int)) {
	var visit func(id ElevationID, depth int)
	visit = func(id ElevationID, depth int) {
		fn(id, &b.arena[id], depth)
		for _, c := range b.arena[id].Children {
			visit(c, depth+1)
		}
	}
	for _, r := range b.roots {
		visit(r, 0)
	}
}

// Top returns the highest wall point, 0 for an unbuilt building.
func (b *Building) Top() float64 {
	top := 0.0
	for i := range b.arena {
		for _, w := range b.arena[i].Walls {
			for _, f := range w.Faces {
				top = gomath.Max(top, gomath.Max(f.Left.Upper.Z, f.Right.Upper.Z))
			}
		}
	}
	return top
}
