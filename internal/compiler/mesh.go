package compiler

import (
	gomath "math"

	"github.com/paulmach/orb"

	"github.com/Faultbox/buildings/internal/building"
	"github.com/Faultbox/buildings/internal/style"
	"github.com/Faultbox/buildings/pkg/geo"
	"github.com/Faultbox/buildings/pkg/math"
)

// meshBuilder accumulates triangles per skin and keeps the skin order of
// first use so output is stable.
type meshBuilder struct {
	vertices []Vertex
	groups   map[string][]uint32
	order    []string
	bounds   Bounds
}

func newMeshBuilder() *meshBuilder {
	return &meshBuilder{
		groups: make(map[string][]uint32),
		bounds: emptyBounds(),
	}
}

func (mb *meshBuilder) add(skin string, v ...Vertex) {
	if _, ok := mb.groups[skin]; !ok {
		mb.order = append(mb.order, skin)
	}
	base := uint32(len(mb.vertices))
	for i, vert := range v {
		updateBounds(&mb.bounds, vert.Position)
		mb.vertices = append(mb.vertices, vert)
		mb.groups[skin] = append(mb.groups[skin], base+uint32(i))
	}
}

// quad adds the two triangles (a, b, c) and (a, c, d).
func (mb *meshBuilder) quad(skin string, a, b, c, d Vertex) {
	mb.add(skin, a, b, c, a, c, d)
}

func (mb *meshBuilder) mesh(uid int64, frame math.Mat4) *Mesh {
	if len(mb.vertices) == 0 {
		return nil
	}
	m := &Mesh{
		UID:       uid,
		Transform: frame,
		Vertices:  mb.vertices,
		Bounds:    mb.bounds,
	}
	for _, skin := range mb.order {
		idxs := mb.groups[skin]
		m.Groups = append(m.Groups, SkinGroup{
			Skin:       skin,
			StartIndex: int32(len(m.Indices)),
			IndexCount: int32(len(idxs)),
		})
		m.Indices = append(m.Indices, idxs...)
	}
	return m
}

// buildMesh converts one building. It returns nil when the building has no
// walls.
func buildMesh(b *building.Building, settings Settings) *Mesh {
	mb := newMeshBuilder()
	b.Walk(func(_ building.ElevationID, e *building.Elevation, _ int) {
		for _, w := range e.Walls {
			addWall(mb, w, e)
		}
		if !settings.RoofCaps || e.Roof == nil || len(e.Walls) == 0 {
			return
		}
		top := wallTop(e.Walls[0])
		if e.Parapet {
			addParapetTop(mb, e, top)
			return
		}
		// TODO: emit sloped geometry for RoofGable and RoofHipped; they are
		// capped flat for now.
		addRoofCap(mb, e.Footprint, top, e.Roof)
	})
	return mb.mesh(b.UID, b.ReferenceFrame)
}

func addWall(mb *meshBuilder, w building.Wall, e *building.Elevation) {
	skin, texW, texH := skinInfo(e.Skin)
	color := colorOf(e.Color)
	for _, f := range w.Faces {
		ll, lr := f.Left.Lower, f.Right.Lower
		ul, ur := f.Left.Upper, f.Right.Upper
		normal := lr.Sub(ll).Cross(ul.Sub(ll)).Normalize()
		if normal.Length() == 0 {
			continue
		}
		n := normal.Float32()
		u := float32(f.Width() / texW)
		v := float32((ul.Z - ll.Z) / texH)
		mb.quad(skin,
			Vertex{Position: ll.Float32(), Normal: n, TexCoord: [2]float32{0, 0}, Color: color},
			Vertex{Position: lr.Float32(), Normal: n, TexCoord: [2]float32{u, 0}, Color: color},
			Vertex{Position: ur.Float32(), Normal: n, TexCoord: [2]float32{u, v}, Color: color},
			Vertex{Position: ul.Float32(), Normal: n, TexCoord: [2]float32{0, v}, Color: color},
		)
	}
}

func addRoofCap(mb *meshBuilder, fp orb.Ring, z float64, roof *building.Roof) {
	skin, texW, texH := skinInfo(roof.Skin)
	color := colorOf(roof.Color)
	up := [3]float32{0, 0, 1}
	vert := func(p orb.Point) Vertex {
		return Vertex{
			Position: [3]float32{float32(p[0]), float32(p[1]), float32(z)},
			Normal:   up,
			TexCoord: [2]float32{float32(p[0] / texW), float32(p[1] / texH)},
			Color:    color,
		}
	}
	for _, t := range triangulate(fp) {
		mb.add(skin, vert(fp[t[0]]), vert(fp[t[1]]), vert(fp[t[2]]))
	}
}

// addParapetTop closes the band between a parapet's outer and inner walls.
func addParapetTop(mb *meshBuilder, e *building.Elevation, z float64) {
	outer := e.Footprint
	inner, ok := geo.InsetRing(outer, e.Width)
	if !ok || len(inner) != len(outer) {
		return
	}
	skin, texW, texH := skinInfo(e.Roof.Skin)
	color := colorOf(e.Roof.Color)
	up := [3]float32{0, 0, 1}
	vert := func(p orb.Point) Vertex {
		return Vertex{
			Position: [3]float32{float32(p[0]), float32(p[1]), float32(z)},
			Normal:   up,
			TexCoord: [2]float32{float32(p[0] / texW), float32(p[1] / texH)},
			Color:    color,
		}
	}
	n := len(outer)
	for i := range outer {
		j := (i + 1) % n
		mb.quad(skin, vert(outer[i]), vert(outer[j]), vert(inner[j]), vert(inner[i]))
	}
}

func wallTop(w building.Wall) float64 {
	top := gomath.Inf(-1)
	for _, f := range w.Faces {
		top = gomath.Max(top, gomath.Max(f.Left.Upper.Z, f.Right.Upper.Z))
	}
	return top
}

// skinInfo returns the group key and the real-world texture size of a
// skin. Unskinned surfaces repeat every meter.
func skinInfo(s *style.SkinResource) (string, float64, float64) {
	if s == nil {
		return "", 1, 1
	}
	w, h := s.ImageWidth, s.ImageHeight
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return s.Name, w, h
}

func colorOf(c building.Color) [4]float32 {
	return [4]float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}
}
