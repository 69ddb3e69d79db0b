// Package compiler turns building models into triangle meshes and scene
// nodes that a host can page in.
package compiler

import (
	"github.com/paulmach/orb"

	"github.com/Faultbox/buildings/pkg/geo"
	"github.com/Faultbox/buildings/pkg/math"
)

// Vertex is a mesh vertex in the building's local east-north-up frame.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
	Color    [4]float32
}

// SkinGroup groups triangles by skin for batched rendering. An empty Skin
// marks untextured surfaces.
type SkinGroup struct {
	Skin       string
	StartIndex int32
	IndexCount int32
}

// Mesh holds the triangles of one building, or of a merged tile.
type Mesh struct {
	UID       int64
	Transform math.Mat4 // local to world (ECEF)
	Vertices  []Vertex
	Indices   []uint32
	Groups    []SkinGroup
	Bounds    Bounds
}

// Anchor returns the geographic position and ellipsoid height of the mesh's
// local origin.
func (m *Mesh) Anchor() (orb.Point, float64) {
	return geo.WGS84.FromWorld(m.Transform.Translation())
}

// Triangles returns the number of triangles in the mesh.
func (m *Mesh) Triangles() int {
	return len(m.Indices) / 3
}

// Bounds holds the axis-aligned bounding box of a mesh in its local frame.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

func emptyBounds() Bounds {
	return Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
}

func updateBounds(b *Bounds, pos [3]float32) {
	for i := 0; i < 3; i++ {
		if pos[i] < b.Min[i] {
			b.Min[i] = pos[i]
		}
		if pos[i] > b.Max[i] {
			b.Max[i] = pos[i]
		}
	}
}

// Settings controls compilation and scene graph assembly.
type Settings struct {
	// RoofCaps closes flat roofs and parapet tops.
	RoofCaps bool
	// Merge collapses all building meshes of a node into a single mesh.
	Merge bool
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{RoofCaps: true}
}

// Material binds a skin to its texture image.
type Material struct {
	Skin     string
	ImageURI string
}

// Node is the renderable result for one tile.
type Node struct {
	Name string

	// MinRange and MaxRange bound the viewer distance at which the node is
	// visible. A zero MaxRange means unbounded.
	MinRange float64
	MaxRange float64

	Meshes    []*Mesh
	Materials map[string]Material
}

// Triangles returns the total triangle count of the node.
func (n *Node) Triangles() int {
	total := 0
	for _, m := range n.Meshes {
		total += m.Triangles()
	}
	return total
}
