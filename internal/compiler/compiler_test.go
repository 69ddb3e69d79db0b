package compiler

import (
	"bytes"
	gomath "math"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/buildings/internal/building"
	"github.com/Faultbox/buildings/internal/style"
	"github.com/Faultbox/buildings/pkg/geo"
	"github.com/Faultbox/buildings/pkg/math"
)

var square = orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

func box(t *testing.T, uid int64, parapet bool, skin *style.SkinResource) *building.Building {
	t.Helper()
	b := building.New(uid)
	root := b.AddElevation(building.NoElevation, building.Elevation{
		Height:    10,
		NumFloors: 3,
		Skin:      skin,
		Color:     building.White,
		Roof:      &building.Roof{Type: building.RoofFlat, Color: building.Gray},
	})
	if parapet {
		b.AddElevation(root, building.Elevation{
			Height:    2,
			NumFloors: 1,
			Parapet:   true,
			Width:     2,
			Color:     building.Gray,
			Roof:      &building.Roof{Type: building.RoofFlat, Color: building.Gray},
		})
	}
	require.True(t, b.Build(square, nil))
	return b
}

func TestCompileBox(t *testing.T) {
	out, err := New(DefaultSettings()).Compile([]*building.Building{box(t, 7, false, nil)})
	require.NoError(t, err)
	require.Len(t, out.Meshes, 1)

	m := out.Meshes[0]
	assert.Equal(t, int64(7), m.UID)
	assert.Equal(t, 10, m.Triangles(), "4 wall quads and a 2 triangle roof")
	assert.Equal(t, [3]float32{0, 0, 0}, m.Bounds.Min)
	assert.Equal(t, [3]float32{10, 10, 10}, m.Bounds.Max)

	// First face runs along the south edge; its normal points south.
	assert.InDelta(t, -1, m.Vertices[0].Normal[1], 1e-6)
	assert.InDelta(t, 0, m.Vertices[0].Normal[2], 1e-6)

	ups := 0
	for _, v := range m.Vertices {
		if v.Normal == [3]float32{0, 0, 1} {
			ups++
			assert.Equal(t, float32(10), v.Position[2])
		}
	}
	assert.Equal(t, 6, ups)
}

func TestCompileWallNormalsPointOutward(t *testing.T) {
	out, err := New(Settings{}).Compile([]*building.Building{box(t, 1, false, nil)})
	require.NoError(t, err)

	m := out.Meshes[0]
	for i := 0; i < len(m.Indices); i += 3 {
		a := m.Vertices[m.Indices[i]]
		center := orb.Point{5, 5}
		dx := float64(a.Position[0]) - center[0]
		dy := float64(a.Position[1]) - center[1]
		dot := dx*float64(a.Normal[0]) + dy*float64(a.Normal[1])
		assert.Greater(t, dot, 0.0)
	}
}

func TestCompileWithoutRoofCaps(t *testing.T) {
	out, err := New(Settings{RoofCaps: false}).Compile([]*building.Building{box(t, 1, true, nil)})
	require.NoError(t, err)
	assert.Equal(t, 8+16, out.Meshes[0].Triangles(), "outer walls of both elevations plus the parapet's inner wall")
}

func TestCompileParapet(t *testing.T) {
	out, err := New(DefaultSettings()).Compile([]*building.Building{box(t, 1, true, nil)})
	require.NoError(t, err)

	m := out.Meshes[0]
	// Main: 8 wall + 2 roof. Parapet: 8 outer + 8 inner + 8 top band.
	assert.Equal(t, 34, m.Triangles())
	assert.Equal(t, float32(12), m.Bounds.Max[2])
}

func TestCompileSkinGroups(t *testing.T) {
	facade := &style.SkinResource{Name: "facade", ImageWidth: 5, ImageHeight: 2.5}
	out, err := New(DefaultSettings()).Compile([]*building.Building{box(t, 1, false, facade)})
	require.NoError(t, err)

	m := out.Meshes[0]
	require.Len(t, m.Groups, 2)
	assert.Equal(t, "facade", m.Groups[0].Skin)
	assert.Equal(t, int32(24), m.Groups[0].IndexCount)
	assert.Equal(t, "", m.Groups[1].Skin)
	assert.Equal(t, int32(6), m.Groups[1].IndexCount)

	maxUV := [2]float32{}
	for _, i := range m.Indices[:24] {
		tc := m.Vertices[i].TexCoord
		maxUV[0] = float32(gomath.Max(float64(maxUV[0]), float64(tc[0])))
		maxUV[1] = float32(gomath.Max(float64(maxUV[1]), float64(tc[1])))
	}
	assert.Equal(t, [2]float32{2, 4}, maxUV)
}

func TestCompileSkipsUnbuilt(t *testing.T) {
	out, err := New(DefaultSettings()).Compile([]*building.Building{building.New(3)})
	require.NoError(t, err)
	assert.Empty(t, out.Meshes)

	_, err = New(DefaultSettings()).Compile([]*building.Building{nil})
	assert.Error(t, err)
}

func TestCreateSceneGraphEmpty(t *testing.T) {
	out, err := New(DefaultSettings()).Compile(nil)
	require.NoError(t, err)

	node, err := out.CreateSceneGraph(nil, DefaultSettings())
	assert.Nil(t, node)
	assert.ErrorIs(t, err, ErrEmptyOutput)
}

func TestCreateSceneGraph(t *testing.T) {
	facade := &style.SkinResource{Name: "facade", ImageURI: "textures/facade.png", ImageWidth: 5, ImageHeight: 3}
	sheet := style.NewSheet("test")
	sheet.Library = style.NewResourceLibrary("lib")
	sheet.Library.AddSkin(facade)
	session := style.NewSession(sheet, geo.WGS84)

	missing := &style.SkinResource{Name: "missing"}
	out, err := New(DefaultSettings()).Compile([]*building.Building{
		box(t, 1, false, facade),
		box(t, 2, false, missing),
	})
	require.NoError(t, err)
	out.SetRange(1200)

	node, err := out.CreateSceneGraph(session, DefaultSettings())
	require.NoError(t, err)
	assert.Len(t, node.Meshes, 2)
	assert.Equal(t, 1200.0, node.MaxRange)
	assert.Equal(t, 20, node.Triangles())
	require.Contains(t, node.Materials, "facade")
	assert.Equal(t, "textures/facade.png", node.Materials["facade"].ImageURI)
	assert.NotContains(t, node.Materials, "missing")
}

func TestCreateSceneGraphMerge(t *testing.T) {
	a := box(t, 1, false, nil)
	b := box(t, 2, false, nil)
	b.ReferenceFrame = math.Translate(100, 0, 0)

	out, err := New(DefaultSettings()).Compile([]*building.Building{a, b})
	require.NoError(t, err)

	node, err := out.CreateSceneGraph(nil, Settings{RoofCaps: true, Merge: true})
	require.NoError(t, err)
	require.Len(t, node.Meshes, 1)

	m := node.Meshes[0]
	assert.Equal(t, 20, m.Triangles())
	assert.Equal(t, float32(110), m.Bounds.Max[0])
	assert.Equal(t, float32(0), m.Bounds.Min[0])
	assert.Len(t, m.Groups, 1)
}

func TestMeshAnchor(t *testing.T) {
	b := box(t, 3, false, nil)
	b.ReferenceFrame = geo.NewGeoPoint(geo.WGS84, 13.4, 52.5, 40, geo.AltitudeAbsolute).LocalToWorld()

	out, err := New(DefaultSettings()).Compile([]*building.Building{b})
	require.NoError(t, err)
	require.Len(t, out.Meshes, 1)

	at, h := out.Meshes[0].Anchor()
	assert.InDelta(t, 13.4, at[0], 1e-7)
	assert.InDelta(t, 52.5, at[1], 1e-7)
	assert.InDelta(t, 40, h, 1e-3)
}

func TestTriangulate(t *testing.T) {
	tests := []struct {
		name string
		ring orb.Ring
		tris int
	}{
		{"square", square, 2},
		{"closed square", append(square.Clone(), square[0]), 2},
		{"clockwise", orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}}, 2},
		{"l shape", orb.Ring{{0, 0}, {10, 0}, {10, 4}, {4, 4}, {4, 10}, {0, 10}}, 4},
		{"u shape", orb.Ring{{0, 0}, {10, 0}, {10, 10}, {7, 10}, {7, 3}, {3, 3}, {3, 10}, {0, 10}}, 6},
		{"degenerate", orb.Ring{{0, 0}, {1, 1}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := triangulate(tt.ring)
			require.Len(t, got, tt.tris)

			area := 0.0
			for _, tri := range got {
				a, b, c := tt.ring[tri[0]], tt.ring[tri[1]], tt.ring[tri[2]]
				ccw := cross(a, b, c)
				assert.Greater(t, ccw, 0.0, "triangle %v winds clockwise", tri)
				area += ccw / 2
			}
			if tt.tris > 0 {
				assert.InDelta(t, gomath.Abs(planar.Area(geo.OpenRing(tt.ring.Clone()))), area, 1e-9)
			}
		})
	}
}

func TestWriteOBJ(t *testing.T) {
	out, err := New(DefaultSettings()).Compile([]*building.Building{box(t, 42, false, nil)})
	require.NoError(t, err)
	node, err := out.CreateSceneGraph(nil, DefaultSettings())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteOBJ(node, &buf))

	text := buf.String()
	assert.Contains(t, text, "o building_42")
	assert.Equal(t, 10, strings.Count(text, "\nf "))
	assert.Equal(t, len(node.Meshes[0].Vertices), strings.Count(text, "\nv "))

	assert.ErrorIs(t, WriteOBJ(nil, &buf), ErrEmptyOutput)
}
