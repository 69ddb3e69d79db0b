package building

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/buildings/internal/feature"
	"github.com/Faultbox/buildings/internal/style"
	"github.com/Faultbox/buildings/internal/terrain"
	"github.com/Faultbox/buildings/pkg/geo"
	pmath "github.com/Faultbox/buildings/pkg/math"
)

func localVec(p orb.Point) pmath.Vec3 {
	return pmath.Vec3{X: p[0], Y: p[1]}
}

// square returns a closed size x size polygon centered on (cx, cy).
func square(cx, cy, size float64) orb.Polygon {
	h := size / 2
	return orb.Polygon{{
		{cx - h, cy - h}, {cx + h, cy - h}, {cx + h, cy + h}, {cx - h, cy + h}, {cx - h, cy - h},
	}}
}

func heightStyle(height, floorHeight float64) *style.Style {
	return &style.Style{
		Name: "15",
		Building: &style.BuildingSymbol{
			Height:      style.Constant(height),
			FloorHeight: floorHeight,
		},
	}
}

func clamped(st *style.Style) *style.Style {
	st.Altitude = &style.AltitudeSymbol{Clamping: style.ClampTerrain}
	return st
}

func mercatorFeature(fid int64, g orb.Geometry) *feature.Feature {
	return feature.New(fid, g, geo.Mercator)
}

func create(t *testing.T, f *Factory, st *style.Style, features ...*feature.Feature) []*Building {
	t.Helper()
	out, ok := f.Create(feature.NewSliceCursor(features...), geo.Extent{}, st, nil, nil)
	require.True(t, ok)
	return out
}

func TestFloorCount(t *testing.T) {
	tests := []struct {
		height, unit float64
		want         int
	}{
		{30, 3, 10},
		{30, 3.5, 9},
		{1, 3, 1},
		{0, 3, 1},
		{-10, 3, 1},
		{15, 0, 1},
		{4.4, 3, 1},
		{4.5, 3, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FloorCount(tt.height, tt.unit), "height %v unit %v", tt.height, tt.unit)
	}
}

func TestEndToEndSampleBuilding(t *testing.T) {
	f := NewFactory(nil)
	out := create(t, f, heightStyle(30, 3), mercatorFeature(42, square(0, 0, 10)))

	require.Len(t, out, 1)
	b := out[0]
	assert.Equal(t, int64(42), b.UID)
	require.Len(t, b.Roots(), 1)
	assert.Equal(t, 2, b.Len())

	main := b.Elevation(b.Roots()[0])
	assert.Equal(t, 30.0, main.Height)
	assert.Equal(t, 10, main.NumFloors)
	require.NotNil(t, main.Roof)
	assert.Equal(t, RoofFlat, main.Roof.Type)
	assert.Nil(t, main.Skin)

	require.Len(t, main.Children, 1)
	parapet := b.Elevation(main.Children[0])
	assert.True(t, parapet.Parapet)
	assert.Equal(t, 2.0, parapet.Height)
	assert.Equal(t, 2.0, parapet.Width)
	assert.Equal(t, 1, parapet.NumFloors)
	assert.Equal(t, main.Children[0], b.Roots()[0]+1)
	assert.Equal(t, b.Roots()[0], parapet.Parent)
	assert.Equal(t, Gray.Brightness(1.3), parapet.Color)
	assert.Equal(t, Gray.Brightness(1.2), parapet.Roof.Color)

	// Walls: main body on the ground, parapet outer and inner rings on top.
	require.Len(t, main.Walls, 1)
	require.Len(t, main.Walls[0].Faces, 4)
	for _, face := range main.Walls[0].Faces {
		assert.Equal(t, 0.0, face.Left.Lower.Z)
		assert.Equal(t, 30.0, face.Left.Upper.Z)
		// Mercator meters shrink north-south on the ellipsoid.
		assert.InDelta(t, 10, face.Width(), 0.1)
	}
	require.Len(t, parapet.Walls, 2)
	assert.False(t, parapet.Walls[0].Inner)
	assert.True(t, parapet.Walls[1].Inner)
	for _, w := range parapet.Walls {
		for _, face := range w.Faces {
			assert.Equal(t, 30.0, face.Right.Lower.Z)
			assert.Equal(t, 32.0, face.Right.Upper.Z)
		}
	}
	assert.InDelta(t, 6, parapet.Walls[1].Faces[0].Width(), 0.1)
	assert.Equal(t, 32.0, b.Top())
}

func TestDefaultsWithoutStyle(t *testing.T) {
	out := create(t, NewFactory(nil), nil, mercatorFeature(1, square(0, 0, 10)))
	require.Len(t, out, 1)
	main := out[0].Elevation(out[0].Roots()[0])
	assert.Equal(t, DefaultHeight, main.Height)
	assert.Equal(t, DefaultNumFloors, main.NumFloors)
}

func TestSessionDefaultStyleSuppliesHeight(t *testing.T) {
	sheet := style.NewSheet("test")
	sheet.AddStyle(heightStyle(21, 3))
	session := style.NewSession(sheet, geo.WGS84)

	// The tile style has no building symbol, so the default style's is used.
	out := create(t, NewFactory(session), &style.Style{Name: "3"}, mercatorFeature(1, square(0, 0, 10)))
	require.Len(t, out, 1)
	main := out[0].Elevation(out[0].Roots()[0])
	assert.Equal(t, 21.0, main.Height)
	assert.Equal(t, 7, main.NumFloors)
}

func TestHeightExpressionReadsAttributes(t *testing.T) {
	st := &style.Style{Building: &style.BuildingSymbol{
		Height:      style.MustParseNumericExpression("[levels] * 4"),
		FloorHeight: 4,
	}}
	feat := mercatorFeature(9, square(0, 0, 10))
	feat.Attributes["levels"] = 6.0

	out := create(t, NewFactory(nil), st, feat)
	require.Len(t, out, 1)
	main := out[0].Elevation(out[0].Roots()[0])
	assert.Equal(t, 24.0, main.Height)
	assert.Equal(t, 6, main.NumFloors)
}

func TestSkinsFromResourceLibrary(t *testing.T) {
	sheet := style.NewSheet("test")
	sheet.Library = style.NewResourceLibrary("skins")
	facade := &style.SkinResource{Name: SampleFacadeSkin, ImageHeight: 3.5}
	roof := &style.SkinResource{Name: SampleRoofSkin}
	sheet.Library.AddSkin(facade)
	sheet.Library.AddSkin(roof)

	out := create(t, NewFactory(style.NewSession(sheet, geo.Mercator)), heightStyle(30, 3), mercatorFeature(1, square(0, 0, 10)))
	require.Len(t, out, 1)
	b := out[0]
	main := b.Elevation(b.Roots()[0])
	assert.Same(t, facade, main.Skin)
	assert.Same(t, roof, main.Roof.Skin)
	// The skin's image height wins over the style's floor height.
	assert.Equal(t, 9, main.NumFloors)
	assert.Same(t, roof, b.Elevation(main.Children[0]).Roof.Skin)
}

func TestNullCursorFails(t *testing.T) {
	existing := []*Building{New(1)}
	out, ok := NewFactory(nil).Create(nil, geo.Extent{}, nil, existing, nil)
	assert.False(t, ok)
	assert.Equal(t, existing, out)
}

func TestEmptyCursorSucceeds(t *testing.T) {
	out, ok := NewFactory(nil).Create(feature.NewSliceCursor(), geo.Extent{}, nil, nil, nil)
	assert.True(t, ok)
	assert.Empty(t, out)
}

func TestCropToCenter(t *testing.T) {
	extent := geo.NewExtent(geo.Mercator, orb.Bound{Min: orb.Point{-100, -100}, Max: orb.Point{100, 100}})

	// Straddles the eastern edge but its center is inside.
	inside := mercatorFeature(1, square(95, 0, 20))
	// Straddles the same edge with its center outside.
	outside := mercatorFeature(2, square(105, 0, 20))

	out, ok := NewFactory(nil).Create(feature.NewSliceCursor(inside, outside), extent, nil, nil, nil)
	require.True(t, ok)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].UID)

	// An unset extent keeps everything.
	out = create(t, NewFactory(nil), nil, mercatorFeature(1, square(95, 0, 20)), mercatorFeature(2, square(105, 0, 20)))
	assert.Len(t, out, 2)
}

func TestCropOnSharedTileEdge(t *testing.T) {
	// Centered on the meridian shared by tiles 1/0/0 and 1/1/0.
	feat := func() *feature.Feature {
		return feature.New(3, orb.Polygon{{
			{-0.0001, 10}, {0.0001, 10}, {0.0001, 10.002}, {-0.0001, 10.002}, {-0.0001, 10},
		}}, geo.WGS84)
	}

	total := 0
	for _, tile := range []maptile.Tile{maptile.New(0, 0, 1), maptile.New(1, 0, 1)} {
		out, ok := NewFactory(nil).Create(feature.NewSliceCursor(feat()), geo.TileExtent(tile), nil, nil, nil)
		require.True(t, ok)
		total += len(out)
	}
	assert.Equal(t, 1, total)
}

func TestCropExtentInOtherSRS(t *testing.T) {
	// Extent in degrees, features in meters.
	extent := geo.NewExtent(geo.WGS84, orb.Bound{Min: orb.Point{-0.001, -0.001}, Max: orb.Point{0.001, 0.001}})
	near := mercatorFeature(1, square(50, 50, 10))
	far := mercatorFeature(2, square(5000, 5000, 10))

	out, ok := NewFactory(nil).Create(feature.NewSliceCursor(near, far), extent, nil, nil, nil)
	require.True(t, ok)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].UID)
}

func TestDeterministicGeneration(t *testing.T) {
	run := func() []*Building {
		return create(t, NewFactory(nil), heightStyle(30, 3), mercatorFeature(42, square(300, 200, 25)))
	}
	a, b := run(), run()
	require.Len(t, a, 1)
	assert.Equal(t, a, b)
}

func TestTerrainClampLiftsByMin(t *testing.T) {
	base := create(t, NewFactory(nil), heightStyle(30, 3), mercatorFeature(5, square(0, 0, 10)))

	f := NewFactory(nil)
	f.SetElevationService(terrain.Flat(100), 0)
	lifted := create(t, f, clamped(heightStyle(30, 3)), mercatorFeature(5, square(0, 0, 10)))

	require.Len(t, base, 1)
	require.Len(t, lifted, 1)
	var want []float64
	base[0].Walk(func(_ ElevationID, e *Elevation, _ int) {
		for _, w := range e.Walls {
			for _, face := range w.Faces {
				want = append(want, face.Left.Lower.Z+100, face.Left.Upper.Z+100, face.Right.Lower.Z+100, face.Right.Upper.Z+100)
			}
		}
	})
	var got []float64
	lifted[0].Walk(func(_ ElevationID, e *Elevation, _ int) {
		for _, w := range e.Walls {
			for _, face := range w.Faces {
				got = append(got, face.Left.Lower.Z, face.Left.Upper.Z, face.Right.Lower.Z, face.Right.Upper.Z)
			}
		}
	})
	assert.Equal(t, want, got)
}

type noData struct{}

func (noData) Elevations(points []orb.Point, _ *geo.SRS, _ float64) ([]float64, error) {
	out := make([]float64, len(points))
	for i := range out {
		out[i] = terrain.NoData
	}
	return out, nil
}

func TestFailedTerrainLeavesGeometryUntouched(t *testing.T) {
	base := create(t, NewFactory(nil), heightStyle(30, 3), mercatorFeature(5, square(0, 0, 10)))

	f := NewFactory(nil)
	f.SetElevationService(noData{}, 0)
	got := create(t, f, clamped(heightStyle(30, 3)), mercatorFeature(5, square(0, 0, 10)))
	assert.Equal(t, base, got)

	// Clamping requested but no service configured.
	got = create(t, NewFactory(nil), clamped(heightStyle(30, 3)), mercatorFeature(5, square(0, 0, 10)))
	assert.Equal(t, base, got)
}

func TestNoClampingSkipsSampling(t *testing.T) {
	svc := &countingService{}
	f := NewFactory(nil)
	f.SetElevationService(svc, 0)
	create(t, f, heightStyle(30, 3), mercatorFeature(5, square(0, 0, 10)))
	assert.Zero(t, svc.calls)
}

type countingService struct {
	calls int
	value func(i int) float64
}

func (c *countingService) Elevations(points []orb.Point, _ *geo.SRS, _ float64) ([]float64, error) {
	c.calls++
	out := make([]float64, len(points))
	for i := range out {
		if c.value != nil {
			out[i] = c.value(i)
		}
	}
	return out, nil
}

type recordingCatalog struct {
	minHeights []float64
	perFeature int
}

func (c *recordingCatalog) CreateBuildings(f *feature.Feature, _ *style.Session, _ *style.Style, minHeight float64, out []*Building, _ Progress) []*Building {
	c.minHeights = append(c.minHeights, minHeight)
	for i := 0; i < c.perFeature; i++ {
		b := New(f.FID)
		b.AddElevation(NoElevation, Elevation{Height: minHeight, Color: White})
		b.Build(orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}}, NewBuildContext(f.FID))
		out = append(out, b)
	}
	return out
}

func TestCatalogMinHeight(t *testing.T) {
	cat := &recordingCatalog{perFeature: 2}
	f := NewFactory(nil)
	f.SetCatalog(cat)

	// Flat ground: min == max, so the base value is used.
	f.SetElevationService(terrain.Flat(50), 0)
	out := create(t, f, clamped(heightStyle(30, 3)), mercatorFeature(1, square(0, 0, 10)))
	require.Len(t, out, 2)
	assert.Equal(t, []float64{3}, cat.minHeights)
	// Catalog buildings are clamped too.
	face := out[1].Elevation(out[1].Roots()[0]).Walls[0].Faces[0]
	assert.Equal(t, 50.0, face.Left.Lower.Z)

	// Sloped ground: 10..14 gives 14-10+3.
	slope := &countingService{value: func(i int) float64 { return 10 + float64(i%5) }}
	f.SetElevationService(slope, 0)
	create(t, f, clamped(heightStyle(30, 3)), mercatorFeature(2, square(0, 0, 10)))
	assert.Equal(t, []float64{3, 7}, cat.minHeights)

	// No clamping at all.
	create(t, f, heightStyle(30, 3), mercatorFeature(3, square(0, 0, 10)))
	assert.Equal(t, []float64{3, 7, 3}, cat.minHeights)

	f.SetCatalog(nil)
	out = create(t, f, heightStyle(30, 3), mercatorFeature(4, square(0, 0, 10)))
	assert.Len(t, out, 1)
}

func TestNonPolygonSkipped(t *testing.T) {
	line := mercatorFeature(1, orb.LineString{{0, 0}, {10, 0}})
	point := mercatorFeature(2, orb.Point{0, 0})
	good := mercatorFeature(3, square(0, 0, 10))
	degenerate := mercatorFeature(4, orb.Polygon{{{0, 0}, {10, 0}, {20, 0}, {0, 0}}})

	out := create(t, NewFactory(nil), nil, line, point, good, degenerate)
	require.Len(t, out, 1)
	assert.Equal(t, int64(3), out[0].UID)
}

func TestMultiPolygonYieldsOneBuildingPerPart(t *testing.T) {
	mp := orb.MultiPolygon{square(0, 0, 10), square(40, 0, 10)}
	out := create(t, NewFactory(nil), nil, mercatorFeature(8, mp))
	require.Len(t, out, 2)
	for _, b := range out {
		assert.Equal(t, int64(8), b.UID)
	}
	// Both share the feature's frame; the second footprint sits 40 m east.
	fp0 := out[0].Elevation(out[0].Roots()[0]).Footprint
	fp1 := out[1].Elevation(out[1].Roots()[0]).Footprint
	assert.InDelta(t, 40, fp1.Bound().Center()[0]-fp0.Bound().Center()[0], 0.01)
}

func TestOutputSRSReprojects(t *testing.T) {
	f := NewFactory(nil)
	f.SetOutputSRS(geo.Mercator)

	feat := feature.New(1, square(0.0001, 0.0001, 0.0001), geo.WGS84)
	out, ok := f.Create(feature.NewSliceCursor(feat), geo.Extent{}, nil, nil, nil)
	require.True(t, ok)
	require.Len(t, out, 1)
	assert.Same(t, geo.Mercator, feat.SRS)
}

func TestProgressNotified(t *testing.T) {
	var fids []int64
	var produced []int
	progress := ProgressFunc(func(fid int64, n int) {
		fids = append(fids, fid)
		produced = append(produced, n)
	})

	cursor := feature.NewSliceCursor(
		mercatorFeature(1, square(0, 0, 10)),
		mercatorFeature(2, orb.LineString{{0, 0}, {1, 1}}),
	)
	_, ok := NewFactory(nil).Create(cursor, geo.Extent{}, nil, nil, progress)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2}, fids)
	assert.Equal(t, []int{1, 0}, produced)
}

func TestLocalizeRoundTrip(t *testing.T) {
	feat := feature.New(3, square(13.4, 52.5, 0.0002), geo.WGS84)
	loc, err := Localize(feat)
	require.NoError(t, err)
	require.Len(t, loc.Footprints, 1)

	fp := loc.Footprints[0]
	assert.Equal(t, orb.CCW, fp.Orientation())
	assert.Len(t, fp, 4)
	// Anchored at the box center, so the footprint is centered on the origin.
	c := fp.Bound().Center()
	assert.InDelta(t, 0, c[0], 0.01)
	assert.InDelta(t, 0, c[1], 0.01)

	for _, p := range fp {
		world := loc.LocalToWorld.TransformPoint(localVec(p))
		back := loc.WorldToLocal.TransformPoint(world)
		assert.InDelta(t, p[0], back.X, 1e-6)
		assert.InDelta(t, p[1], back.Y, 1e-6)
	}

	_, err = Localize(feature.New(1, orb.Point{1, 2}, geo.WGS84))
	assert.ErrorIs(t, err, ErrNotPolygon)
	_, err = Localize(&feature.Feature{FID: 1, Geometry: square(0, 0, 1)})
	assert.ErrorIs(t, err, ErrNoSRS)
}

func TestLocalizeDoesNotMutate(t *testing.T) {
	poly := square(13.4, 52.5, 0.0002)
	feat := feature.New(3, poly, geo.WGS84)
	_, err := Localize(feat)
	require.NoError(t, err)
	assert.Equal(t, orb.Point{13.4 - 0.0001, 52.5 - 0.0001}, feat.Geometry.(orb.Polygon)[0][0])
}

func TestBuildRejectsDegenerateFootprint(t *testing.T) {
	b := New(1)
	b.AddElevation(NoElevation, Elevation{Height: 10})
	assert.False(t, b.Build(orb.Ring{{0, 0}, {1, 0}}, nil))
	assert.Empty(t, b.Elevation(0).Walls)
}

func TestBuildStacksChildren(t *testing.T) {
	b := New(1)
	podium := b.AddElevation(NoElevation, Elevation{Height: 6})
	tower := b.AddElevation(podium, Elevation{Height: 40, Footprint: orb.Ring{{1, 1}, {3, 1}, {3, 3}, {1, 3}}})
	b.AddElevation(tower, Elevation{Height: 2, Parapet: true, Width: 0.5})

	require.True(t, b.Build(orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}}, NewBuildContext(1)))

	var depths []int
	b.Walk(func(_ ElevationID, _ *Elevation, depth int) { depths = append(depths, depth) })
	assert.Equal(t, []int{0, 1, 2}, depths)

	towerFace := b.Elevation(tower).Walls[0].Faces[0]
	assert.Equal(t, 6.0, towerFace.Left.Lower.Z)
	assert.Equal(t, 46.0, towerFace.Left.Upper.Z)
	assert.InDelta(t, 2, towerFace.Width(), 1e-12)

	// The parapet inherits the tower footprint and sits on top of it.
	parapet := b.Elevation(2)
	assert.Equal(t, b.Elevation(tower).Footprint, parapet.Footprint)
	assert.Equal(t, 46.0, parapet.Walls[0].Faces[0].Left.Lower.Z)
	assert.Equal(t, 48.0, b.Top())

	// Unset colors are filled deterministically.
	assert.NotEqual(t, Color{}, b.Elevation(podium).Color)
}

func TestInnerWallFacesInward(t *testing.T) {
	b := New(1)
	b.AddElevation(NoElevation, Elevation{Height: 2, Parapet: true, Width: 1})
	require.True(t, b.Build(orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}}, NewBuildContext(1)))

	walls := b.Elevation(0).Walls
	require.Len(t, walls, 2)
	outer := walls[0].Faces[0]
	inner := walls[1].Faces[0]
	// Outer face runs along +x on the south edge; the inner face runs back.
	assert.Greater(t, outer.Right.Lower.X, outer.Left.Lower.X)
	assert.Less(t, inner.Right.Lower.X, inner.Left.Lower.X)
}

func TestClampToTerrain(t *testing.T) {
	b := New(1)
	b.AddElevation(NoElevation, Elevation{Height: 10, Color: White})
	require.True(t, b.Build(orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}}, nil))

	ClampToTerrain([]*Building{b, nil}, -3.5)
	for _, face := range b.Elevation(0).Walls[0].Faces {
		assert.Equal(t, -3.5, face.Left.Lower.Z)
		assert.Equal(t, 6.5, face.Right.Upper.Z)
	}
}

func TestColorBrightness(t *testing.T) {
	c := Gray.Brightness(1.3)
	assert.InDelta(t, 128.0/255.0*1.3, c.R, 1e-12)
	assert.Equal(t, 1.0, c.A)
	assert.Equal(t, 1.0, White.Brightness(2).G)
	assert.Equal(t, 0.0, Gray.Brightness(-1).B)
}

func TestBuildContextDeterministic(t *testing.T) {
	a, b := NewBuildContext(42), NewBuildContext(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64Between(3, 9), b.Float64Between(3, 9))
	}
	v := NewBuildContext(7).Float64Between(3, 9)
	assert.GreaterOrEqual(t, v, 3.0)
	assert.Less(t, v, 9.0)
	assert.Equal(t, 5.0, a.Float64Between(5, 5))
	assert.Equal(t, 0, a.IntN(0))
	assert.False(t, math.IsNaN(v))
}

func TestNarrowFootprintParapetHasNoInnerWall(t *testing.T) {
	out := create(t, NewFactory(nil), heightStyle(30, 3), mercatorFeature(7, square(0, 0, 3)))
	require.Len(t, out, 1)

	b := out[0]
	root := b.Elevation(b.Roots()[0])
	require.Len(t, root.Children, 1)
	parapet := b.Elevation(root.Children[0])
	require.True(t, parapet.Parapet)
	require.Len(t, parapet.Walls, 1, "a 2 unit inset does not fit a 3 unit footprint")
	assert.False(t, parapet.Walls[0].Inner)
}
