package terrain

import (
	"math"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/buildings/pkg/geo"
)

// ErrNoSRS is returned when points arrive without a spatial reference.
var ErrNoSRS = errors.New("points have no spatial reference")

// Grid is a regular height grid. Post (c, r) sits at
// Origin + (c*CellSize, r*CellSize), so row 0 is the southern edge.
type Grid struct {
	SRS      *geo.SRS
	Origin   orb.Point // south-west post
	CellSize float64
	Columns  int
	Rows     int
	NoData   float64   // post value treated as missing
	Heights  []float64 // Rows*Columns, row-major from the south
}

// Bound returns the area covered by the posts.
func (g *Grid) Bound() orb.Bound {
	return orb.Bound{
		Min: g.Origin,
		Max: orb.Point{
			g.Origin[0] + float64(g.Columns-1)*g.CellSize,
			g.Origin[1] + float64(g.Rows-1)*g.CellSize,
		},
	}
}

func (g *Grid) post(c, r int) float64 {
	v := g.Heights[r*g.Columns+c]
	if v == g.NoData {
		return NoData
	}
	return v
}

// HeightAt interpolates the height at p (grid SRS) bilinearly between the
// four surrounding posts. Points off the grid or touching a missing post
// return NoData.
func (g *Grid) HeightAt(p orb.Point) float64 {
	fx := (p[0] - g.Origin[0]) / g.CellSize
	fy := (p[1] - g.Origin[1]) / g.CellSize
	if fx < 0 || fy < 0 || fx > float64(g.Columns-1) || fy > float64(g.Rows-1) {
		return NoData
	}

	c := int(fx)
	r := int(fy)
	if c >= g.Columns-1 {
		c = g.Columns - 2
	}
	if r >= g.Rows-1 {
		r = g.Rows - 2
	}
	tx := fx - float64(c)
	ty := fy - float64(r)

	// corners: sw, se, nw, ne
	sw, se := g.post(c, r), g.post(c+1, r)
	nw, ne := g.post(c, r+1), g.post(c+1, r+1)

	south := sw*(1-tx) + se*tx
	north := nw*(1-tx) + ne*tx
	return south*(1-ty) + north*ty
}

// nearest returns the post closest to p, used when the caller asks for a
// resolution coarser than the grid.
func (g *Grid) nearest(p orb.Point) float64 {
	c := int(math.Round((p[0] - g.Origin[0]) / g.CellSize))
	r := int(math.Round((p[1] - g.Origin[1]) / g.CellSize))
	if c < 0 || r < 0 || c >= g.Columns || r >= g.Rows {
		return NoData
	}
	return g.post(c, r)
}

// Elevations implements ElevationService.
func (g *Grid) Elevations(points []orb.Point, srs *geo.SRS, resolution float64) ([]float64, error) {
	if srs == nil {
		return nil, ErrNoSRS
	}
	coarse := resolution > g.CellSize

	out := make([]float64, len(points))
	for i, p := range points {
		q := srs.TransformPoint(p, g.SRS)
		if coarse {
			out[i] = g.nearest(q)
		} else {
			out[i] = g.HeightAt(q)
		}
	}
	return out, nil
}

func (g *Grid) validate() error {
	if g.Columns < 2 || g.Rows < 2 {
		return errors.Newf("grid must have at least 2x2 posts, got %dx%d", g.Columns, g.Rows)
	}
	if g.CellSize <= 0 {
		return errors.Newf("cell size must be positive, got %v", g.CellSize)
	}
	if len(g.Heights) != g.Columns*g.Rows {
		return errors.Newf("expected %d heights, got %d", g.Columns*g.Rows, len(g.Heights))
	}
	return nil
}

type gridFile struct {
	SRS      string      `yaml:"srs"`
	Origin   [2]float64  `yaml:"origin"`
	CellSize float64     `yaml:"cell_size"`
	NoData   *float64    `yaml:"no_data"`
	Rows     [][]float64 `yaml:"rows"` // south to north
}

// ParseGrid decodes a YAML grid document.
func ParseGrid(data []byte) (*Grid, error) {
	var f gridFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decoding terrain grid")
	}
	srs, err := geo.ParseSRS(f.SRS)
	if err != nil {
		return nil, err
	}

	g := &Grid{
		SRS:      srs,
		Origin:   orb.Point(f.Origin),
		CellSize: f.CellSize,
		Rows:     len(f.Rows),
		NoData:   -9999,
	}
	if f.NoData != nil {
		g.NoData = *f.NoData
	}
	if g.Rows > 0 {
		g.Columns = len(f.Rows[0])
	}
	for r, row := range f.Rows {
		if len(row) != g.Columns {
			return nil, errors.Newf("row %d has %d posts, expected %d", r, len(row), g.Columns)
		}
		g.Heights = append(g.Heights, row...)
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadGrid reads a YAML grid from disk.
func LoadGrid(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading terrain grid %s", path)
	}
	g, err := ParseGrid(data)
	if err != nil {
		return nil, errors.Wrapf(err, "terrain grid %s", path)
	}
	return g, nil
}
