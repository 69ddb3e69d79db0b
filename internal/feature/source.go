package feature

import (
	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/Faultbox/buildings/pkg/geo"
)

// ErrEmptyQuery is returned for a query with neither a tile nor an extent.
var ErrEmptyQuery = errors.New("query has no tile and no extent")

// Query scopes a feature request. Tile wins when both are set.
type Query struct {
	Tile   *maptile.Tile
	Extent *geo.Extent
}

// TileQuery builds a query for a single tile.
func TileQuery(t maptile.Tile) Query {
	return Query{Tile: &t}
}

// Bound returns the query area in WGS84 degrees.
func (q Query) Bound() (orb.Bound, error) {
	switch {
	case q.Tile != nil:
		return q.Tile.Bound(), nil
	case q.Extent != nil:
		if !q.Extent.IsValid() {
			return orb.Bound{}, errors.Newf("invalid query extent %v", q.Extent.Bound)
		}
		return q.Extent.Transform(geo.WGS84).Bound, nil
	}
	return orb.Bound{}, ErrEmptyQuery
}

// Source serves features for a query. A nil cursor with a nil error means
// there is nothing there. Implementations must be safe for concurrent use.
type Source interface {
	Cursor(q Query) (Cursor, error)
}
