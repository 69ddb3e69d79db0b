package feature

import (
	"math"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"

	"github.com/Faultbox/buildings/pkg/geo"
)

var worldBound = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// entry is what the quadtree stores: a feature keyed by its WGS84 box center.
type entry struct {
	seq     int
	feature *Feature
	bound   orb.Bound // WGS84
}

func (e *entry) Point() orb.Point {
	return e.bound.Center()
}

// MemorySource holds features in memory behind a quadtree index.
// Cursors hand out clones, so callers may mutate what they receive.
type MemorySource struct {
	mu      sync.RWMutex
	tree    *quadtree.Quadtree
	entries []*entry
	bound   orb.Bound
	// largest half-extent seen, used to widen point queries so features
	// whose center lies outside the query but whose box overlaps it are found
	halfW, halfH float64
}

// NewMemorySource indexes the given features.
func NewMemorySource(features ...*Feature) (*MemorySource, error) {
	s := &MemorySource{tree: quadtree.New(worldBound)}
	for _, f := range features {
		if err := s.Add(f); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add indexes one feature. Features without geometry or SRS are rejected.
func (s *MemorySource) Add(f *Feature) error {
	if f == nil || f.Geometry == nil {
		return errors.New("feature has no geometry")
	}
	if f.SRS == nil {
		return errors.Newf("feature %d has no spatial reference", f.FID)
	}

	b := f.SRS.Transform(f.Geometry, geo.WGS84).Bound()

	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry{seq: len(s.entries), feature: f, bound: b}
	if err := s.tree.Add(e); err != nil {
		return errors.Wrapf(err, "indexing feature %d", f.FID)
	}
	s.entries = append(s.entries, e)
	if len(s.entries) == 1 {
		s.bound = b
	} else {
		s.bound = s.bound.Union(b)
	}
	s.halfW = math.Max(s.halfW, (b.Max[0]-b.Min[0])/2)
	s.halfH = math.Max(s.halfH, (b.Max[1]-b.Min[1])/2)
	return nil
}

// Len returns the number of indexed features.
func (s *MemorySource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Bound returns the WGS84 bounding box of every indexed feature.
func (s *MemorySource) Bound() orb.Bound {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bound
}

// Cursor implements Source. Results are ordered by insertion.
func (s *MemorySource) Cursor(q Query) (Cursor, error) {
	qb, err := q.Bound()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil, nil
	}

	search := orb.Bound{
		Min: orb.Point{qb.Min[0] - s.halfW, qb.Min[1] - s.halfH},
		Max: orb.Point{qb.Max[0] + s.halfW, qb.Max[1] + s.halfH},
	}
	hits := s.tree.InBoundMatching(nil, search, func(p orb.Pointer) bool {
		return p.(*entry).bound.Intersects(qb)
	})
	if len(hits) == 0 {
		return nil, nil
	}

	found := make([]*entry, len(hits))
	for i, h := range hits {
		found[i] = h.(*entry)
	}
	slices.SortFunc(found, func(a, b *entry) int { return a.seq - b.seq })

	out := make([]*Feature, len(found))
	for i, e := range found {
		out[i] = e.feature.Clone()
	}
	return NewSliceCursor(out...), nil
}
