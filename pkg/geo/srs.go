// Package geo provides spatial references, geographic points and extents,
// local tangent frames, and footprint polygon cleanup.
package geo

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/Faultbox/buildings/pkg/math"
)

// ErrUnknownSRS is returned by ParseSRS for unsupported names.
var ErrUnknownSRS = errors.New("unknown spatial reference")

// SRS is a spatial reference system. Two systems are supported: geographic
// WGS84 (lon/lat degrees) and Spherical Mercator (meters).
type SRS struct {
	Name string
	EPSG int

	toWGS84   orb.Projection
	fromWGS84 orb.Projection
}

// Supported spatial references.
var (
	WGS84 = &SRS{
		Name: "wgs84",
		EPSG: 4326,
	}
	Mercator = &SRS{
		Name:      "spherical-mercator",
		EPSG:      3857,
		toWGS84:   project.Mercator.ToWGS84,
		fromWGS84: project.WGS84.ToMercator,
	}
)

// ParseSRS resolves a spatial reference by name or EPSG code.
func ParseSRS(name string) (*SRS, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "wgs84", "epsg:4326", "4326", "geographic":
		return WGS84, nil
	case "spherical-mercator", "mercator", "epsg:3857", "3857", "epsg:900913":
		return Mercator, nil
	}
	return nil, errors.Wrapf(ErrUnknownSRS, "%q", name)
}

// String returns the SRS name.
func (s *SRS) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.Name
}

// IsGeographic reports whether coordinates are lon/lat degrees.
func (s *SRS) IsGeographic() bool {
	return s.toWGS84 == nil
}

// Equal reports whether both references describe the same system.
func (s *SRS) Equal(other *SRS) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.EPSG == other.EPSG
}

// ToGeographic converts a point in this SRS to WGS84 lon/lat.
func (s *SRS) ToGeographic(p orb.Point) orb.Point {
	if s.toWGS84 == nil {
		return p
	}
	return s.toWGS84(p)
}

// FromGeographic converts a WGS84 lon/lat point into this SRS.
func (s *SRS) FromGeographic(p orb.Point) orb.Point {
	if s.fromWGS84 == nil {
		return p
	}
	return s.fromWGS84(p)
}

// TransformPoint reprojects a single point into another SRS.
func (s *SRS) TransformPoint(p orb.Point, to *SRS) orb.Point {
	if s.Equal(to) {
		return p
	}
	return to.FromGeographic(s.ToGeographic(p))
}

// Transform returns a reprojected copy of g. The input is not modified.
func (s *SRS) Transform(g orb.Geometry, to *SRS) orb.Geometry {
	if g == nil {
		return nil
	}
	out := orb.Clone(g)
	if s.Equal(to) {
		return out
	}
	return project.Geometry(out, func(p orb.Point) orb.Point {
		return s.TransformPoint(p, to)
	})
}

// ToWorld converts a point with height z (meters above the ellipsoid) to
// earth-centered, earth-fixed coordinates.
func (s *SRS) ToWorld(p orb.Point, z float64) math.Vec3 {
	ll := s.ToGeographic(p)
	return GeodeticToECEF(ll[0], ll[1], z)
}

// FromWorld converts an ECEF position back into this SRS plus height.
func (s *SRS) FromWorld(w math.Vec3) (orb.Point, float64) {
	lon, lat, h := ECEFToGeodetic(w)
	return s.FromGeographic(orb.Point{lon, lat}), h
}

// ColinearTolerance is the distance, in this SRS's units, under which a
// vertex is considered to lie on the segment joining its neighbours.
func (s *SRS) ColinearTolerance() float64 {
	if s.IsGeographic() {
		return 1e-9
	}
	return 1e-4
}
