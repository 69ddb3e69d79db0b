package geo

import (
	gomath "math"

	"github.com/paulmach/orb"

	"github.com/Faultbox/buildings/pkg/math"
)

// AltitudeMode tells how a point's Z value is interpreted.
type AltitudeMode int

// Altitude modes.
const (
	AltitudeAbsolute AltitudeMode = iota // Z is height above the ellipsoid
	AltitudeRelative                     // Z is height above terrain
)

// GeoPoint is a georeferenced 3D point.
type GeoPoint struct {
	SRS  *SRS
	X, Y float64
	Z    float64
	Mode AltitudeMode
}

// NewGeoPoint creates a point in the given SRS.
func NewGeoPoint(srs *SRS, x, y, z float64, mode AltitudeMode) GeoPoint {
	return GeoPoint{SRS: srs, X: x, Y: y, Z: z, Mode: mode}
}

// Point returns the horizontal coordinates.
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.X, p.Y}
}

// Transform returns the point expressed in another SRS.
func (p GeoPoint) Transform(to *SRS) GeoPoint {
	q := p.SRS.TransformPoint(p.Point(), to)
	return GeoPoint{SRS: to, X: q[0], Y: q[1], Z: p.Z, Mode: p.Mode}
}

// ToWorld returns the ECEF position of the point.
func (p GeoPoint) ToWorld() math.Vec3 {
	return p.SRS.ToWorld(p.Point(), p.Z)
}

// LocalToWorld returns the east-north-up tangent frame anchored at the
// point: local +X is east, +Y north, +Z up, in meters.
func (p GeoPoint) LocalToWorld() math.Mat4 {
	ll := p.SRS.ToGeographic(p.Point())
	lambda := ll[0] * gomath.Pi / 180
	phi := ll[1] * gomath.Pi / 180
	sinPhi, cosPhi := gomath.Sincos(phi)
	sinLambda, cosLambda := gomath.Sincos(lambda)

	east := math.Vec3{X: -sinLambda, Y: cosLambda}
	north := math.Vec3{X: -sinPhi * cosLambda, Y: -sinPhi * sinLambda, Z: cosPhi}
	up := math.Vec3{X: cosPhi * cosLambda, Y: cosPhi * sinLambda, Z: sinPhi}

	return math.FromBasis(east, north, up, p.ToWorld())
}

// LocalFrame builds the tangent frame at anchor and its exact inverse.
// Coordinates expressed in the local frame are small enough for single
// precision geometry work at building scale.
func LocalFrame(anchor GeoPoint) (localToWorld, worldToLocal math.Mat4) {
	localToWorld = anchor.LocalToWorld()
	worldToLocal = localToWorld.Inverse()
	return localToWorld, worldToLocal
}
