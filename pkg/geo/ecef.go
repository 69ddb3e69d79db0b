package geo

import (
	gomath "math"

	"github.com/Faultbox/buildings/pkg/math"
)

// WGS84 ellipsoid parameters.
const (
	SemiMajorAxis = 6378137.0
	Flattening    = 1 / 298.257223563
)

var (
	eccSquared   = Flattening * (2 - Flattening)
	semiMinor    = SemiMajorAxis * (1 - Flattening)
	eccPrimeSqrd = (SemiMajorAxis*SemiMajorAxis - semiMinor*semiMinor) / (semiMinor * semiMinor)
)

// GeodeticToECEF converts lon/lat degrees and ellipsoidal height in meters
// to earth-centered, earth-fixed meters.
func GeodeticToECEF(lon, lat, height float64) math.Vec3 {
	lambda := lon * gomath.Pi / 180
	phi := lat * gomath.Pi / 180
	sinPhi, cosPhi := gomath.Sincos(phi)
	sinLambda, cosLambda := gomath.Sincos(lambda)

	n := SemiMajorAxis / gomath.Sqrt(1-eccSquared*sinPhi*sinPhi)

	return math.Vec3{
		X: (n + height) * cosPhi * cosLambda,
		Y: (n + height) * cosPhi * sinLambda,
		Z: (n*(1-eccSquared) + height) * sinPhi,
	}
}

// ECEFToGeodetic converts earth-centered, earth-fixed meters to lon/lat
// degrees and ellipsoidal height (Bowring's method).
func ECEFToGeodetic(w math.Vec3) (lon, lat, height float64) {
	p := gomath.Hypot(w.X, w.Y)
	if p == 0 {
		// On the polar axis.
		lat = 90
		if w.Z < 0 {
			lat = -90
		}
		return 0, lat, gomath.Abs(w.Z) - semiMinor
	}

	theta := gomath.Atan2(w.Z*SemiMajorAxis, p*semiMinor)
	sinTheta, cosTheta := gomath.Sincos(theta)

	phi := gomath.Atan2(
		w.Z+eccPrimeSqrd*semiMinor*sinTheta*sinTheta*sinTheta,
		p-eccSquared*SemiMajorAxis*cosTheta*cosTheta*cosTheta,
	)
	lambda := gomath.Atan2(w.Y, w.X)

	sinPhi := gomath.Sin(phi)
	n := SemiMajorAxis / gomath.Sqrt(1-eccSquared*sinPhi*sinPhi)
	height = p/gomath.Cos(phi) - n

	return lambda * 180 / gomath.Pi, phi * 180 / gomath.Pi, height
}
