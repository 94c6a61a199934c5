package geo

import "math"

// WGS-84 ellipsoid.
const (
	wgsA = 6378137.0
	wgsB = 6356752.314245
	wgsF = (wgsA - wgsB) / wgsA
)

const (
	vincentyMaxIter = 100
	vincentyEps     = 1e-12
)

// VincentyDistance returns the geodesic distance in metres between two
// geodetic points on the WGS-84 ellipsoid using Vincenty's inverse formula.
// Coincident or otherwise degenerate inputs return 0; the rare
// non-converging antipodal case falls back to the last iterate.
func VincentyDistance(lon1, lat1, lon2, lat2 float64) float64 {
	if !finite(lon1, lat1, lon2, lat2) {
		return 0
	}
	if lon1 == lon2 && lat1 == lat2 {
		return 0
	}

	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	L := (lon2 - lon1) * math.Pi / 180

	u1 := math.Atan((1 - wgsF) * math.Tan(phi1))
	u2 := math.Atan((1 - wgsF) * math.Tan(phi2))
	sinU1, cosU1 := math.Sincos(u1)
	sinU2, cosU2 := math.Sincos(u2)

	lambda := L
	var sinSigma, cosSigma, sigma, cosSqAlpha, cos2SigmaM float64
	for i := 0; i < vincentyMaxIter; i++ {
		sinLambda, cosLambda := math.Sincos(lambda)
		sinSigma = math.Sqrt(
			(cosU2*sinLambda)*(cosU2*sinLambda) +
				(cosU1*sinU2-sinU1*cosU2*cosLambda)*(cosU1*sinU2-sinU1*cosU2*cosLambda))
		if sinSigma == 0 {
			return 0 // coincident points
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)
		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha = 1 - sinAlpha*sinAlpha
		if cosSqAlpha == 0 {
			cos2SigmaM = 0 // equatorial line
		} else {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		}
		C := wgsF / 16 * cosSqAlpha * (4 + wgsF*(4-3*cosSqAlpha))
		prev := lambda
		lambda = L + (1-C)*wgsF*sinAlpha*
			(sigma+C*sinSigma*(cos2SigmaM+C*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))
		if math.Abs(lambda-prev) < vincentyEps {
			break
		}
	}

	uSq := cosSqAlpha * (wgsA*wgsA - wgsB*wgsB) / (wgsB * wgsB)
	A := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	B := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := B * sinSigma * (cos2SigmaM + B/4*
		(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
			B/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	d := wgsB * A * (sigma - deltaSigma)
	if !finite(d) || d < 0 {
		return 0
	}
	return d
}
