// Package geo converts projected grid coordinates used by German weather
// datasets into geographic latitude and longitude.
package geo

import (
	"math"
)

// LambertConformal is a Lambert Conformal Conic projection with two standard
// parallels on an ellipsoid.
type LambertConformal struct {
	a, e     float64
	lambda0  float64
	falseE   float64
	falseN   float64
	n, F, r0 float64
}

// GRS80 ellipsoid parameters.
const (
	grs80SemiMajor  = 6378137.0
	grs80Flattening = 1 / 298.257222101
)

// ETRS89LCC returns the EPSG:3034 projection (ETRS89 / LCC Europe) that DWD
// test reference year files use for their Rechtswert/Hochwert grid.
func ETRS89LCC() *LambertConformal {
	return NewLambertConformal(grs80SemiMajor, grs80Flattening, 35, 65, 52, 10, 4000000, 2800000)
}

// NewLambertConformal builds a projection from ellipsoid parameters, the two
// standard parallels, the false origin (degrees) and the false easting and
// northing (metres).
func NewLambertConformal(a, flattening, lat1, lat2, latOrigin, lonOrigin, falseEasting, falseNorthing float64) *LambertConformal {
	e := math.Sqrt(2*flattening - flattening*flattening)
	p := &LambertConformal{
		a:       a,
		e:       e,
		lambda0: deg2rad(lonOrigin),
		falseE:  falseEasting,
		falseN:  falseNorthing,
	}

	phi1, phi2 := deg2rad(lat1), deg2rad(lat2)
	m1, m2 := p.m(phi1), p.m(phi2)
	t1, t2 := p.t(phi1), p.t(phi2)

	p.n = (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	p.F = m1 / (p.n * math.Pow(t1, p.n))
	p.r0 = a * p.F * math.Pow(p.t(deg2rad(latOrigin)), p.n)
	return p
}

// Forward projects latitude/longitude in degrees to easting/northing.
func (p *LambertConformal) Forward(lat, lon float64) (easting, northing float64) {
	r := p.a * p.F * math.Pow(p.t(deg2rad(lat)), p.n)
	theta := p.n * (deg2rad(lon) - p.lambda0)
	return p.falseE + r*math.Sin(theta), p.falseN + p.r0 - r*math.Cos(theta)
}

// Inverse converts easting/northing back to latitude/longitude in degrees.
func (p *LambertConformal) Inverse(easting, northing float64) (lat, lon float64) {
	dx := easting - p.falseE
	dy := p.r0 - (northing - p.falseN)

	r := math.Copysign(math.Hypot(dx, dy), p.n)
	t := math.Pow(r/(p.a*p.F), 1/p.n)
	theta := math.Atan2(dx, dy)

	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 15; i++ {
		es := p.e * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-es)/(1+es), p.e/2))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}

	return rad2deg(phi), rad2deg(theta/p.n + p.lambda0)
}

func (p *LambertConformal) m(phi float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-p.e*p.e*s*s)
}

func (p *LambertConformal) t(phi float64) float64 {
	es := p.e * math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-es)/(1+es), p.e/2)
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }
