// Package solar computes solar geometry and splits horizontal irradiance
// into its beam and diffuse components.
package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	sunpos "github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
)

// Position is the sun's position as seen from a site on the ground. All
// angles are in degrees and Azimuth is measured clockwise from north.
type Position struct {
	Zenith         float64 `json:"zenith"`
	ApparentZenith float64 `json:"apparent_zenith"`
	Elevation      float64 `json:"elevation"`
	Azimuth        float64 `json:"azimuth"`
}

// IsUp reports whether the geometric center of the sun is above the horizon.
func (p Position) IsUp() bool {
	return p.Zenith < 90
}

// SunPosition returns the position of the sun at instant t for an observer at
// the given latitude and longitude (degrees, east positive).
func SunPosition(t time.Time, latitude, longitude float64) Position {
	jd := julian.TimeToJD(t.UTC())
	ra, dec := sunpos.ApparentEquatorial(jd)

	h := localHourAngle(sidereal.Apparent(jd), ra, longitude)
	phi := degToRad(latitude)

	sinPhi, cosPhi := math.Sincos(phi)
	sinDec, cosDec := dec.Sincos()
	sinH, cosH := math.Sincos(h)

	elevation := radToDeg(math.Asin(clamp(sinPhi*sinDec+cosPhi*cosDec*cosH, -1, 1)))

	// Meeus 13.5 measures azimuth westward from south.
	az := radToDeg(math.Atan2(sinH, cosH*sinPhi-dec.Tan()*cosPhi))

	apparent := elevation + refraction(elevation)

	return Position{
		Zenith:         90 - elevation,
		ApparentZenith: 90 - apparent,
		Elevation:      elevation,
		Azimuth:        fixAngle(az + 180),
	}
}

// localHourAngle returns the hour angle in radians of an object with right
// ascension ra, given Greenwich apparent sidereal time gst.
func localHourAngle(gst unit.Time, ra unit.RA, longitude float64) float64 {
	return unit.PMod(gst.Rad()+degToRad(longitude)-ra.Rad(), 2*math.Pi)
}

// refraction returns the atmospheric refraction in degrees for a true
// elevation, using Saemundsson's inversion of Bennett's formula at standard
// pressure and temperature.
func refraction(elevation float64) float64 {
	if elevation < -1 {
		return 0
	}
	r := 1.02 / math.Tan(degToRad(elevation+10.3/(elevation+5.11))) // arcminutes
	return r / 60
}

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}

func radToDeg(rad float64) float64 {
	return rad * (180.0 / math.Pi)
}

// fixAngle normalizes an angle to the range [0, 360) degrees
func fixAngle(angle float64) float64 {
	return math.Mod(math.Mod(angle, 360)+360, 360)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
