package solar

import (
	"math"
	"time"
)

const (
	// SolarConstant is the mean extraterrestrial irradiance in W/m².
	SolarConstant = 1366.1

	// StandardPressure is sea-level atmospheric pressure in Pa.
	StandardPressure = 101325.0

	closureZenithLimit = 88.0
	erbsZenithLimit    = 87.0
	minCosZenith       = 0.065
)

// Components is a horizontal irradiance split into its direct-normal and
// diffuse-horizontal parts, both in W/m².
type Components struct {
	DNI float64
	DHI float64
}

// ExtraterrestrialDNI returns the irradiance normal to the sun's rays at the
// top of the atmosphere, adjusted for the Earth-Sun distance on t's day.
func ExtraterrestrialDNI(t time.Time) float64 {
	b := 2 * math.Pi * float64(t.YearDay()) / 365.0
	return SolarConstant * (1 + 0.033*math.Cos(b))
}

// RelativeAirmass returns the Kasten-Young relative optical air mass for a
// zenith angle in degrees. It returns 0 when the sun is below the horizon.
func RelativeAirmass(zenith float64) float64 {
	if zenith >= 90 {
		return 0
	}
	return 1.0 / (math.Cos(degToRad(zenith)) + 0.50572*math.Pow(96.07995-zenith, -1.6364))
}

// AbsoluteAirmass scales a relative air mass by site pressure in Pa. A
// non-positive pressure is taken as standard pressure.
func AbsoluteAirmass(relative, pressure float64) float64 {
	if pressure <= 0 {
		pressure = StandardPressure
	}
	return relative * pressure / StandardPressure
}

// ClearnessIndex returns the ratio of measured GHI to extraterrestrial
// horizontal irradiance, limited to [0, 1].
func ClearnessIndex(ghi, zenith, extraDNI float64) float64 {
	cosZ := math.Max(math.Cos(degToRad(zenith)), minCosZenith)
	kt := ghi / (extraDNI * cosZ)
	return clamp(kt, 0, 1)
}

// Decompose estimates DNI and DHI from GHI alone with the Erbs correlation
// between clearness index and diffuse fraction. Both components are zero
// when there is no light or the sun is below the horizon.
func Decompose(ghi, zenith float64, t time.Time) Components {
	if ghi <= 0 || math.IsNaN(ghi) || zenith >= 90 {
		return Components{}
	}

	kt := ClearnessIndex(ghi, zenith, ExtraterrestrialDNI(t))

	var df float64
	switch {
	case kt <= 0.22:
		df = 1 - 0.09*kt
	case kt <= 0.8:
		df = 0.9511 - 0.1604*kt + 4.388*kt*kt - 16.638*kt*kt*kt + 12.336*kt*kt*kt*kt
	default:
		df = 0.165
	}

	dhi := df * ghi
	dni := (ghi - dhi) / math.Cos(degToRad(zenith))
	if zenith > erbsZenithLimit || dni < 0 || math.IsNaN(dni) {
		return Components{DNI: 0, DHI: ghi}
	}
	return Components{DNI: dni, DHI: dhi}
}

// DNIFromClosure derives DNI from measured GHI and DHI through the closure
// equation GHI = DNI·cos(z) + DHI. Negative results and results for a sun
// at or beyond 88° zenith are returned as 0.
func DNIFromClosure(ghi, dhi, zenith float64) float64 {
	if zenith >= closureZenithLimit {
		return 0
	}
	dni := (ghi - dhi) / math.Cos(degToRad(zenith))
	if dni <= 0 || math.IsNaN(dni) || math.IsInf(dni, 0) {
		return 0
	}
	return dni
}
