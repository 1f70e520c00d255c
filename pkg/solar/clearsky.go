package solar

import (
	"math"
	"time"
)

// ClearSkyGHI computes Global Horizontal Irradiance (GHI) in W/m² under a
// cloudless sky with a simplified Ineichen-Perez model. It is used to flag
// implausible measured values, not as model input.
func ClearSkyGHI(t time.Time, zenith, altitude float64) float64 {
	if zenith >= 90.0 {
		return 0.0 // Sun below horizon, no irradiance
	}

	N := t.YearDay()
	G0 := ExtraterrestrialDNI(t)

	TL := 2.0 // Linke turbidity factor, typical for clear skies (range: 2-6)
	AM := RelativeAirmass(zenith)
	c := 0.7   // Normalization constant for DNI
	a := 0.027 // Atmospheric extinction coefficient

	DNI := G0 * c * math.Exp(-a*AM*TL*math.Exp(-altitude/8000.0))

	// Diffuse share with a seasonal adjustment
	fh := 0.1 + 0.05*math.Sin(math.Pi*float64(N-100)/365.0)
	DHI := fh * G0 * math.Sin(degToRad(zenith))

	return DNI*math.Cos(degToRad(zenith)) + DHI
}
