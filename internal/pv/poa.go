// Package pv models the conversion of sunlight on a tilted PV array into AC
// power: plane-of-array irradiance, cell temperature, module DC output,
// array wiring with derating losses, and inverter conversion.
package pv

import (
	"math"

	"github.com/chrissnell/pvyield/pkg/solar"
)

// Refractive index, glazing extinction coefficient (1/m) and glazing
// thickness (m) of a typical module cover glass.
const (
	glassIndex      = 1.526
	glassExtinction = 4.0
	glassThickness  = 0.002
)

// minCosZenith keeps the beam projection ratio finite at sunrise and sunset.
var minCosZenith = math.Cos(89 * math.Pi / 180)

// Surface is the orientation of a plane. Tilt is measured from horizontal,
// Azimuth clockwise from north, both in degrees.
type Surface struct {
	Tilt    float64
	Azimuth float64
	Albedo  float64
}

// Irradiance holds the three horizontal-plane irradiance components in W/m².
type Irradiance struct {
	GHI float64
	DNI float64
	DHI float64
}

// POA is irradiance on the plane of array, in W/m², with the angle of
// incidence of the beam in degrees.
type POA struct {
	Beam            float64 `json:"beam"`
	SkyDiffuse      float64 `json:"sky_diffuse"`
	GroundReflected float64 `json:"ground_reflected"`
	Total           float64 `json:"total"`
	AOI             float64 `json:"aoi"`
}

// Diffuse returns the sky and ground contributions together.
func (p POA) Diffuse() float64 {
	return p.SkyDiffuse + p.GroundReflected
}

// AngleOfIncidence returns the angle between the sun's rays and the surface
// normal in degrees.
func AngleOfIncidence(s Surface, sun solar.Position) float64 {
	return rad2deg(math.Acos(projection(s, sun)))
}

func projection(s Surface, sun solar.Position) float64 {
	zen := deg2rad(sun.ApparentZenith)
	tilt := deg2rad(s.Tilt)
	p := math.Cos(zen)*math.Cos(tilt) +
		math.Sin(zen)*math.Sin(tilt)*math.Cos(deg2rad(sun.Azimuth-s.Azimuth))
	return math.Max(-1, math.Min(1, p))
}

// TransformPOA projects horizontal irradiance onto surface s with the
// Hay-Davies anisotropic sky model. extraDNI is the extraterrestrial normal
// irradiance for the same instant.
func TransformPOA(in Irradiance, sun solar.Position, extraDNI float64, s Surface) POA {
	cosTilt := math.Cos(deg2rad(s.Tilt))
	cosAOI := projection(s, sun)

	beam := math.Max(in.DNI*cosAOI, 0)

	var anisotropy float64
	if extraDNI > 0 {
		anisotropy = math.Max(0, math.Min(1, in.DNI/extraDNI))
	}
	cosZen := math.Max(math.Cos(deg2rad(sun.ApparentZenith)), minCosZenith)
	rb := math.Max(cosAOI, 0) / cosZen

	isotropic := math.Max(in.DHI*(1-anisotropy)*(1+cosTilt)/2, 0)
	circumsolar := math.Max(in.DHI*anisotropy*rb, 0)
	sky := isotropic + circumsolar

	ground := math.Max(in.GHI*s.Albedo*(1-cosTilt)/2, 0)

	return POA{
		Beam:            beam,
		SkyDiffuse:      sky,
		GroundReflected: ground,
		Total:           beam + sky + ground,
		AOI:             AngleOfIncidence(s, sun),
	}
}

// PhysicalIAM returns the fraction of beam irradiance transmitted through the
// module glazing at angle of incidence aoi (degrees), relative to normal
// incidence, from Fresnel reflection and Beer-Lambert absorption.
func PhysicalIAM(aoi float64) float64 {
	aoi = math.Abs(aoi)
	if aoi >= 90 {
		return 0
	}

	n1, n2 := 1.0, glassIndex
	cos1 := math.Cos(deg2rad(aoi))
	sin1 := math.Sqrt(math.Max(0, 1-cos1*cos1))
	sin2 := sin1 / n2
	cos2 := math.Sqrt(1 - sin2*sin2)

	rhoS := (n1*cos1 - n2*cos2) / (n1*cos1 + n2*cos2)
	rhoP := (n1*cos2 - n2*cos1) / (n1*cos2 + n2*cos1)
	rho0 := (n1 - n2) / (n1 + n2)

	absorb := math.Exp(-glassExtinction * glassThickness / cos2)
	tauS := (1 - rhoS*rhoS) * absorb
	tauP := (1 - rhoP*rhoP) * absorb
	tau0 := (1 - rho0*rho0) * math.Exp(-glassExtinction*glassThickness)

	return (tauS + tauP) / 2 / tau0
}

// EffectiveIrradiance is the irradiance reaching the cells after incidence
// angle and spectral corrections.
func EffectiveIrradiance(p POA, spectral float64) float64 {
	return math.Max(0, spectral*(p.Beam*PhysicalIAM(p.AOI)+p.Diffuse()))
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }
