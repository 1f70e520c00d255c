package pv

import (
	"fmt"
	"math"
)

// InstallationClass describes how a module is mounted, which determines how
// well it sheds heat.
type InstallationClass int

const (
	OpenRackGlassGlass        InstallationClass = 1
	OpenRackGlassPolymer      InstallationClass = 2
	CloseMountGlassGlass      InstallationClass = 3
	InsulatedBackGlassPolymer InstallationClass = 4
)

// ThermalParams are the Sandia module temperature model coefficients.
type ThermalParams struct {
	A      float64 // wind-independent term
	B      float64 // wind coefficient, s/m
	DeltaT float64 // cell to back-of-module difference at 1000 W/m², °C
}

var thermalParams = map[InstallationClass]ThermalParams{
	OpenRackGlassGlass:        {A: -3.47, B: -0.0594, DeltaT: 3},
	OpenRackGlassPolymer:      {A: -3.56, B: -0.075, DeltaT: 3},
	CloseMountGlassGlass:      {A: -2.98, B: -0.0471, DeltaT: 1},
	InsulatedBackGlassPolymer: {A: -2.81, B: -0.0455, DeltaT: 0},
}

func (c InstallationClass) String() string {
	switch c {
	case OpenRackGlassGlass:
		return "open_rack_glass_glass"
	case OpenRackGlassPolymer:
		return "open_rack_glass_polymer"
	case CloseMountGlassGlass:
		return "close_mount_glass_glass"
	case InsulatedBackGlassPolymer:
		return "insulated_back_glass_polymer"
	}
	return fmt.Sprintf("InstallationClass(%d)", int(c))
}

// Params returns the thermal coefficients of the class.
func (c InstallationClass) Params() (ThermalParams, error) {
	p, ok := thermalParams[c]
	if !ok {
		return ThermalParams{}, fmt.Errorf("unknown module installation %d, expected 1 to 4", int(c))
	}
	return p, nil
}

// CellTemperature returns the cell temperature in °C for plane-of-array
// irradiance poa (W/m²), ambient temperature tAir (°C) and wind speed
// (m/s).
func CellTemperature(poa, tAir, wind float64, p ThermalParams) float64 {
	module := poa*math.Exp(p.A+p.B*wind) + tAir
	return module + poa/1000*p.DeltaT
}
