package pv

import (
	"fmt"
	"math"

	"github.com/chrissnell/pvyield/internal/devicedb"
)

// MPP is a module operating point at maximum power.
type MPP struct {
	Power   float64 `json:"p_mp"`
	Voltage float64 `json:"v_mp"`
	Current float64 `json:"i_mp"`
	Voc     float64 `json:"v_oc"`
	Isc     float64 `json:"i_sc"`
}

// Module is an electrical model of a single PV module.
type Module interface {
	// MaxPower returns the maximum power point for effective irradiance ee
	// (W/m²) and cell temperature tCell (°C).
	MaxPower(ee, tCell float64) MPP

	// SpectralModifier returns the spectral correction factor for an
	// absolute air mass.
	SpectralModifier(airmass float64) float64
}

// NewModule picks the electrical model matching the library a module
// record came from.
func NewModule(m devicedb.ModuleParams) (Module, error) {
	switch {
	case m.Kind == devicedb.Sandia && m.SAPM != nil:
		return SAPMModule{P: *m.SAPM}, nil
	case m.Kind == devicedb.CEC && m.CEC != nil:
		return CECModule{P: *m.CEC}, nil
	}
	return nil, fmt.Errorf("module %q has no %s parameters", m.Name, m.Kind)
}

// SAPMModule implements the Sandia Array Performance Model.
type SAPMModule struct {
	P devicedb.SAPMParams
}

const (
	elementaryCharge = 1.60218e-19 // C
	boltzmann        = 1.38066e-23 // J/K
	tRefC            = 25.0
)

func (m SAPMModule) MaxPower(ee, tCell float64) MPP {
	suns := ee / 1000
	if suns <= 0 {
		return MPP{}
	}
	p := m.P
	dT := tCell - tRefC
	delta := p.N * boltzmann * (tCell + 273.15) / elementaryCharge
	logEe := math.Log(suns)

	bvmpo := p.Bvmpo + p.Mbvmp*(1-suns)
	bvoco := p.Bvoco + p.Mbvoc*(1-suns)

	isc := p.Isco * suns * (1 + p.Aisc*dT)
	imp := p.Impo * (p.C0*suns + p.C1*suns*suns) * (1 + p.Aimp*dT)
	voc := math.Max(0, p.Voco+p.CellsInSeries*delta*logEe+bvoco*dT)
	vmp := math.Max(0, p.Vmpo+p.C2*p.CellsInSeries*delta*logEe+
		p.C3*p.CellsInSeries*(delta*logEe)*(delta*logEe)+bvmpo*dT)

	imp = math.Max(0, imp)
	return MPP{
		Power:   imp * vmp,
		Voltage: vmp,
		Current: imp,
		Voc:     voc,
		Isc:     math.Max(0, isc),
	}
}

// SpectralModifier evaluates the SAPM F1 polynomial.
func (m SAPMModule) SpectralModifier(airmass float64) float64 {
	if airmass <= 0 {
		return 1
	}
	p := m.P
	f1 := p.A0 + airmass*(p.A1+airmass*(p.A2+airmass*(p.A3+airmass*p.A4)))
	return math.Max(0, f1)
}
