package pv

import (
	"math"

	"github.com/chrissnell/pvyield/internal/devicedb"
)

// ACOutput is the AC side of one hour for all inverters of an array, in W.
type ACOutput struct {
	Power   float64 `json:"power"`
	Clipped float64 `json:"clipped"` // AC power discarded by the Paco limit
	Standby float64 `json:"standby"` // night-time draw of the inverters
}

// Inverter converts array DC power into AC power.
type Inverter interface {
	// Convert takes the array DC power, the DC voltage at each inverter
	// and the inverter count. The array power is shared equally.
	Convert(pdc, vdc float64, inverters int) ACOutput
}

// SandiaInverter applies the Sandia inverter efficiency curve with
// clipping at rated AC power. When Standby is set, the inverters' night
// consumption is reported for hours below the start-up threshold; output
// never goes below zero.
type SandiaInverter struct {
	Params  devicedb.InverterParams
	Standby bool
}

func (s SandiaInverter) Convert(pdc, vdc float64, inverters int) ACOutput {
	if inverters <= 0 {
		return ACOutput{}
	}
	p := s.Params
	n := float64(inverters)
	perDC := pdc / n

	if perDC < p.Pso {
		out := ACOutput{}
		if s.Standby {
			out.Standby = math.Abs(p.Pnt) * n
		}
		return out
	}

	dv := vdc - p.Vdco
	a := p.Pdco * (1 + p.C1*dv)
	b := p.Pso * (1 + p.C2*dv)
	c := p.C0 * (1 + p.C3*dv)

	ac := (p.Paco/(a-b)-c*(a-b))*(perDC-b) + c*(perDC-b)*(perDC-b)

	var clipped float64
	if ac > p.Paco {
		clipped = ac - p.Paco
		ac = p.Paco
	}
	ac = math.Max(ac, 0)

	return ACOutput{Power: ac * n, Clipped: clipped * n}
}

// ConstantEfficiency converts DC to AC with a fixed efficiency and no
// capacity limit.
type ConstantEfficiency struct {
	Eta float64
}

func (c ConstantEfficiency) Convert(pdc, _ float64, _ int) ACOutput {
	return ACOutput{Power: math.Max(pdc*c.Eta, 0)}
}
