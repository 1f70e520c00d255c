package pv

import (
	"math"

	"github.com/chrissnell/pvyield/internal/devicedb"
)

const (
	boltzmannEV = 8.617332478e-05 // eV/K
	tRefK       = 298.15
	bandgapRef  = 1.121 // eV, crystalline silicon
	bandgapDT   = -0.0002677
	irrRef      = 1000.0

	solverIterations = 100
)

// CECModule implements the five-parameter single-diode model with the
// CEC temperature adjustment of the short-circuit current coefficient.
type CECModule struct {
	P devicedb.CECParams
}

// SingleDiode holds the single-diode equation parameters at one operating
// condition.
type SingleDiode struct {
	PhotoCurrent      float64 // I_L, A
	SaturationCurrent float64 // I_0, A
	SeriesResistance  float64 // R_s, ohm
	ShuntResistance   float64 // R_sh, ohm
	NNsVth            float64 // diode factor × cells in series × thermal voltage, V
}

// Params translates the reference parameters to irradiance ee (W/m²) and
// cell temperature tCell (°C).
func (m CECModule) Params(ee, tCell float64) SingleDiode {
	p := m.P
	tk := tCell + 273.15
	alphaSc := p.AlphaSc * (1 - p.Adjust/100)

	bandgap := bandgapRef * (1 + bandgapDT*(tk-tRefK))

	return SingleDiode{
		PhotoCurrent:      ee / irrRef * (p.ILRef + alphaSc*(tk-tRefK)),
		SaturationCurrent: p.IoRef * math.Pow(tk/tRefK, 3) * math.Exp(bandgapRef/(boltzmannEV*tRefK)-bandgap/(boltzmannEV*tk)),
		SeriesResistance:  p.Rs,
		ShuntResistance:   p.RshRef * irrRef / ee,
		NNsVth:            p.ARef * tk / tRefK,
	}
}

func (m CECModule) MaxPower(ee, tCell float64) MPP {
	if ee <= 0 {
		return MPP{}
	}
	return m.Params(ee, tCell).MaxPower()
}

// SpectralModifier is unity; the CEC library carries no spectral
// coefficients.
func (m CECModule) SpectralModifier(float64) float64 {
	return 1
}

// current returns the terminal current when the diode voltage is vd.
func (d SingleDiode) current(vd float64) float64 {
	return d.PhotoCurrent - d.SaturationCurrent*math.Expm1(vd/d.NNsVth) - vd/d.ShuntResistance
}

func (d SingleDiode) point(vd float64) (v, i float64) {
	i = d.current(vd)
	return vd - i*d.SeriesResistance, i
}

// MaxPower solves the I-V curve parameterized by diode voltage. Open and
// short circuit are located by bisection and the maximum power point by
// golden-section search between them.
func (d SingleDiode) MaxPower() MPP {
	if d.PhotoCurrent <= 0 || d.SaturationCurrent <= 0 || d.NNsVth <= 0 {
		return MPP{}
	}

	vdOC := bisect(0, d.NNsVth*math.Log1p(d.PhotoCurrent/d.SaturationCurrent), func(vd float64) bool {
		return d.current(vd) > 0
	})
	vdSC := bisect(0, vdOC, func(vd float64) bool {
		return vd-d.SeriesResistance*d.current(vd) < 0
	})

	power := func(vd float64) float64 {
		v, i := d.point(vd)
		return v * i
	}

	const invPhi = 0.6180339887498949
	a, b := vdSC, vdOC
	c := b - invPhi*(b-a)
	e := a + invPhi*(b-a)
	pc, pe := power(c), power(e)
	for k := 0; k < solverIterations; k++ {
		if pc > pe {
			b, e, pe = e, c, pc
			c = b - invPhi*(b-a)
			pc = power(c)
		} else {
			a, c, pc = c, e, pe
			e = a + invPhi*(b-a)
			pe = power(e)
		}
		if b-a < 1e-9 {
			break
		}
	}

	vmp, imp := d.point((a + b) / 2)
	_, isc := d.point(vdSC)
	if vmp <= 0 || imp <= 0 {
		return MPP{}
	}
	return MPP{
		Power:   vmp * imp,
		Voltage: vmp,
		Current: imp,
		Voc:     vdOC,
		Isc:     isc,
	}
}

// bisect returns the boundary in [lo, hi] where below switches from true to
// false.
func bisect(lo, hi float64, below func(float64) bool) float64 {
	for k := 0; k < solverIterations; k++ {
		mid := (lo + hi) / 2
		if below(mid) {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo < 1e-12 {
			break
		}
	}
	return lo
}
