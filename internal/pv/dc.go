package pv

import "math"

// Array is the wiring of identical modules behind identical inverters.
type Array struct {
	ModulesPerString   int
	StringsPerInverter int
	Inverters          int
}

// Modules returns the total module count.
func (a Array) Modules() int {
	return a.ModulesPerString * a.StringsPerInverter * a.Inverters
}

// Losses are DC derating percentages, applied in field order.
type Losses struct {
	Irradiation float64
	Datasheet   float64
	Cables      float64
}

// DCOutput is the DC side of one hour for a whole array. Array powers are
// in W; every derating stage is kept so losses can be attributed.
type DCOutput struct {
	Module           MPP     `json:"module"`
	Raw              float64 `json:"raw"`
	AfterIrradiation float64 `json:"after_irradiation"`
	AfterDatasheet   float64 `json:"after_datasheet"`
	Power            float64 `json:"power"`
	// StringVoltage is the voltage seen by each inverter.
	StringVoltage float64 `json:"string_voltage"`
}

// ArrayDC scales a module operating point up to the array and applies the
// derating losses.
func ArrayDC(mpp MPP, a Array, l Losses) DCOutput {
	perInverter := math.Max(mpp.Power, 0) * float64(a.ModulesPerString) * float64(a.StringsPerInverter)
	raw := perInverter * float64(a.Inverters)

	afterIrr := raw * (1 - l.Irradiation/100)
	afterDS := afterIrr * (1 - l.Datasheet/100)
	final := afterDS * (1 - l.Cables/100)

	return DCOutput{
		Module:           mpp,
		Raw:              raw,
		AfterIrradiation: afterIrr,
		AfterDatasheet:   afterDS,
		Power:            final,
		StringVoltage:    math.Max(mpp.Voltage, 0) * float64(a.ModulesPerString),
	}
}

// ModuleDC is the per-module DC model: the cell temperature and operating
// point of one module for one hour.
type ModuleDC struct {
	Module  Module
	Thermal ThermalParams
}

// Conditions is the weather seen by a module in one hour.
type Conditions struct {
	POA       POA
	Airmass   float64 // absolute
	TempAir   float64
	WindSpeed float64
}

// Evaluate returns the effective irradiance, cell temperature and maximum
// power point. Without light on the plane it returns zeros and the ambient
// temperature without evaluating the thermal model.
func (m ModuleDC) Evaluate(c Conditions) (ee, tCell float64, mpp MPP) {
	if c.POA.Total <= 0 {
		return 0, c.TempAir, MPP{}
	}
	ee = EffectiveIrradiance(c.POA, m.Module.SpectralModifier(c.Airmass))
	tCell = CellTemperature(c.POA.Total, c.TempAir, c.WindSpeed, m.Thermal)
	if ee <= 0 {
		return 0, tCell, MPP{}
	}
	return ee, tCell, m.Module.MaxPower(ee, tCell)
}
