package simulation

import (
	"context"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/chrissnell/pvyield/internal/pv"
	"github.com/chrissnell/pvyield/internal/weather"
	"github.com/chrissnell/pvyield/pkg/solar"
)

// cancellation is checked every this many hours
const checkEvery = 730

// Losses is the annual energy lost per category, in kWh.
type Losses struct {
	Irradiation float64 `json:"irradiation"`
	Datasheet   float64 `json:"datasheet"`
	Cables      float64 `json:"cables"`
	Inverter    float64 `json:"inverter"`
	Clipping    float64 `json:"clipping"`
	// Standby is consumed by the inverters at night. It is reported, not
	// subtracted from the AC output.
	Standby float64 `json:"standby"`
}

func (l Losses) add(o Losses) Losses {
	return Losses{
		Irradiation: l.Irradiation + o.Irradiation,
		Datasheet:   l.Datasheet + o.Datasheet,
		Cables:      l.Cables + o.Cables,
		Inverter:    l.Inverter + o.Inverter,
		Clipping:    l.Clipping + o.Clipping,
		Standby:     l.Standby + o.Standby,
	}
}

// PlantResult is the hourly profile and annual figures of one plant. Hourly
// powers are in W; as hourly means they equal Wh per hour.
type PlantResult struct {
	Index        int    `json:"index"`
	UID          string `json:"uid,omitempty"`
	ModuleName   string `json:"module_name"`
	InverterName string `json:"inverter_name"`

	Timestamps      []time.Time `json:"timestamps"`
	DCPower         []float64   `json:"dc_power"`
	ACPower         []float64   `json:"ac_power"`
	CellTemperature []float64   `json:"cell_temperature"`
	POAGlobal       []float64   `json:"poa_global"`

	EnergyYield       float64 `json:"energy_yield_kwh"`
	DCEnergy          float64 `json:"dc_energy_kwh"`
	RatedPower        float64 `json:"rated_power_kwp"`
	SurfaceArea       float64 `json:"surface_area_m2"`
	SpecificYield     float64 `json:"specific_yield_kwh_kwp"`
	AreaSpecificYield float64 `json:"area_specific_yield_kwh_m2"`
	PeakACPower       float64 `json:"peak_ac_power"`
	// MeanCellTemperature is weighted by plane-of-array irradiance.
	MeanCellTemperature float64 `json:"mean_cell_temperature"`
	Losses              Losses  `json:"losses"`
}

// Simulate runs the model chain for every hour of rec: plane-of-array
// transform, cell temperature and module DC power, array scaling with
// derating, and inverter conversion.
func (p *Plant) Simulate(ctx context.Context, rec *weather.Record) (*PlantResult, error) {
	n := rec.Len()
	res := &PlantResult{
		Index:           p.Index,
		UID:             p.Config.UID,
		ModuleName:      p.Module.Name,
		InverterName:    p.Inverter.Name,
		Timestamps:      rec.Timestamps(),
		DCPower:         make([]float64, n),
		ACPower:         make([]float64, n),
		CellTemperature: make([]float64, n),
		POAGlobal:       make([]float64, n),
		RatedPower:      p.RatedPower(),
		SurfaceArea:     p.SurfaceArea(),
	}

	var lost Losses
	for i := 0; i < n; i++ {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		s := rec.At(i)
		poa := pv.TransformPOA(
			pv.Irradiance{GHI: s.GHI, DNI: s.DNI, DHI: s.DHI},
			s.Sun,
			solar.ExtraterrestrialDNI(s.Timestamp),
			p.surface,
		)
		airmass := solar.AbsoluteAirmass(solar.RelativeAirmass(s.Sun.ApparentZenith), s.Pressure)

		_, tCell, mpp := p.dc.Evaluate(pv.Conditions{
			POA:       poa,
			Airmass:   airmass,
			TempAir:   s.TempAir,
			WindSpeed: s.WindSpeed,
		})
		dc := pv.ArrayDC(mpp, p.array, p.losses)
		ac := p.converter.Convert(dc.Power, dc.StringVoltage, p.array.Inverters)

		res.POAGlobal[i] = poa.Total
		res.CellTemperature[i] = tCell
		res.DCPower[i] = dc.Power
		res.ACPower[i] = ac.Power

		lost.Irradiation += dc.Raw - dc.AfterIrradiation
		lost.Datasheet += dc.AfterIrradiation - dc.AfterDatasheet
		lost.Cables += dc.AfterDatasheet - dc.Power
		lost.Inverter += dc.Power - ac.Power - ac.Clipped
		lost.Clipping += ac.Clipped
		lost.Standby += ac.Standby
	}

	res.EnergyYield = floats.Sum(res.ACPower) / 1000
	res.DCEnergy = floats.Sum(res.DCPower) / 1000
	res.Losses = Losses{
		Irradiation: lost.Irradiation / 1000,
		Datasheet:   lost.Datasheet / 1000,
		Cables:      lost.Cables / 1000,
		Inverter:    lost.Inverter / 1000,
		Clipping:    lost.Clipping / 1000,
		Standby:     lost.Standby / 1000,
	}
	if n > 0 {
		res.PeakACPower = floats.Max(res.ACPower)
	}
	if floats.Sum(res.POAGlobal) > 0 {
		res.MeanCellTemperature = stat.Mean(res.CellTemperature, res.POAGlobal)
	}
	res.SpecificYield = perUnit(res.EnergyYield, res.RatedPower)
	res.AreaSpecificYield = perUnit(res.EnergyYield, res.SurfaceArea)

	return res, nil
}

func perUnit(energy, size float64) float64 {
	if size <= 0 {
		return 0
	}
	return energy / size
}
