package simulation

import (
	"fmt"
	"strconv"
	"time"
)

const timestampLayout = time.RFC3339

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// Columns implements responseformat.Tabular.
func (r *PlantResult) Columns() []string {
	return []string{"timestamp", "poa_global_w_m2", "cell_temperature_c", "dc_power_w", "ac_power_w"}
}

// Rows implements responseformat.Tabular with one row per hour.
func (r *PlantResult) Rows() [][]string {
	rows := make([][]string, len(r.Timestamps))
	for i, ts := range r.Timestamps {
		rows[i] = []string{
			ts.Format(timestampLayout),
			formatFloat(r.POAGlobal[i]),
			formatFloat(r.CellTemperature[i]),
			formatFloat(r.DCPower[i]),
			formatFloat(r.ACPower[i]),
		}
	}
	return rows
}

// Columns implements responseformat.Tabular: the system AC power followed
// by the AC power of every plant.
func (s *SystemResult) Columns() []string {
	cols := []string{"timestamp", "ac_power_w"}
	for _, p := range s.Plants {
		name := fmt.Sprintf("plant_%d", p.Index)
		if p.UID != "" {
			name = p.UID
		}
		cols = append(cols, name+"_ac_power_w")
	}
	return cols
}

// Rows implements responseformat.Tabular with one row per hour.
func (s *SystemResult) Rows() [][]string {
	rows := make([][]string, len(s.Timestamps))
	for i, ts := range s.Timestamps {
		row := make([]string, 0, 2+len(s.Plants))
		row = append(row, ts.Format(timestampLayout), formatFloat(s.ACPower[i]))
		for _, p := range s.Plants {
			row = append(row, formatFloat(p.ACPower[i]))
		}
		rows[i] = row
	}
	return rows
}

// Summary is a SystemResult without hourly series.
type Summary struct {
	RunID             string         `json:"run_id"`
	CreatedAt         time.Time      `json:"created_at"`
	EnergyYield       float64        `json:"energy_yield_kwh"`
	RatedPower        float64        `json:"rated_power_kwp"`
	SurfaceArea       float64        `json:"surface_area_m2"`
	SpecificYield     float64        `json:"specific_yield_kwh_kwp"`
	AreaSpecificYield float64        `json:"area_specific_yield_kwh_m2"`
	PeakACPower       float64        `json:"peak_ac_power"`
	Losses            Losses         `json:"losses"`
	Plants            []PlantSummary `json:"plants"`
}

// PlantSummary is a PlantResult without hourly series.
type PlantSummary struct {
	Index               int     `json:"index"`
	UID                 string  `json:"uid,omitempty"`
	ModuleName          string  `json:"module_name"`
	InverterName        string  `json:"inverter_name"`
	EnergyYield         float64 `json:"energy_yield_kwh"`
	RatedPower          float64 `json:"rated_power_kwp"`
	SurfaceArea         float64 `json:"surface_area_m2"`
	SpecificYield       float64 `json:"specific_yield_kwh_kwp"`
	AreaSpecificYield   float64 `json:"area_specific_yield_kwh_m2"`
	PeakACPower         float64 `json:"peak_ac_power"`
	MeanCellTemperature float64 `json:"mean_cell_temperature"`
	Losses              Losses  `json:"losses"`
}

// Summarize returns the annual figures of s.
func (s *SystemResult) Summarize() Summary {
	sum := Summary{
		RunID:             s.RunID,
		CreatedAt:         s.CreatedAt,
		EnergyYield:       s.EnergyYield,
		RatedPower:        s.RatedPower,
		SurfaceArea:       s.SurfaceArea,
		SpecificYield:     s.SpecificYield,
		AreaSpecificYield: s.AreaSpecificYield,
		PeakACPower:       s.PeakACPower,
		Losses:            s.Losses,
		Plants:            make([]PlantSummary, len(s.Plants)),
	}
	for i, p := range s.Plants {
		sum.Plants[i] = PlantSummary{
			Index:               p.Index,
			UID:                 p.UID,
			ModuleName:          p.ModuleName,
			InverterName:        p.InverterName,
			EnergyYield:         p.EnergyYield,
			RatedPower:          p.RatedPower,
			SurfaceArea:         p.SurfaceArea,
			SpecificYield:       p.SpecificYield,
			AreaSpecificYield:   p.AreaSpecificYield,
			PeakACPower:         p.PeakACPower,
			MeanCellTemperature: p.MeanCellTemperature,
			Losses:              p.Losses,
		}
	}
	return sum
}
