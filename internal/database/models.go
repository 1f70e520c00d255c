package database

import (
	"time"
)

// SimulationRun is the annual summary of one simulation run
type SimulationRun struct {
	RunID             string    `gorm:"primaryKey;column:run_id"`
	CreatedAt         time.Time `gorm:"column:created_at;not null"`
	Latitude          float64   `gorm:"column:latitude"`
	Longitude         float64   `gorm:"column:longitude"`
	WeatherFile       string    `gorm:"column:weather_file"`
	WeatherKind       string    `gorm:"column:weather_kind"`
	Plants            int       `gorm:"column:plants"`
	EnergyYield       float64   `gorm:"column:energy_yield_kwh"`
	RatedPower        float64   `gorm:"column:rated_power_kwp"`
	SurfaceArea       float64   `gorm:"column:surface_area_m2"`
	SpecificYield     float64   `gorm:"column:specific_yield_kwh_kwp"`
	AreaSpecificYield float64   `gorm:"column:area_specific_yield_kwh_m2"`
	PeakACPower       float64   `gorm:"column:peak_ac_power"`
}

// TableName specifies the table name for SimulationRun
func (SimulationRun) TableName() string {
	return "simulation_runs"
}

// PlantYield is the annual summary of one plant of a run, losses included
type PlantYield struct {
	RunID               string  `gorm:"primaryKey;column:run_id"`
	PlantIndex          int     `gorm:"primaryKey;column:plant_index"`
	UID                 string  `gorm:"column:uid"`
	ModuleName          string  `gorm:"column:module_name"`
	InverterName        string  `gorm:"column:inverter_name"`
	EnergyYield         float64 `gorm:"column:energy_yield_kwh"`
	DCEnergy            float64 `gorm:"column:dc_energy_kwh"`
	RatedPower          float64 `gorm:"column:rated_power_kwp"`
	SurfaceArea         float64 `gorm:"column:surface_area_m2"`
	SpecificYield       float64 `gorm:"column:specific_yield_kwh_kwp"`
	AreaSpecificYield   float64 `gorm:"column:area_specific_yield_kwh_m2"`
	MeanCellTemperature float64 `gorm:"column:mean_cell_temperature"`
	LossIrradiation     float64 `gorm:"column:loss_irradiation_kwh"`
	LossDatasheet       float64 `gorm:"column:loss_datasheet_kwh"`
	LossCables          float64 `gorm:"column:loss_cables_kwh"`
	LossInverter        float64 `gorm:"column:loss_inverter_kwh"`
	LossClipping        float64 `gorm:"column:loss_clipping_kwh"`
	LossStandby         float64 `gorm:"column:loss_standby_kwh"`
}

// TableName specifies the table name for PlantYield
func (PlantYield) TableName() string {
	return "plant_yields"
}

// PlantHourly is one simulated hour of one plant. The table is a
// TimescaleDB hypertable partitioned on Time.
type PlantHourly struct {
	Time            time.Time `gorm:"column:time;not null"`
	RunID           string    `gorm:"column:run_id;not null"`
	PlantIndex      int       `gorm:"column:plant_index;not null"`
	POAGlobal       float32   `gorm:"column:poa_global"`
	CellTemperature float32   `gorm:"column:cell_temperature"`
	DCPower         float32   `gorm:"column:dc_power"`
	ACPower         float32   `gorm:"column:ac_power"`
}

// TableName specifies the table name for PlantHourly
func (PlantHourly) TableName() string {
	return "plant_hourly"
}
