package config

import (
	"errors"
	"fmt"
	"math"
)

// ConfigError reports an invalid input value. Plant is the index of the
// offending plant, or -1 for document-level fields.
type ConfigError struct {
	Plant int
	UID   string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	where := "input"
	if e.Plant >= 0 {
		where = PlantConfig{UID: e.UID}.Label(e.Plant)
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", where, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", where, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// PlantError returns a ConfigError for field of plant index.
func PlantError(index int, p PlantConfig, field string, err error) *ConfigError {
	return &ConfigError{Plant: index, UID: p.UID, Field: field, Err: err}
}

// Validate checks the document schema and value ranges. All problems are
// reported, joined; each is a *ConfigError. Device names are resolved later,
// against the device database.
func (in *InputData) Validate() error {
	var errs []error
	global := func(field, format string, args ...any) {
		errs = append(errs, &ConfigError{Plant: -1, Field: field, Err: fmt.Errorf(format, args...)})
	}

	w := in.WeatherData
	if !inRange(w.Latitude, -90, 90) {
		global("weatherData.latitude", "%v is outside [-90, 90]", w.Latitude)
	}
	if !inRange(w.Longitude, -180, 180) {
		global("weatherData.longitude", "%v is outside [-180, 180]", w.Longitude)
	}
	if w.WeatherDataFile == "" {
		global("weatherData.weatherDataFile", "no weather file given")
	}

	if len(in.Plants) == 0 {
		global("PhotovoltaicPlants", "at least one plant is required")
	}
	for i, p := range in.Plants {
		if err := p.Validate(i); err != nil {
			errs = append(errs, err)
		}
	}

	d := in.DeviceDatabase
	if d.SQLite != "" && (d.SandiaModules != "" || d.CECModules != "" || d.Inverters != "") {
		global("deviceDatabase", "sqlite cannot be combined with CSV files")
	}

	if in.Storage.TimescaleDB != nil && in.Storage.TimescaleDB.ConnectionString == "" {
		global("storage.timescaledb.connection_string", "must not be empty")
	}

	return errors.Join(errs...)
}

// Validate checks one plant. index is used for error reporting only.
func (p PlantConfig) Validate(index int) error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, PlantError(index, p, field, fmt.Errorf(format, args...)))
	}

	if !inRange(p.SurfaceAzimuth, 0, 360) {
		bad("surfaceAzimuth", "%v is outside [0, 360]", p.SurfaceAzimuth)
	}
	if !inRange(p.SurfaceTilt, 0, 90) {
		bad("surfaceTilt", "%v is outside [0, 90]", p.SurfaceTilt)
	}
	if p.ModulesPerString < 1 {
		bad("modulesPerString", "must be at least 1, got %d", p.ModulesPerString)
	}
	if p.StringsPerInverter < 1 {
		bad("stringsPerInverter", "must be at least 1, got %d", p.StringsPerInverter)
	}
	if p.NumberOfInverters < 1 {
		bad("numberOfInverters", "must be at least 1, got %d", p.NumberOfInverters)
	}
	if !inRange(p.Albedo, 0, 1) {
		bad("albedo", "%v is outside [0, 1]", p.Albedo)
	}
	if p.ModuleInstallation < 1 || p.ModuleInstallation > 4 {
		bad("moduleInstallation", "unknown installation class %d (expected 1-4)", p.ModuleInstallation)
	}
	if !p.ModulesDatabaseType.Valid() {
		bad("modulesDatabaseType", "unknown module database %v", p.ModulesDatabaseType)
	}
	if p.ModuleName == "" {
		bad("moduleName", "must not be empty")
	}
	if p.InverterName == "" {
		bad("inverterName", "must not be empty")
	}
	if !p.UseInverterDatabase && !(p.InverterEta > 0 && p.InverterEta <= 1) {
		bad("inverterEta", "%v is outside (0, 1]", p.InverterEta)
	}
	for _, l := range []struct {
		field string
		v     float64
	}{
		{"lossesIrradiation", p.LossesIrradiation},
		{"lossesDCDatasheet", p.LossesDCDatasheet},
		{"lossesDCCables", p.LossesDCCables},
	} {
		if !(l.v >= 0 && l.v < 100) {
			bad(l.field, "%v%% is outside [0, 100)", l.v)
		}
	}

	return errors.Join(errs...)
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}
