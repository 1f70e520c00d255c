package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chrissnell/pvyield/internal/devicedb"
)

// InputProvider defines the interface for simulation input sources
type InputProvider interface {
	// LoadInput reads, decodes and defaults the input document. It does not
	// validate it; call Validate on the result.
	LoadInput() (*InputData, error)
}

// NewProvider returns the provider for backend ("json" or "yaml"). An empty
// backend is inferred from the file extension.
func NewProvider(backend, filename string) (InputProvider, error) {
	if backend == "" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".yaml", ".yml":
			backend = "yaml"
		default:
			backend = "json"
		}
	}

	switch strings.ToLower(backend) {
	case "json":
		return NewJSONProvider(filename), nil
	case "yaml", "yml":
		return NewYAMLProvider(filename), nil
	}
	return nil, fmt.Errorf("unsupported config backend: %s (supported: json, yaml)", backend)
}

// InputData is the complete simulation input document
type InputData struct {
	UUID           string             `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	WeatherData    WeatherData        `json:"weatherData" yaml:"weatherData"`
	Plants         []PlantConfig      `json:"PhotovoltaicPlants" yaml:"PhotovoltaicPlants"`
	ShowPlots      bool               `json:"showPlots,omitempty" yaml:"showPlots,omitempty"`
	DeviceDatabase DeviceDatabaseData `json:"deviceDatabase,omitempty" yaml:"deviceDatabase,omitempty"`
	Storage        StorageData        `json:"storage,omitempty" yaml:"storage,omitempty"`
}

// SiteLocation is the geographic location of all plants of a run
type SiteLocation struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// WeatherData holds the site location and the weather file to simulate with
type WeatherData struct {
	Latitude        float64 `json:"latitude" yaml:"latitude"`
	Longitude       float64 `json:"longitude" yaml:"longitude"`
	WeatherDataFile string  `json:"weatherDataFile" yaml:"weatherDataFile"`
	RecalculateDNI  bool    `json:"recalculateDNI,omitempty" yaml:"recalculateDNI,omitempty"`
}

// Location returns the configured site.
func (w WeatherData) Location() SiteLocation {
	return SiteLocation{Latitude: w.Latitude, Longitude: w.Longitude}
}

// PlantConfig describes one PV sub-array
type PlantConfig struct {
	UID                     string                `json:"uid,omitempty" yaml:"uid,omitempty"`
	SurfaceAzimuth          float64               `json:"surfaceAzimuth" yaml:"surfaceAzimuth"`
	SurfaceTilt             float64               `json:"surfaceTilt" yaml:"surfaceTilt"`
	ModulesPerString        int                   `json:"modulesPerString" yaml:"modulesPerString"`
	StringsPerInverter      int                   `json:"stringsPerInverter" yaml:"stringsPerInverter"`
	NumberOfInverters       int                   `json:"numberOfInverters" yaml:"numberOfInverters"`
	Albedo                  float64               `json:"albedo" yaml:"albedo"`
	ModuleInstallation      int                   `json:"moduleInstallation" yaml:"moduleInstallation"`
	ModulesDatabaseType     devicedb.DatabaseKind `json:"modulesDatabaseType" yaml:"modulesDatabaseType"`
	ModuleName              string                `json:"moduleName" yaml:"moduleName"`
	InverterName            string                `json:"inverterName" yaml:"inverterName"`
	UseInverterDatabase     bool                  `json:"useInverterDatabase" yaml:"useInverterDatabase"`
	UseStandByPowerInverter bool                  `json:"useStandByPowerInverter" yaml:"useStandByPowerInverter"`
	InverterEta             float64               `json:"inverterEta" yaml:"inverterEta"`
	LossesIrradiation       float64               `json:"lossesIrradiation" yaml:"lossesIrradiation"`
	LossesDCDatasheet       float64               `json:"lossesDCDatasheet" yaml:"lossesDCDatasheet"`
	LossesDCCables          float64               `json:"lossesDCCables" yaml:"lossesDCCables"`
}

// DefaultPlant returns a PlantConfig carrying the defaults applied to keys
// missing from the input document.
func DefaultPlant() PlantConfig {
	return PlantConfig{
		Albedo:              0.2,
		ModuleInstallation:  1,
		ModulesDatabaseType: devicedb.Sandia,
		InverterEta:         0.92,
		LossesIrradiation:   1.0,
		LossesDCDatasheet:   2.0,
		LossesDCCables:      0.0,
	}
}

// Label identifies the plant in log lines and errors.
func (p PlantConfig) Label(index int) string {
	if p.UID != "" {
		return fmt.Sprintf("plant %d (%s)", index, p.UID)
	}
	return fmt.Sprintf("plant %d", index)
}

// DeviceDatabaseData points at the module and inverter libraries. Either the
// SAM CSV files or an SQLite catalog built by pvdb-import may be given.
type DeviceDatabaseData struct {
	SandiaModules string `json:"modules_sandia,omitempty" yaml:"modules_sandia,omitempty"`
	CECModules    string `json:"modules_cec,omitempty" yaml:"modules_cec,omitempty"`
	Inverters     string `json:"inverters,omitempty" yaml:"inverters,omitempty"`
	SQLite        string `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
}

// IsZero reports whether no device database was configured.
func (d DeviceDatabaseData) IsZero() bool {
	return d == DeviceDatabaseData{}
}

// StorageData holds the configuration for result storage backends
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty" yaml:"timescaledb,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string" yaml:"connection_string"`
}

// ResolvePaths makes relative file references relative to base.
func (in *InputData) ResolvePaths(base string) {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	resolve(&in.WeatherData.WeatherDataFile)
	resolve(&in.DeviceDatabase.SandiaModules)
	resolve(&in.DeviceDatabase.CECModules)
	resolve(&in.DeviceDatabase.Inverters)
	resolve(&in.DeviceDatabase.SQLite)
}
