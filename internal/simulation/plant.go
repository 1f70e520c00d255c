// Package simulation runs the per-plant model chain over a weather record
// and aggregates plant results into a system result.
package simulation

import (
	"errors"

	"github.com/chrissnell/pvyield/internal/devicedb"
	"github.com/chrissnell/pvyield/internal/pv"
	"github.com/chrissnell/pvyield/pkg/config"
)

// Plant is a validated plant configuration with its devices resolved. It is
// immutable once prepared and safe to simulate concurrently with others.
type Plant struct {
	Index    int
	Config   config.PlantConfig
	Module   devicedb.ModuleParams
	Inverter devicedb.InverterParams

	dc        pv.ModuleDC
	converter pv.Inverter
	surface   pv.Surface
	array     pv.Array
	losses    pv.Losses
}

// Prepare validates cfg and resolves its module and inverter in db. Every
// failure is a *config.ConfigError; lookup misses wrap a
// *devicedb.NotFoundError.
func Prepare(index int, cfg config.PlantConfig, db devicedb.Lookup) (*Plant, error) {
	if err := cfg.Validate(index); err != nil {
		return nil, err
	}

	module, err := db.Module(cfg.ModulesDatabaseType, cfg.ModuleName)
	if err != nil {
		return nil, config.PlantError(index, cfg, "moduleName", err)
	}
	model, err := pv.NewModule(module)
	if err != nil {
		return nil, config.PlantError(index, cfg, "modulesDatabaseType", err)
	}

	// The inverter has to exist even when a constant efficiency is used.
	inverter, err := db.Inverter(cfg.InverterName)
	if err != nil {
		return nil, config.PlantError(index, cfg, "inverterName", err)
	}

	thermal, err := pv.InstallationClass(cfg.ModuleInstallation).Params()
	if err != nil {
		return nil, config.PlantError(index, cfg, "moduleInstallation", err)
	}

	var converter pv.Inverter
	if cfg.UseInverterDatabase {
		converter = pv.SandiaInverter{Params: inverter, Standby: cfg.UseStandByPowerInverter}
	} else {
		converter = pv.ConstantEfficiency{Eta: cfg.InverterEta}
	}

	return &Plant{
		Index:     index,
		Config:    cfg,
		Module:    module,
		Inverter:  inverter,
		dc:        pv.ModuleDC{Module: model, Thermal: thermal},
		converter: converter,
		surface: pv.Surface{
			Tilt:    cfg.SurfaceTilt,
			Azimuth: cfg.SurfaceAzimuth,
			Albedo:  cfg.Albedo,
		},
		array: pv.Array{
			ModulesPerString:   cfg.ModulesPerString,
			StringsPerInverter: cfg.StringsPerInverter,
			Inverters:          cfg.NumberOfInverters,
		},
		losses: pv.Losses{
			Irradiation: cfg.LossesIrradiation,
			Datasheet:   cfg.LossesDCDatasheet,
			Cables:      cfg.LossesDCCables,
		},
	}, nil
}

// PreparePlants prepares every plant and reports all failures together.
func PreparePlants(cfgs []config.PlantConfig, db devicedb.Lookup) ([]*Plant, error) {
	plants := make([]*Plant, 0, len(cfgs))
	var errs []error
	for i, cfg := range cfgs {
		p, err := Prepare(i, cfg, db)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		plants = append(plants, p)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return plants, nil
}

// RatedPower returns the array's rated DC power at standard test conditions
// in kWp.
func (p *Plant) RatedPower() float64 {
	return p.Module.RatedPower() * float64(p.array.Modules()) / 1000
}

// SurfaceArea returns the total module area in m².
func (p *Plant) SurfaceArea() float64 {
	return p.Module.Area() * float64(p.array.Modules())
}

// Label identifies the plant in logs.
func (p *Plant) Label() string {
	return p.Config.Label(p.Index)
}
