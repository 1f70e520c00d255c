// Package timescaledb stores simulation results in TimescaleDB: run and
// plant summaries in plain tables, hourly profiles in a hypertable.
package timescaledb

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chrissnell/pvyield/internal/database"
	"github.com/chrissnell/pvyield/internal/log"
	"github.com/chrissnell/pvyield/internal/simulation"
	"github.com/chrissnell/pvyield/pkg/config"
)

// hourly rows are inserted in batches of this size
const batchSize = 2000

// Storage holds the configuration for a TimescaleDB storage backend
type Storage struct {
	TimescaleDBConn *gorm.DB
}

type schemaStep struct {
	name string
	sql  string
	// optional steps log a warning instead of failing setup
	optional bool
}

var schema = []schemaStep{
	{name: "TimescaleDB extension", sql: createExtensionSQL},
	{name: "runs table", sql: createRunsTableSQL},
	{name: "plants table", sql: createPlantsTableSQL},
	{name: "hourly table", sql: createHourlyTableSQL},
	{name: "hypertable", sql: createHypertableSQL},
	{name: "hourly index", sql: createHourlyIndexSQL},
	{name: "daily view", sql: createDailyViewSQL, optional: true},
}

// New sets up a new TimescaleDB storage backend
func New(ctx context.Context, c *config.TimescaleDBData) (*Storage, error) {
	db, err := database.CreateConnection(c.ConnectionString)
	if err != nil {
		return nil, err
	}
	t := &Storage{TimescaleDBConn: db}

	for _, step := range schema {
		log.Infof("creating %s...", step.name)
		if err := db.WithContext(ctx).Exec(step.sql).Error; err != nil {
			if step.optional {
				log.Warnf("could not create %s: %v", step.name, err)
				continue
			}
			return nil, fmt.Errorf("failed to create %s: %w", step.name, err)
		}
	}

	return t, nil
}

// StartStorageEngine creates a goroutine loop to receive results and send
// them off to TimescaleDB
func (t *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- *simulation.SystemResult {
	log.Info("starting TimescaleDB storage engine...")
	resultChan := make(chan *simulation.SystemResult, 4)
	wg.Add(1)
	go storageProcessResults(ctx, wg, resultChan, t.StoreResult)
	return resultChan
}

// StoreResult writes a run, its plants and their hourly profiles in one
// transaction. Storing a run ID again replaces the earlier rows.
func (t *Storage) StoreResult(ctx context.Context, r *simulation.SystemResult) error {
	run := runRow(r)
	plants := plantRows(r)
	hourly := hourlyRows(r)

	err := t.TimescaleDBConn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&run).Error; err != nil {
			return fmt.Errorf("failed to store run: %w", err)
		}
		if err := tx.Exec(deleteRunSQL, r.RunID).Error; err != nil {
			return fmt.Errorf("failed to clear previous hourly rows: %w", err)
		}
		if len(plants) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&plants).Error; err != nil {
				return fmt.Errorf("failed to store plant summaries: %w", err)
			}
		}
		if len(hourly) > 0 {
			if err := tx.CreateInBatches(hourly, batchSize).Error; err != nil {
				return fmt.Errorf("failed to store hourly rows: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Errorf("could not store run %s: %v", r.RunID, err)
		return err
	}

	if err := t.TimescaleDBConn.WithContext(ctx).Exec(refreshDailyViewSQL).Error; err != nil {
		log.Warnf("could not refresh daily view: %v", err)
	}

	log.Infof("stored run %s: %d plant(s), %d hourly rows", r.RunID, len(plants), len(hourly))
	return nil
}

// CheckHealth implements storage.HealthChecker.
func (t *Storage) CheckHealth(ctx context.Context) error {
	return database.Ping(ctx, t.TimescaleDBConn)
}

// Close releases the database connection.
func (t *Storage) Close() error {
	sqlDB, err := t.TimescaleDBConn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func runRow(r *simulation.SystemResult) database.SimulationRun {
	return database.SimulationRun{
		RunID:             r.RunID,
		CreatedAt:         r.CreatedAt,
		Latitude:          r.Site.Latitude,
		Longitude:         r.Site.Longitude,
		WeatherFile:       r.Weather.Path,
		WeatherKind:       string(r.Weather.Kind),
		Plants:            len(r.Plants),
		EnergyYield:       r.EnergyYield,
		RatedPower:        r.RatedPower,
		SurfaceArea:       r.SurfaceArea,
		SpecificYield:     r.SpecificYield,
		AreaSpecificYield: r.AreaSpecificYield,
		PeakACPower:       r.PeakACPower,
	}
}

func plantRows(r *simulation.SystemResult) []database.PlantYield {
	rows := make([]database.PlantYield, len(r.Plants))
	for i, p := range r.Plants {
		rows[i] = database.PlantYield{
			RunID:               r.RunID,
			PlantIndex:          p.Index,
			UID:                 p.UID,
			ModuleName:          p.ModuleName,
			InverterName:        p.InverterName,
			EnergyYield:         p.EnergyYield,
			DCEnergy:            p.DCEnergy,
			RatedPower:          p.RatedPower,
			SurfaceArea:         p.SurfaceArea,
			SpecificYield:       p.SpecificYield,
			AreaSpecificYield:   p.AreaSpecificYield,
			MeanCellTemperature: p.MeanCellTemperature,
			LossIrradiation:     p.Losses.Irradiation,
			LossDatasheet:       p.Losses.Datasheet,
			LossCables:          p.Losses.Cables,
			LossInverter:        p.Losses.Inverter,
			LossClipping:        p.Losses.Clipping,
			LossStandby:         p.Losses.Standby,
		}
	}
	return rows
}

func hourlyRows(r *simulation.SystemResult) []database.PlantHourly {
	var n int
	for _, p := range r.Plants {
		n += len(p.Timestamps)
	}

	rows := make([]database.PlantHourly, 0, n)
	for _, p := range r.Plants {
		for i, ts := range p.Timestamps {
			rows = append(rows, database.PlantHourly{
				Time:            ts,
				RunID:           r.RunID,
				PlantIndex:      p.Index,
				POAGlobal:       float32(p.POAGlobal[i]),
				CellTemperature: float32(p.CellTemperature[i]),
				DCPower:         float32(p.DCPower[i]),
				ACPower:         float32(p.ACPower[i]),
			})
		}
	}
	return rows
}
