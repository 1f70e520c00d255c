package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chrissnell/pvyield/internal/controllers/restserver"
	"github.com/chrissnell/pvyield/internal/devicedb"
	"github.com/chrissnell/pvyield/internal/log"
	"github.com/chrissnell/pvyield/internal/simulation"
	"github.com/chrissnell/pvyield/internal/storage"
	"github.com/chrissnell/pvyield/internal/storage/timescaledb"
	"github.com/chrissnell/pvyield/internal/weather"
	"github.com/chrissnell/pvyield/pkg/config"
	"github.com/chrissnell/pvyield/pkg/responseformat"
)

// clearSkyFactor is the GHI to clear-sky ratio above which an hour is
// counted as implausible.
const clearSkyFactor = 1.2

// storageHealthInterval is how often the TimescaleDB sink is checked while
// serving.
const storageHealthInterval = time.Minute

// Options control what App does with a finished run
type Options struct {
	// OutputFile receives the result. Empty writes a summary to stdout.
	OutputFile string
	// Format of OutputFile. Empty infers it from the file extension.
	Format responseformat.Format
	// Serve starts the REST server instead of a single batch run.
	Serve  bool
	Server restserver.Options
	// TimescaleDB overrides the storage section of the input document. It
	// is the only storage setting used while serving.
	TimescaleDB *config.TimescaleDBData
	// Workers bounds the plants simulated in parallel. Zero uses all CPUs.
	Workers int
}

// App represents the main application
type App struct {
	provider config.InputProvider
	opts     Options
	runner   *simulation.Runner
	logger   *zap.SugaredLogger
}

// New creates a new application instance. provider may be nil when only
// serving.
func New(provider config.InputProvider, opts Options, logger *zap.SugaredLogger) *App {
	return &App{
		provider: provider,
		opts:     opts,
		runner:   simulation.NewRunner(opts.Workers, logger),
		logger:   logger,
	}
}

// Run executes a batch simulation, or serves the REST API until ctx is
// cancelled or a shutdown signal arrives.
func (a *App) Run(ctx context.Context) error {
	if a.opts.Serve {
		return a.serve(ctx)
	}
	if a.provider == nil {
		return errors.New("no input document given")
	}

	in, err := a.provider.LoadInput()
	if err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	result, err := a.Simulate(ctx, in)
	if err != nil {
		return err
	}

	if err := a.export(result); err != nil {
		return err
	}

	tsConfig := in.Storage.TimescaleDB
	if a.opts.TimescaleDB != nil {
		tsConfig = a.opts.TimescaleDB
	}
	if tsConfig != nil {
		if err := a.store(ctx, tsConfig, result); err != nil {
			return err
		}
	}
	return nil
}

// Simulate resolves the devices of every plant, reads the weather file and
// runs all plants. Device errors are reported before the weather file is
// touched.
func (a *App) Simulate(ctx context.Context, in *config.InputData) (*simulation.SystemResult, error) {
	db, closeDB, err := openCatalog(in.DeviceDatabase)
	if err != nil {
		return nil, err
	}
	defer closeDB()

	plants, err := simulation.PreparePlants(in.Plants, db)
	if err != nil {
		return nil, err
	}
	for _, p := range plants {
		a.logger.Debugf("%s: %d modules of %s, %.2f kWp", p.Label(),
			p.Config.ModulesPerString*p.Config.StringsPerInverter*p.Config.NumberOfInverters,
			p.Module.Name, p.RatedPower())
	}

	loc := in.WeatherData.Location()
	site := weather.Site{Latitude: loc.Latitude, Longitude: loc.Longitude}
	rec, err := weather.Ingest(in.WeatherData.WeatherDataFile, site, weather.Options{
		RecalculateDNI: in.WeatherData.RecalculateDNI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read weather data: %w", err)
	}
	if n := rec.ExceedsClearSky(clearSkyFactor); n > 0 {
		a.logger.Warnf("%d hour(s) of %s exceed the clear-sky irradiance; check the site location and time base",
			n, in.WeatherData.WeatherDataFile)
	}

	runID := in.UUID
	if runID == "" {
		runID = uuid.NewString()
	}
	return a.runner.Simulate(ctx, runID, rec, plants)
}

// openCatalog returns the device lookup configured by d and a function that
// releases it.
func openCatalog(d config.DeviceDatabaseData) (devicedb.Lookup, func(), error) {
	if d.IsZero() {
		return nil, nil, &config.ConfigError{Plant: -1, Field: "deviceDatabase", Err: errors.New("no module or inverter database configured")}
	}

	if d.SQLite != "" {
		db, err := devicedb.OpenSQLite(d.SQLite)
		if err != nil {
			return nil, nil, err
		}
		return db, func() {
			if err := db.Close(); err != nil {
				log.Warnf("failed to close device database: %v", err)
			}
		}, nil
	}

	cat, err := devicedb.LoadFiles(devicedb.Files{
		SandiaModules: d.SandiaModules,
		CECModules:    d.CECModules,
		Inverters:     d.Inverters,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load device database: %w", err)
	}
	return cat, func() {}, nil
}

// OutputFormat returns the format for path: format when set, else the one
// named by the file extension, else JSON.
func OutputFormat(path string, format responseformat.Format) (responseformat.Format, error) {
	if format != "" {
		return responseformat.ParseFormat(string(format))
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if f, err := responseformat.ParseFormat(ext); err == nil {
		return f, nil
	}
	return responseformat.JSON, nil
}

func (a *App) export(result *simulation.SystemResult) error {
	formatter := responseformat.NewFormatter()

	if a.opts.OutputFile == "" {
		return formatter.Encode(os.Stdout, responseformat.JSON, result.Summarize())
	}

	format, err := OutputFormat(a.opts.OutputFile, a.opts.Format)
	if err != nil {
		return err
	}

	f, err := os.Create(a.opts.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := formatter.Encode(f, format, result); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", a.opts.OutputFile, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", a.opts.OutputFile, err)
	}

	a.logger.Infof("wrote %s result of run %s to %s", format, result.RunID, a.opts.OutputFile)
	return nil
}

func (a *App) store(ctx context.Context, c *config.TimescaleDBData, result *simulation.SystemResult) error {
	ts, err := timescaledb.New(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to set up TimescaleDB storage: %w", err)
	}
	defer ts.Close()

	if err := ts.StoreResult(ctx, result); err != nil {
		return fmt.Errorf("failed to store run %s: %w", result.RunID, err)
	}
	a.logger.Infof("stored run %s in TimescaleDB", result.RunID)
	return nil
}

func (a *App) serve(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		results chan<- *simulation.SystemResult
		health  *storage.HealthMonitor
	)
	if a.opts.TimescaleDB != nil {
		ts, err := timescaledb.New(ctx, a.opts.TimescaleDB)
		if err != nil {
			return fmt.Errorf("failed to set up TimescaleDB storage: %w", err)
		}
		defer ts.Close()

		results = ts.StartStorageEngine(ctx, &wg)
		health = ts.NewHealthMonitor()
		health.Start(ctx, storageHealthInterval)
	}

	ctrl, err := restserver.NewController(ctx, &wg, a.opts.Server, a, results, health, a.logger)
	if err != nil {
		return err
	}
	if err := ctrl.StartController(); err != nil {
		return err
	}

	log.Info("application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

var _ restserver.Simulator = (*App)(nil)
