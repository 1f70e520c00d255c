package simulation

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chrissnell/pvyield/internal/weather"
)

// WorkersEnv overrides the number of plants simulated in parallel.
const WorkersEnv = "PVYIELD_WORKERS"

// WorkersFromEnv returns the worker count from WorkersEnv, or 0 when unset
// or unparseable.
func WorkersFromEnv() int {
	n, err := strconv.Atoi(os.Getenv(WorkersEnv))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Runner simulates plants in parallel over a shared weather record.
type Runner struct {
	workers int
	logger  *zap.SugaredLogger
}

// NewRunner creates a runner with at most workers plants in flight. Zero
// means runtime.NumCPU().
func NewRunner(workers int, logger *zap.SugaredLogger) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{
		workers: workers,
		logger:  logger,
	}
}

// Run simulates every plant. Results are returned in plant order. The first
// failure cancels the remaining plants and is returned.
func (r *Runner) Run(ctx context.Context, rec *weather.Record, plants []*Plant) ([]*PlantResult, error) {
	results := make([]*PlantResult, len(plants))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, p := range plants {
		i, p := i, p
		g.Go(func() error {
			start := time.Now()
			res, err := p.Simulate(ctx, rec)
			if err != nil {
				return fmt.Errorf("failed to simulate %s: %w", p.Label(), err)
			}
			r.logger.Debugf("simulated %s in %v: %.1f kWh, %.1f kWh/kWp",
				p.Label(), time.Since(start), res.EnergyYield, res.SpecificYield)
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Simulate runs every plant and aggregates the results under runID.
func (r *Runner) Simulate(ctx context.Context, runID string, rec *weather.Record, plants []*Plant) (*SystemResult, error) {
	r.logger.Infof("simulating %d plant(s) with %d worker(s)", len(plants), r.workers)

	results, err := r.Run(ctx, rec, plants)
	if err != nil {
		return nil, err
	}

	system, err := Aggregate(runID, results)
	if err != nil {
		return nil, err
	}
	system.Site = rec.Site()
	system.Weather = rec.Meta()

	r.logger.Infof("run %s: %.1f kWh from %.2f kWp (%.1f kWh/kWp)",
		runID, system.EnergyYield, system.RatedPower, system.SpecificYield)
	return system, nil
}
