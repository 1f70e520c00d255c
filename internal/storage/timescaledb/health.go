package timescaledb

import (
	"context"
	"sync"

	"github.com/chrissnell/pvyield/internal/simulation"
	"github.com/chrissnell/pvyield/internal/storage"
)

func storageProcessResults(ctx context.Context, wg *sync.WaitGroup, results <-chan *simulation.SystemResult, store func(context.Context, *simulation.SystemResult) error) {
	storage.ProcessResults(ctx, wg, results, store, "TimescaleDB")
}

// NewHealthMonitor returns a health monitor for t.
func (t *Storage) NewHealthMonitor() *storage.HealthMonitor {
	return storage.NewHealthMonitor("TimescaleDB", t)
}

var _ storage.StorageEngineInterface = (*Storage)(nil)
