// Package storage defines interfaces and helpers for simulation result storage backends.
package storage

import (
	"context"
	"sync"

	"github.com/chrissnell/pvyield/internal/simulation"
)

// StorageEngineInterface is an interface that provides a few standardized
// methods for various storage backends
type StorageEngineInterface interface {
	// StoreResult persists a finished run synchronously.
	StoreResult(ctx context.Context, r *simulation.SystemResult) error
	// StartStorageEngine stores results sent on the returned channel until
	// ctx is cancelled.
	StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- *simulation.SystemResult
}
