package storage

import (
	"context"
	"sync"
	"time"

	"github.com/chrissnell/pvyield/internal/log"
	"github.com/chrissnell/pvyield/internal/simulation"
)

// HealthChecker defines the interface for storage backends to implement health checks
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// Health is the outcome of the latest health check of a backend
type Health struct {
	LastCheck time.Time `json:"last_check"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// HealthMonitor keeps the latest health of one storage backend.
type HealthMonitor struct {
	name    string
	checker HealthChecker

	mu     sync.RWMutex
	health Health
}

// NewHealthMonitor creates a monitor for checker. Status is "unknown" until
// the first check has run.
func NewHealthMonitor(name string, checker HealthChecker) *HealthMonitor {
	return &HealthMonitor{
		name:    name,
		checker: checker,
		health:  Health{Status: "unknown"},
	}
}

// Check runs one health check and records its outcome.
func (m *HealthMonitor) Check(ctx context.Context) Health {
	h := CreateHealthData("healthy", m.name+" operational", m.checker.CheckHealth(ctx))

	m.mu.Lock()
	m.health = h
	m.mu.Unlock()
	return h
}

// Health returns the latest recorded health.
func (m *HealthMonitor) Health() Health {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.health
}

// Start checks health immediately and then every interval until ctx is
// cancelled.
func (m *HealthMonitor) Start(ctx context.Context, interval time.Duration) {
	go func() {
		update := func() {
			h := m.Check(ctx)
			log.Debugf("updated %s health status: %s", m.name, h.Status)
		}

		update()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				update()
			case <-ctx.Done():
				log.Infof("stopping %s health monitor", m.name)
				return
			}
		}
	}()
}

// ProcessResults provides a standard pattern for processing results from a channel
func ProcessResults(ctx context.Context, wg *sync.WaitGroup, resultChan <-chan *simulation.SystemResult, processor func(context.Context, *simulation.SystemResult) error, name string) {
	defer wg.Done()

	for {
		select {
		case r := <-resultChan:
			if err := processor(ctx, r); err != nil {
				log.Errorf("%s result processor error: %v", name, err)
			}
		case <-ctx.Done():
			log.Infof("cancellation request received. Cancelling %s result processor", name)
			return
		}
	}
}

// CreateHealthData creates a health record. A non-nil err marks the backend
// unhealthy.
func CreateHealthData(status, message string, err error) Health {
	health := Health{
		LastCheck: time.Now(),
		Status:    status,
		Message:   message,
	}

	if err != nil {
		health.Status = "unhealthy"
		health.Message = "health check failed"
		health.Error = err.Error()
	}

	return health
}
