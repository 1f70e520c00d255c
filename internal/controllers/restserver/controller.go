package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chrissnell/pvyield/internal/simulation"
	"github.com/chrissnell/pvyield/internal/storage"
	"github.com/chrissnell/pvyield/pkg/config"
)

// Simulator runs one simulation for a validated input document.
type Simulator interface {
	Simulate(ctx context.Context, in *config.InputData) (*simulation.SystemResult, error)
}

// Options configure the REST server
type Options struct {
	ListenAddr string
	Port       int
	Cert       string
	Key        string
	// DataDir is the directory relative weather and device file names in
	// posted documents are resolved against.
	DataDir string
	// MaxRuns bounds the number of results kept in memory.
	MaxRuns int
}

// Controller represents the REST server controller
type Controller struct {
	ctx       context.Context
	wg        *sync.WaitGroup
	opts      Options
	Server    http.Server
	simulator Simulator
	runs      *RunStore
	results   chan<- *simulation.SystemResult
	health    *storage.HealthMonitor
	logger    *zap.SugaredLogger
	handlers  *Handlers
}

// NewController creates a new REST server controller. results and health
// may be nil when no storage backend is configured.
func NewController(ctx context.Context, wg *sync.WaitGroup, opts Options, sim Simulator, results chan<- *simulation.SystemResult, health *storage.HealthMonitor, logger *zap.SugaredLogger) (*Controller, error) {
	if sim == nil {
		return nil, fmt.Errorf("REST server needs a simulator")
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if opts.ListenAddr == "" {
		logger.Info("listen address not provided; defaulting to 0.0.0.0 (all interfaces)")
		opts.ListenAddr = "0.0.0.0"
	}

	// Set default HTTP port if not specified
	if opts.Port == 0 {
		logger.Info("port not provided; defaulting to 8080")
		opts.Port = 8080
	}

	ctrl := &Controller{
		ctx:       ctx,
		wg:        wg,
		opts:      opts,
		simulator: sim,
		runs:      NewRunStore(opts.MaxRuns),
		results:   results,
		health:    health,
		logger:    logger,
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", opts.ListenAddr, opts.Port)
	ctrl.Server.Handler = ctrl.Handler()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infof("starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.opts.Cert != "" && c.opts.Key != "" {
			if err := c.Server.ListenAndServeTLS(c.opts.Cert, c.opts.Key); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// Handler returns the routed handler wrapped in access logging and panic
// recovery.
func (c *Controller) Handler() http.Handler {
	stdLog := zap.NewStdLog(c.logger.Desugar())
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(stdLog))
	return handlers.CombinedLoggingHandler(stdLog.Writer(), recovery(c.setupRouter()))
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", c.handlers.GetHealth).Methods(http.MethodGet)
	api.HandleFunc("/simulations", c.handlers.CreateSimulation).Methods(http.MethodPost)
	api.HandleFunc("/simulations", c.handlers.ListSimulations).Methods(http.MethodGet)
	api.HandleFunc("/simulations/{id}", c.handlers.GetSimulation).Methods(http.MethodGet)
	api.HandleFunc("/simulations/{id}", c.handlers.DeleteSimulation).Methods(http.MethodDelete)
	api.HandleFunc("/simulations/{id}/summary", c.handlers.GetSimulationSummary).Methods(http.MethodGet)
	api.HandleFunc("/simulations/{id}/plants/{index:[0-9]+}", c.handlers.GetPlant).Methods(http.MethodGet)

	return router
}
