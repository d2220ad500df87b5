package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ventlogic/ventlogic-core/internal/capability"
	"github.com/ventlogic/ventlogic-core/internal/engine"
	"github.com/ventlogic/ventlogic-core/internal/infrastructure/config"
	"github.com/ventlogic/ventlogic-core/internal/infrastructure/logging"
	"github.com/ventlogic/ventlogic-core/internal/matrix"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config       config.APIConfig
	Logger       *logging.Logger
	Reconciler   *engine.Reconciler
	Store        *matrix.Store
	Registry     *capability.Registry
	Discovery    engine.Discovery
	SummaryLimit int // resource ids listed verbatim before truncation
	Version      string
}

// Server is the HTTP API server for VentLogic Core.
type Server struct {
	cfg          config.APIConfig
	logger       *logging.Logger
	reconciler   *engine.Reconciler
	store        *matrix.Store
	registry     *capability.Registry
	discovery    engine.Discovery
	summaryLimit int
	version      string
	server       *http.Server
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Reconciler == nil {
		return nil, fmt.Errorf("reconciler is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("matrix store is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("capability registry is required")
	}
	if deps.Discovery == nil {
		return nil, fmt.Errorf("discovery is required")
	}

	return &Server{
		cfg:          deps.Config,
		logger:       deps.Logger,
		reconciler:   deps.Reconciler,
		store:        deps.Store,
		registry:     deps.Registry,
		discovery:    deps.Discovery,
		summaryLimit: deps.SummaryLimit,
		version:      deps.Version,
	}, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds
// for in-flight requests to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
