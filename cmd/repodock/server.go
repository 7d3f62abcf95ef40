package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/repodock/internal/core/domain"
	"github.com/artpar/repodock/internal/core/ports"
	"github.com/artpar/repodock/internal/shell/api"
	"github.com/artpar/repodock/internal/shell/deploy"
	"github.com/artpar/repodock/internal/shell/git"
	"github.com/artpar/repodock/internal/shell/metrics"
	"github.com/artpar/repodock/internal/shell/queue"
	"github.com/artpar/repodock/internal/shell/runtime"
	"github.com/artpar/repodock/internal/shell/store"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitStorageError    = 3
	ExitHTTPServerError = 4
)

// =============================================================================
// Server
// =============================================================================

// Server represents the repodock application server.
type Server struct {
	config     *Config
	httpServer *http.Server
	store      store.Store
	queue      *queue.Queue
	deploys    *deploy.Service
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewServer creates a new server with the given config.
func NewServer(cfg *Config, logger *slog.Logger) (*Server, error) {
	// Connect to database
	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDatabaseError,
		}
	}

	// Ensure the clone directory exists
	if err := os.MkdirAll(cfg.Git.ReposDir, 0o755); err != nil {
		s.Close()
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitStorageError,
		}
	}

	m := metrics.New()

	// Clone queue
	qcfg := queue.DefaultConfig()
	if cfg.Clone.MaxConcurrent > 0 {
		qcfg.MaxConcurrent = cfg.Clone.MaxConcurrent
	}
	if cfg.Clone.PollInterval > 0 {
		qcfg.PollInterval = cfg.Clone.PollInterval
	}
	if cfg.Clone.CloneTimeout > 0 {
		qcfg.CloneTimeout = cfg.Clone.CloneTimeout
	}
	gitClient := git.NewClient()
	q := queue.New(gitClient, s, qcfg, func(job domain.CloneJob) {
		var duration time.Duration
		if job.CompletedAt != nil {
			duration = job.CompletedAt.Sub(job.CreatedAt)
		}
		m.CloneJobFinished(string(job.Status), duration)
	}, logger)

	// Container runtime and deployment service
	rcfg := runtime.DefaultConfig()
	if cfg.Runtime.BuildTimeout > 0 {
		rcfg.BuildTimeout = cfg.Runtime.BuildTimeout
	}
	if cfg.Runtime.UpTimeout > 0 {
		rcfg.UpTimeout = cfg.Runtime.UpTimeout
	}
	if cfg.Runtime.DownTimeout > 0 {
		rcfg.DownTimeout = cfg.Runtime.DownTimeout
	}
	executor := runtime.NewExecutor(rcfg, logger)

	allocator := ports.NewAllocator()
	deploys := deploy.NewService(s, allocator, executor, deploy.Config{
		LogTailLines: cfg.Deploy.LogTailLines,
	}, logger)

	handler := api.NewHandler(s, q, deploys, gitClient, m, logger, cfg.Git.ReposDir)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		store:      s,
		queue:      q,
		deploys:    deploys,
		metrics:    m,
		logger:     logger,
	}, nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Re-seed port reservations from persisted deployments
	if err := s.deploys.RestorePorts(ctx); err != nil {
		s.logger.Error("failed to restore port reservations", "error", err)
	}

	// Start clone queue workers
	s.queue.Start()

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		return &ServerError{
			Op:       "Start",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	// Shutdown HTTP server
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	// Stop clone queue, waits for in-flight clones
	s.queue.Stop()

	// Close database
	if err := s.store.Close(); err != nil {
		s.logger.Error("store close error", "error", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
