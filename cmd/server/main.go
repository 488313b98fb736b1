/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll and leave accounting server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load configuration
  2. Build the logger
  3. Initialize SQLite store
  4. Build the leave policy and payroll service
  5. Configure HTTP router and start the snapshot scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file (optional)

ENVIRONMENT:
  Every config key can be overridden with a PAYROLL_ variable, e.g.
  PAYROLL_SERVER_PORT=3000 or PAYROLL_DATABASE_PATH=":memory:".

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (server.shutdown_timeout)
  4. Close database connection

EXAMPLES:
  # Run with a config file
  ./server -config=config.yaml

  # Run with in-memory database
  PAYROLL_DATABASE_PATH=":memory:" ./server

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/warp/payroll-leave/api"
	"github.com/warp/payroll-leave/config"
	"github.com/warp/payroll-leave/leave"
	"github.com/warp/payroll-leave/logging"
	"github.com/warp/payroll-leave/payroll"
	"github.com/warp/payroll-leave/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer store.Close()

	policy, err := cfg.Leave.Policy()
	if err != nil {
		return err
	}
	accountant, err := leave.NewAccountant(policy)
	if err != nil {
		return err
	}
	logger.Info("leave policy loaded",
		zap.String("name", policy.Name),
		zap.Stringer("max_paid_days_per_month", policy.MaxPaidDaysPerMonth))

	svc := payroll.NewService(store, accountant, logger)

	handler := api.NewHandler(svc, logger)
	handler.DB = store
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	scheduler := api.NewSnapshotScheduler(svc, logger)
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.Interval = cfg.Scheduler.Interval
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("database", cfg.Database.Path))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.Stringer("signal", sig))
	}

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
