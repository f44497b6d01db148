/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the attendance portal server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load config (file, .env, ATTEND_* env)
  2. Build the zap logger
  3. Resolve the business time zone
  4. Initialize SQLite store
  5. Start the corrected clock and its sync scheduler
  6. Create leave service, API handler and router
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config         Config file path (default: ./config/config.yaml or ./config.yaml)
  -seed-holidays  Add the fixed-date national holidays of this year on startup

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (server.shutdown_timeout)
  3. Stop the clock sync scheduler
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with defaults (attendance.db, port 8080, Asia/Taipei)
  ./server

  # Run with in-memory database and human-readable logs
  ATTEND_DB_PATH=":memory:" ATTEND_LOG_FORMAT=console ./server

  # Freeze approved requests when holidays change
  ATTEND_LEAVE_RECALC_SCOPE=pending ./server

SEE ALSO:
  - config/config.go: Settings and defaults
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
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/attendance/api"
	"github.com/warp/attendance/clock"
	"github.com/warp/attendance/config"
	"github.com/warp/attendance/leave"
	"github.com/warp/attendance/logger"
	"github.com/warp/attendance/store/sqlite"
	"github.com/warp/attendance/workcal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	configPath := flag.String("config", "", "config file path")
	seedYear := flag.Int("seed-holidays", 0, "add national holidays for this year on startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	loc, err := workcal.LoadZone(cfg.Business.Timezone)
	if err != nil {
		return err
	}
	scope, err := leave.ParseRecalcScope(cfg.Leave.RecalcScope)
	if err != nil {
		return err
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	// Corrected clock; the scheduler syncs once immediately, then hourly.
	clk := clock.NewCorrected(nil, loc)
	syncer := api.NewClockSyncScheduler(clk, cfg.Clock.SyncURL, log.Named("clock"))
	syncer.CheckInterval = cfg.Clock.SyncInterval
	syncer.Timeout = cfg.Clock.SyncTimeout
	syncer.Start()
	defer syncer.Stop()

	svc := leave.NewService(store, workcal.NewCalculator(loc),
		leave.WithClock(clk),
		leave.WithScope(scope),
		leave.WithLogger(log.Named("leave")),
	)

	if *seedYear != 0 {
		added, report, err := svc.AddHolidays(context.Background(), leave.NationalHolidays(*seedYear))
		if err != nil && !leave.IsRecalcOnly(err) {
			return fmt.Errorf("seed holidays: %w", err)
		}
		if err != nil {
			log.Warn("holidays seeded but hours not recalculated", zap.Error(err))
		}
		log.Info("national holidays seeded",
			zap.Int("year", *seedYear),
			zap.Int("added", len(added)),
			zap.Int("rebilled", report.Updated),
		)
	}

	// Create router
	handler := api.NewHandler(svc, clk, log.Named("http"))
	router := api.NewRouter(handler, cfg.Server.CORS.AllowOrigins)

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("db", cfg.Database.Path),
			zap.String("zone", loc.String()),
			zap.String("recalc_scope", string(svc.Scope())),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
