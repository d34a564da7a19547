// Package app wires the watchbill service together: configuration,
// database/redis connections, migrations, the HTTP server, and the
// domain handlers mounted on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/traskcs99/watchbill/internal/config"
	"github.com/traskcs99/watchbill/internal/httpserver"
	"github.com/traskcs99/watchbill/internal/platform"
	"github.com/traskcs99/watchbill/internal/seed"
	"github.com/traskcs99/watchbill/internal/telemetry"
	"github.com/traskcs99/watchbill/pkg/personnel"
	"github.com/traskcs99/watchbill/pkg/station"
	"github.com/traskcs99/watchbill/pkg/watchbill"
)

// Run starts the application in the mode selected by cfg.Mode.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer rdb.Close()

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	switch cfg.Mode {
	case "api":
		return runAPI(ctx, cfg, logger, db, rdb)
	case "worker":
		return runWorker(ctx, logger)
	case "seed":
		return seed.Run(ctx, db, logger)
	case "seed-demo":
		return seed.RunDemo(ctx, db, logger)
	default:
		return fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

func runAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client) error {
	metricsReg := telemetry.NewMetricsRegistry()

	srv := httpserver.NewServer(cfg, logger, db, rdb, metricsReg)

	personnelStore := personnel.NewStore(db)
	personnelHandler := personnel.NewHandler(personnelStore, logger)
	srv.APIRouter.Mount("/people", personnelHandler.Routes())
	srv.APIRouter.Mount("/groups", personnelHandler.GroupRoutes())
	srv.APIRouter.Mount("/qualifications", personnelHandler.QualificationRoutes())

	stationStore := station.NewStore(db)
	stationHandler := station.NewHandler(stationStore, logger)
	srv.APIRouter.Mount("/stations", stationHandler.Routes())

	generatorCfg := watchbill.GenerateConfig{
		BaseTimeLimitSeconds: cfg.SolverBaseTimeLimitSeconds,
		TimeLimitStepSeconds: cfg.SolverTimeLimitStepSeconds,
		BaseRelGap:           cfg.SolverBaseRelGap,
		RelGapStep:           cfg.SolverRelGapStep,
	}
	watchbillSvc := watchbill.NewService(db, personnelStore, stationStore, watchbill.USFederalFeed{}, generatorCfg, logger, rdb)
	watchbillHandler := watchbill.NewHandler(watchbillSvc, logger)
	srv.APIRouter.Mount("/schedules", watchbillHandler.Routes())

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// runWorker blocks until cancellation. The watchbill domain has no
// background job of its own: candidate generation runs inline within an
// API request (streamed as it solves) rather than on a queue, so there is
// nothing for a worker process to poll. The mode is kept so deployments
// that expect a separate worker process (e.g. for future queue-backed
// generation) have somewhere to point it.
func runWorker(ctx context.Context, logger *slog.Logger) error {
	logger.Info("worker mode has no background jobs in this domain; idling until shutdown")
	<-ctx.Done()
	return nil
}
