package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"claimgate/internal/catalog"
	"claimgate/internal/config"
	"claimgate/internal/handlers"
	"claimgate/internal/repository"
	"claimgate/internal/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Setup Logger
	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 3. Load Catalog
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Info("Catalog loaded", "options", len(cat.List()))

	// 4. Initialize Database
	db, err := repository.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// 5. Schema
	if repository.IsSQLite(cfg.DatabaseURL) {
		if err := repository.AutoMigrate(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	} else {
		logger.Info("Running database migrations...")
		if err := repository.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	// 6. Initialize Redis
	rdb, err := repository.InitRedis(cfg.RedisURL, cfg.RedisPassword, 0)
	if err != nil {
		logger.Warn("Failed to connect to Redis, using in-process window cache", "error", err)
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// 7. Initialize Services
	auditService := services.NewAuditService(db, logger)
	geoIPService := services.NewGeoIPService(cfg.GeoIPDBPath, logger)
	statsService := services.NewStatsService(db, logger, geoIPService)
	claimRepo := repository.NewAddressClaimRepository(db)
	claimService := services.NewClaimService(
		claimRepo,
		cat,
		services.NewWindowCache(rdb),
		auditService,
		statsService,
		services.ClaimServiceConfig{Window: cfg.ClaimWindow},
		logger,
	)
	compactionWorker := services.NewCompactionWorker(claimRepo, claimService.Window(), cfg.CompactionInterval, logger)
	rateLimiter := services.NewIPRateLimiter(rate.Limit(cfg.RequestRate), cfg.RequestBurst, logger)

	// 8. Initialize Handler
	h := handlers.NewHandler(cfg, logger, cat, claimService)

	// 9. Setup Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := h.SetupRouter(rateLimiter)

	// 10. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	geoIPService.Init()
	defer geoIPService.Close()

	workers, workerCtx := errgroup.WithContext(workerCtx)
	workers.Go(func() error { auditService.Start(workerCtx); return nil })
	workers.Go(func() error { statsService.Start(workerCtx); return nil })
	workers.Go(func() error { compactionWorker.Start(workerCtx); return nil })
	rateLimiter.StartCleanup(10 * time.Minute)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "window", claimService.Window())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	workerCancel()
	if err := workers.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
	}

	logger.Info("Server exiting")
	return runErr
}
