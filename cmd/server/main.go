// Package main is the entry point for the MultiAsset OFX price service.
// It resolves Japanese and US security codes to dated closing prices and
// serves them as OFX investment statements.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fujitaka/MultiAssetOFX/internal/clientdata"
	"github.com/fujitaka/MultiAssetOFX/internal/clients/toushin"
	"github.com/fujitaka/MultiAssetOFX/internal/clients/yahoo"
	"github.com/fujitaka/MultiAssetOFX/internal/config"
	"github.com/fujitaka/MultiAssetOFX/internal/database"
	"github.com/fujitaka/MultiAssetOFX/internal/events"
	"github.com/fujitaka/MultiAssetOFX/internal/modules/export"
	"github.com/fujitaka/MultiAssetOFX/internal/modules/pricing"
	"github.com/fujitaka/MultiAssetOFX/internal/modules/securities"
	"github.com/fujitaka/MultiAssetOFX/internal/scheduler"
	"github.com/fujitaka/MultiAssetOFX/internal/server"
	"github.com/fujitaka/MultiAssetOFX/pkg/logger"
)

// cacheCleanupSchedule sweeps expired metadata daily at 03:00, outside
// both JP and US trading hours.
const cacheCleanupSchedule = "0 0 3 * * *"

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().Msg("Starting MultiAsset OFX")

	// Metadata cache database. Prices are never stored here, only
	// slow-moving names and fund association codes.
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Wire the resolution pipeline
	cache := clientdata.NewRepository(db.Conn())
	eventManager := events.NewManager(log)

	yahooClient := yahoo.NewClient(cache, log)
	toushinClient := toushin.NewClient(cache, log)

	equity := pricing.NewEquityAdapter(yahooClient, log)
	fund := pricing.NewFundAdapter(toushinClient, log)
	resolver := pricing.NewResolver(equity, fund, pricing.Config{
		MaxAttempts: cfg.MaxRetries,
		RetryDelay:  time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, log)

	classifier := securities.NewClassifier(cfg.EnableCryptoCodes)
	batch := pricing.NewBatchService(resolver, classifier, eventManager, cfg.ResolveWorkers, log)

	// Background cache maintenance, with one sweep at startup
	sched := scheduler.New(log)
	cleanup := clientdata.NewCleanupJob(cache, eventManager, log)
	if err := sched.AddJob(cacheCleanupSchedule, cleanup); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
	}
	sched.Start()
	defer sched.Stop()

	if err := sched.RunNow(cleanup); err != nil {
		log.Warn().Err(err).Msg("Startup cache sweep failed")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		Batch:     batch,
		Generator: export.NewGenerator(log),
		Events:    eventManager,
		AccountID: cfg.OFXAccountID,
		DevMode:   cfg.DevMode,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
