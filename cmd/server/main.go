package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/portfolio-planner/internal/config"
	"github.com/aristath/portfolio-planner/internal/database"
	"github.com/aristath/portfolio-planner/internal/modules/allocation"
	"github.com/aristath/portfolio-planner/internal/modules/portfolio"
	"github.com/aristath/portfolio-planner/internal/modules/rebalancing"
	"github.com/aristath/portfolio-planner/internal/scheduler"
	"github.com/aristath/portfolio-planner/internal/server"
	"github.com/aristath/portfolio-planner/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info", Pretty: true})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Portfolio Planner")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Repositories
	portfolioRepo := portfolio.NewRepository(db.Conn(), log)
	rulesRepo := portfolio.NewRulesRepository(db.Conn(), log)
	simRepo := portfolio.NewSimulationRepository(db.Conn(), log)
	snapshotRepo := portfolio.NewSnapshotRepository(db.Conn(), log)

	// Services
	portfolioSvc := portfolio.NewService(portfolioRepo, snapshotRepo, log)
	allocationSvc := allocation.NewService(portfolioSvc, portfolioSvc, rulesRepo, log)
	rebalancingSvc := rebalancing.NewService(portfolioSvc, rulesRepo, simRepo, log)

	// Scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	if err := registerJobs(sched, db, portfolioSvc, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}

	// HTTP server
	srv := server.New(server.Config{
		Port:        cfg.Port,
		DevMode:     cfg.DevMode,
		Log:         log,
		DB:          db,
		Allocation:  allocation.NewHandler(allocationSvc, log),
		Rebalancing: rebalancing.NewHandler(rebalancingSvc, log),
		Portfolio:   portfolio.NewHandler(portfolioSvc, rulesRepo, log),
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
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

func registerJobs(sched *scheduler.Scheduler, db *database.DB, portfolios *portfolio.Service, cfg *config.Config, log zerolog.Logger) error {
	if cfg.SnapshotEnabled {
		if err := sched.AddJob(cfg.SnapshotCron, scheduler.NewSnapshotJob(portfolios, log)); err != nil {
			return err
		}
	}

	// Integrity check every 6 hours
	return sched.AddJob("0 0 */6 * * *", scheduler.NewHealthCheckJob(db, log))
}
