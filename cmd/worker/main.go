package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bloomery/bloomery/internal/database"
	"github.com/bloomery/bloomery/internal/notify"
	"github.com/bloomery/bloomery/internal/tasks"
	"github.com/bloomery/bloomery/pkg/config"
	"github.com/bloomery/bloomery/pkg/queue"
	"github.com/bloomery/bloomery/pkg/util"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting bloomery worker", "env", cfg.Server.Env)

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	mailer := notify.NewResendClient(&cfg.Mail)

	// Task handlers
	handler := tasks.NewHandler(db, logger, mailer, cfg.Mail)
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Asynq server
	server := queue.NewServer(&cfg.Redis, 10)

	go func() {
		if err := server.Run(mux); err != nil {
			logger.Error("worker error", "error", err)
			os.Exit(1)
		}
	}()

	// Scheduler for the recurring decay sweep
	var scheduler *asynq.Scheduler
	if cfg.Decay.Enabled {
		scheduler = queue.NewScheduler(&cfg.Redis)
		if _, err := scheduler.Register(cfg.Decay.CronSpec, tasks.NewDecaySweepTask()); err != nil {
			logger.Error("failed to register decay sweep", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := scheduler.Run(); err != nil {
				logger.Error("scheduler error", "error", err)
				os.Exit(1)
			}
		}()
		logger.Info("decay sweep scheduled", "cron", cfg.Decay.CronSpec)
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")

	if scheduler != nil {
		scheduler.Shutdown()
	}
	server.Shutdown()

	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("worker stopped")
}
