package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"leadline_backend/internal/devicelog"
	"leadline_backend/internal/events"
	"leadline_backend/internal/leads/repository"
	"leadline_backend/internal/leads/service"
	"leadline_backend/platform/config"
	platformdb "leadline_backend/platform/db"
	"leadline_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.AsynqQueueName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := platformdb.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	leadService := service.New(repository.New(pool), eventBus, log)

	worker, err := devicelog.NewWorker(cfg, leadService, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	if err := worker.Run(ctx); err != nil {
		log.Error("worker stopped with error", "error", err)
		panic("worker stopped with error: " + err.Error())
	}

	log.Info("worker shut down")
}
