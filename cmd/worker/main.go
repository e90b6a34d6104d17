package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/telbozor/api/internal/application/matching"
	"github.com/telbozor/api/internal/config"
	"github.com/telbozor/api/internal/infrastructure/dynamo"
	"github.com/telbozor/api/internal/infrastructure/sns"
	"github.com/telbozor/api/internal/pkg/logger"
	"github.com/telbozor/api/internal/tasks"
)

// The worker drains the matching queue that cmd/api fills when REDIS_ADDR is set.
func main() {
	envErr := godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.AppEnv)
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}
	if err := run(cfg); err != nil {
		slog.Error("worker stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if cfg.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required for the worker")
	}

	ctx := context.Background()
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	md := matching.ServiceDeps{
		RequestRepo:      dynamo.NewRequestRepo(dynamoClient, cfg.DynamoTables.Requests),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
	}
	if cfg.SNSTopicARN != "" {
		if pub, err := sns.NewTopicPublisher(ctx, cfg); err == nil {
			md.Publisher = pub
		} else {
			slog.Warn("SNS publisher not available", "err", err)
		}
	}

	opt := tasks.RedisOpt(cfg)
	client := asynq.NewClient(opt)
	defer client.Close()

	processor := tasks.NewTaskProcessor(matching.NewService(md), tasks.NewEnqueuer(client))
	srv, mux := tasks.SetupServer(opt, cfg.WorkerConcurrency, processor)

	slog.Info("worker starting", "concurrency", cfg.WorkerConcurrency, "redis", cfg.RedisAddr)
	// Run blocks until SIGTERM/SIGINT and then drains in-flight tasks.
	return srv.Run(mux)
}
