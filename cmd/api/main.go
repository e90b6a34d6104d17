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

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/telbozor/api/internal/application/matching"
	"github.com/telbozor/api/internal/config"
	"github.com/telbozor/api/internal/infrastructure/dynamo"
	jwtinfra "github.com/telbozor/api/internal/infrastructure/jwt"
	redisinfra "github.com/telbozor/api/internal/infrastructure/redis"
	s3infra "github.com/telbozor/api/internal/infrastructure/s3"
	"github.com/telbozor/api/internal/infrastructure/sns"
	"github.com/telbozor/api/internal/pkg/logger"
	"github.com/telbozor/api/internal/realtime"
	"github.com/telbozor/api/internal/tasks"
	transporthttp "github.com/telbozor/api/internal/transport/http"
	"golang.org/x/sync/errgroup"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.AppEnv)
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	if err := run(cfg); err != nil {
		slog.Error("api stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	s3Client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		return err
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	deps := &transporthttp.Deps{
		ListingRepo:      dynamo.NewListingRepo(dynamoClient, cfg.DynamoTables.Listings),
		ImageRepo:        dynamo.NewListingImageRepo(dynamoClient, cfg.DynamoTables.ListingImages),
		BrandRepo:        dynamo.NewBrandRepo(dynamoClient, cfg.DynamoTables.Brands),
		RequestRepo:      dynamo.NewRequestRepo(dynamoClient, cfg.DynamoTables.Requests),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		MessageRepo:      dynamo.NewMessageRepo(dynamoClient, cfg.DynamoTables.Messages),
		ProfileRepo:      dynamo.NewProfileRepo(dynamoClient, cfg.DynamoTables.Profiles),
		LikeRepo:         dynamo.NewLikeRepo(dynamoClient, cfg.DynamoTables.Likes),
		Images:           s3infra.NewImageStore(s3Client, cfg.S3BucketName, cfg.ImageURLTTL),
		CacheTTL:         cfg.LookupCacheTTL,
		Hub:              realtime.NewHub(cfg.RealtimeDebounce, cfg.AllowedOrigins),
	}

	// Redis is optional. Without it there is no lookup cache and matching runs in-process.
	var inline *tasks.InlineDispatcher
	if cfg.RedisAddr != "" {
		rdb, err := redisinfra.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		deps.Cache = redisinfra.NewCache(rdb, "telbozor")

		taskClient := asynq.NewClient(tasks.RedisOpt(cfg))
		defer taskClient.Close()
		deps.MatchDispatcher = tasks.NewEnqueuer(taskClient)
	} else {
		slog.Warn("REDIS_ADDR not set: caching disabled, matching runs in-process")
		inline = tasks.NewInlineDispatcher(newMatchingService(ctx, cfg, deps))
		deps.MatchDispatcher = inline
	}

	router, stopRouter := transporthttp.NewRouter(cfg, transporthttp.NewServices(deps), jwtProvider, deps.Hub)
	defer stopRouter()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if inline != nil {
		inline.Wait()
	}
	slog.Info("server stopped")
	return err
}

func newMatchingService(ctx context.Context, cfg *config.Config, deps *transporthttp.Deps) matching.Service {
	md := matching.ServiceDeps{
		RequestRepo:      deps.RequestRepo,
		NotificationRepo: deps.NotificationRepo,
	}
	if pub := newPushPublisher(ctx, cfg); pub != nil {
		md.Publisher = pub
	}
	return matching.NewService(md)
}

// newPushPublisher returns nil when push fan-out is not configured.
func newPushPublisher(ctx context.Context, cfg *config.Config) *sns.TopicPublisher {
	if cfg.SNSTopicARN == "" {
		return nil
	}
	pub, err := sns.NewTopicPublisher(ctx, cfg)
	if err != nil {
		slog.Warn("SNS publisher not available", "err", err)
		return nil
	}
	return pub
}
