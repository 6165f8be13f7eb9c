package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/freightdesk-backend/internal/cron"
	"github.com/angelmondragon/freightdesk-backend/internal/media"
	"github.com/angelmondragon/freightdesk-backend/pkg/config"
	"github.com/angelmondragon/freightdesk-backend/pkg/db"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
	"github.com/angelmondragon/freightdesk-backend/pkg/metrics"
	"github.com/angelmondragon/freightdesk-backend/pkg/migrate"
	"github.com/angelmondragon/freightdesk-backend/pkg/outbox"
	"github.com/angelmondragon/freightdesk-backend/pkg/redis"
	"github.com/angelmondragon/freightdesk-backend/pkg/storage/gcs"
)

const lockKeyFormat = "fd:cron-worker:lock:%s"

func main() {
	once := flag.Bool("once", false, "run every job a single time and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs", err)
		}
	}()

	jobMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	workflowMetrics := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	mediaRepo := media.NewRepository(dbClient.DB())
	mediaService, err := media.NewService(mediaRepo, gcsClient, gcsClient.DefaultBucket(), cfg.Media.MaxUploadBytes(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	orphanJob, err := cron.NewOrphanCleanupJob(cron.OrphanCleanupJobParams{
		Logger:    logg,
		Media:     mediaRepo,
		Discarder: mediaService,
		Metrics:   workflowMetrics,
		Retention: cfg.Cron.OrphanRetention(),
		BatchSize: cfg.Cron.OrphanBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orphan cleanup job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(logg, outbox.NewRepository(dbClient.DB()), cfg.Cron.OutboxRetentionDays)
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(orphanJob, retentionJob),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	if *once {
		logg.Info(ctx, "running cron jobs once")
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron run finished with errors", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
