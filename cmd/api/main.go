package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/freightdesk-backend/api/routes"
	"github.com/angelmondragon/freightdesk-backend/internal/checkout"
	"github.com/angelmondragon/freightdesk-backend/internal/media"
	"github.com/angelmondragon/freightdesk-backend/internal/payments"
	"github.com/angelmondragon/freightdesk-backend/internal/profiles"
	"github.com/angelmondragon/freightdesk-backend/internal/quotations"
	"github.com/angelmondragon/freightdesk-backend/internal/selections"
	"github.com/angelmondragon/freightdesk-backend/internal/shipments"
	"github.com/angelmondragon/freightdesk-backend/pkg/config"
	"github.com/angelmondragon/freightdesk-backend/pkg/db"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
	"github.com/angelmondragon/freightdesk-backend/pkg/metrics"
	"github.com/angelmondragon/freightdesk-backend/pkg/migrate"
	"github.com/angelmondragon/freightdesk-backend/pkg/outbox"
	"github.com/angelmondragon/freightdesk-backend/pkg/redis"
	"github.com/angelmondragon/freightdesk-backend/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	workflowMetrics := metrics.NewWorkflowMetrics(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	gormDB := dbClient.DB()
	images := media.ImageResolver{
		BasePath:    cfg.Media.StorageBasePath,
		HostHint:    cfg.Media.StorageHostHint,
		Placeholder: cfg.Media.PlaceholderImage,
	}
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)
	mediaRepo := media.NewRepository(gormDB)
	quotationsRepo := quotations.NewRepository(gormDB)
	paymentsRepo := payments.NewRepository(gormDB)

	mediaService, err := media.NewService(mediaRepo, gcsClient, gcsClient.DefaultBucket(), cfg.Media.MaxUploadBytes(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	quotationService, err := quotations.NewService(quotations.ServiceParams{
		DB:        dbClient,
		Repo:      quotationsRepo,
		Outbox:    outboxService,
		Presenter: quotations.Presenter{Images: images},
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create quotation service", err)
		os.Exit(1)
	}

	selectionService, err := selections.NewService(dbClient, selections.NewRepository(gormDB), quotationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create selection service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		DB:         dbClient,
		Repo:       paymentsRepo,
		Quotations: quotationsRepo,
		Media:      mediaService,
		MediaRepo:  mediaRepo,
		Outbox:     outboxService,
		Metrics:    workflowMetrics,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		DB:                  dbClient,
		Payments:            paymentsRepo,
		Quotations:          quotationsRepo,
		Selections:          selectionService,
		Outbox:              outboxService,
		Metrics:             workflowMetrics,
		Logger:              logg,
		RequireDuplicateAck: cfg.FeatureFlags.RequireDuplicateAck,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	shipmentService, err := shipments.NewService(shipments.ServiceParams{
		DB:         dbClient,
		Repo:       shipments.NewRepository(gormDB),
		Quotations: quotationsRepo,
		Outbox:     outboxService,
		Images:     images,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create shipment service", err)
		os.Exit(1)
	}

	profileService, err := profiles.NewService(profiles.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create profile service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			reg,
			httpMetrics,
			quotationService,
			selectionService,
			checkoutService,
			paymentService,
			shipmentService,
			profileService,
			mediaService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
