package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/freightdesk-backend/api/controllers"
	"github.com/angelmondragon/freightdesk-backend/api/middleware"
	"github.com/angelmondragon/freightdesk-backend/internal/checkout"
	"github.com/angelmondragon/freightdesk-backend/internal/media"
	"github.com/angelmondragon/freightdesk-backend/internal/payments"
	"github.com/angelmondragon/freightdesk-backend/internal/profiles"
	"github.com/angelmondragon/freightdesk-backend/internal/quotations"
	"github.com/angelmondragon/freightdesk-backend/internal/selections"
	"github.com/angelmondragon/freightdesk-backend/internal/shipments"
	"github.com/angelmondragon/freightdesk-backend/pkg/config"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
	"github.com/angelmondragon/freightdesk-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/freightdesk-backend/pkg/redis"
)

// Cache is the Redis surface the HTTP layer needs: idempotency records,
// rate limit counters and the readiness ping.
type Cache interface {
	pkgredis.IdempotencyStore
	middleware.RateLimiterStore
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	cache Cache,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	quotationService *quotations.Service,
	selectionService *selections.Service,
	checkoutService *checkout.Service,
	paymentService *payments.Service,
	shipmentService *shipments.Service,
	profileService *profiles.Service,
	mediaService *media.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	// nil interfaces keep the Redis-backed middleware disabled
	var idemStore pkgredis.IdempotencyStore
	var limiter middleware.RateLimiterStore
	readiness := map[string]controllers.Pinger{"db": dbP}
	if cache != nil {
		idemStore = cache
		limiter = cache
		readiness["redis"] = cache
	}
	uploadLimit := middleware.RateLimit(
		middleware.UploadRateLimitPolicy(cfg.FeatureFlags.RateLimitUploadsPerMin),
		limiter,
		logg,
	)
	maxUpload := cfg.Media.MaxUploadBytes()

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1", func(r chi.Router) {
			r.Get("/profile", controllers.ProfileGet(profileService, logg))

			r.Route("/quotations", func(r chi.Router) {
				r.Get("/", controllers.QuotationList(quotationService, logg))
				r.Post("/", controllers.QuotationCreate(quotationService, logg))
				r.Get("/{ref}", controllers.QuotationGet(quotationService, logg))
				r.Patch("/{ref}/images", controllers.QuotationUpdateImages(quotationService, logg))
				r.With(uploadLimit).Post("/{ref}/images", controllers.QuotationUploadImage(quotationService, mediaService, maxUpload, logg))
				r.Put("/{ref}/selection", controllers.SelectionUpdate(selectionService, quotationService.Presenter(), logg))
				r.Get("/{ref}/payments", controllers.QuotationPayments(paymentService, logg))
			})

			r.Post("/checkout", controllers.Checkout(checkoutService, logg))

			r.Route("/payments", func(r chi.Router) {
				r.Get("/", controllers.PaymentList(paymentService, logg))
				r.Get("/{paymentId}", controllers.PaymentGet(paymentService, logg))
				r.With(uploadLimit).Post("/{paymentId}/proof", controllers.PaymentUploadProof(paymentService, maxUpload, logg))
			})

			r.Route("/shipments", func(r chi.Router) {
				r.Get("/", controllers.ShipmentList(shipmentService, logg))
				r.Get("/receivers/default", controllers.ShipmentDefaultReceiver(shipmentService, logg))
				r.Get("/{shipmentId}", controllers.ShipmentGet(shipmentService, logg))
				r.Post("/{shipmentId}/receiver", controllers.ShipmentSubmitReceiver(shipmentService, logg))
			})
		})
	})

	return r
}
