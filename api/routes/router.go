package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zalar2202/logashop/api/controllers"
	"github.com/zalar2202/logashop/api/middleware"
	checkoutsvc "github.com/zalar2202/logashop/internal/checkout"
	"github.com/zalar2202/logashop/internal/digital"
	"github.com/zalar2202/logashop/internal/notifications"
	"github.com/zalar2202/logashop/internal/orders"
	"github.com/zalar2202/logashop/pkg/config"
	"github.com/zalar2202/logashop/pkg/db"
	"github.com/zalar2202/logashop/pkg/logger"
	"github.com/zalar2202/logashop/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	checkoutService *checkoutsvc.Service,
	ordersRepo *orders.Repository,
	notificationsService *notifications.Service,
	digitalRepo *digital.Repository,
	metricsRegistry *prometheus.Registry,
) http.Handler {
	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		idempotencyStore = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessDeps(dbP, redisClient)))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Buyer-or-guest surface. Identity is optional; guests carry a
		// session id header instead.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(idempotencyStore, cfg.Checkout.IdempotencyTTL, logg))

			r.Post("/checkout", controllers.Checkout(checkoutService, logg))
			r.Get("/orders/{orderId}", controllers.GetOrder(ordersRepo, logg))
		})

		// Fully public: the token or code is the credential.
		r.Get("/orders/track/{trackingCode}", controllers.TrackOrder(ordersRepo, logg))
		r.Get("/downloads/{token}", controllers.RedeemDownload(digitalRepo, logg))

		// Authenticated-only surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(idempotencyStore, cfg.Checkout.IdempotencyTTL, logg))

			r.Get("/orders", controllers.ListOrders(ordersRepo, logg))
			r.Get("/notifications", controllers.ListNotifications(notificationsService, logg))
			r.Post("/notifications/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
		})
	})

	return r
}

func readinessDeps(dbP db.Pinger, redisClient *redis.Client) map[string]controllers.Pinger {
	deps := map[string]controllers.Pinger{}
	if dbP != nil {
		deps["database"] = dbP
	}
	if redisClient != nil {
		deps["redis"] = redisClient
	}
	return deps
}
