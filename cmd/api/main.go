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

	"github.com/zalar2202/logashop/api/routes"
	"github.com/zalar2202/logashop/internal/cart"
	"github.com/zalar2202/logashop/internal/checkout"
	"github.com/zalar2202/logashop/internal/coupons"
	"github.com/zalar2202/logashop/internal/digital"
	"github.com/zalar2202/logashop/internal/notifications"
	"github.com/zalar2202/logashop/internal/orders"
	"github.com/zalar2202/logashop/internal/pricing"
	"github.com/zalar2202/logashop/internal/products"
	"github.com/zalar2202/logashop/internal/shipping"
	"github.com/zalar2202/logashop/pkg/config"
	"github.com/zalar2202/logashop/pkg/db"
	"github.com/zalar2202/logashop/pkg/logger"
	"github.com/zalar2202/logashop/pkg/metrics"
	"github.com/zalar2202/logashop/pkg/migrate"
	"github.com/zalar2202/logashop/pkg/pubsub"
	"github.com/zalar2202/logashop/pkg/redis"
)

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

	// Order events are best effort; checkout keeps working when the
	// broker is unreachable, it just stops emitting events.
	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Warn(logg.WithField(context.Background(), "error", err.Error()), "pubsub unavailable, order events disabled")
		pubsubClient = nil
	} else {
		defer pubsubClient.Close()
	}

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	gormDB := dbClient.DB()
	cartRepo := cart.NewRepository(gormDB)
	productsRepo := products.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	couponsRepo := coupons.NewRepository(gormDB)
	digitalRepo := digital.NewRepository(gormDB)
	shippingRepo := shipping.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)

	zoneMatcher, err := shipping.NewMatcher(shippingRepo)
	requireService(logg, "shipping matcher", err)

	couponValidator, err := coupons.NewValidator(couponsRepo, ordersRepo, logg)
	requireService(logg, "coupon validator", err)

	pricingEngine, err := pricing.NewEngine(zoneMatcher, couponValidator, logg)
	requireService(logg, "pricing engine", err)

	resolver, err := checkout.NewResolver(productsRepo, logg)
	requireService(logg, "cart resolver", err)

	var dispatcher *notifications.Dispatcher
	if pubsubClient != nil {
		dispatcher, err = notifications.NewDispatcher(notificationsRepo, pubsubClient.OrdersPublisher(), logg)
	} else {
		dispatcher, err = notifications.NewDispatcher(notificationsRepo, nil, logg)
	}
	requireService(logg, "notification dispatcher", err)

	notificationsService, err := notifications.NewService(notificationsRepo)
	requireService(logg, "notifications service", err)

	checkoutService, err := checkout.NewService(
		dbClient,
		cartRepo,
		productsRepo,
		ordersRepo,
		couponsRepo,
		digitalRepo,
		resolver,
		pricingEngine,
		dispatcher,
		checkoutMetrics,
		logg,
		checkout.Config{LowStockThreshold: cfg.Checkout.LowStockThreshold},
	)
	requireService(logg, "checkout service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			checkoutService,
			ordersRepo,
			notificationsService,
			digitalRepo,
			registry,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to build "+name, err)
	os.Exit(1)
}
