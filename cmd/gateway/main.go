package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/seifpharma/storefront-gateway/api/routes"
	authsvc "github.com/seifpharma/storefront-gateway/internal/auth"
	cartsvc "github.com/seifpharma/storefront-gateway/internal/cart"
	catalogsvc "github.com/seifpharma/storefront-gateway/internal/catalog"
	checkoutsvc "github.com/seifpharma/storefront-gateway/internal/checkout"
	placessvc "github.com/seifpharma/storefront-gateway/internal/places"
	promosvc "github.com/seifpharma/storefront-gateway/internal/promo"
	"github.com/seifpharma/storefront-gateway/pkg/config"
	"github.com/seifpharma/storefront-gateway/pkg/localstore"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
	"github.com/seifpharma/storefront-gateway/pkg/metrics"
	"github.com/seifpharma/storefront-gateway/pkg/redis"
	"github.com/seifpharma/storefront-gateway/pkg/upstream"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "gateway",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	store, err := localstore.Open(context.Background(), cfg.LocalStore, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open local store", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	upstreamMetrics := metrics.NewUpstreamMetrics(registry)

	upstreamClient, err := upstream.New(cfg.Upstream,
		upstream.WithMetrics(upstreamMetrics),
		upstream.WithLogger(logg),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to build upstream client", err)
		os.Exit(1)
	}

	catalogService, err := catalogsvc.NewService(upstreamClient, cfg.Cart.DefaultMaxOrderQty, cfg.Cart.RelatedLimit)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	sessionStore, err := checkoutsvc.NewSessionStore(redisClient, cfg.Session.CheckoutTTL())
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout session store", err)
		os.Exit(1)
	}

	promoService, err := promosvc.NewService(upstreamClient, redisClient, sessionStore, logg, cfg.Session.PromoTTL())
	if err != nil {
		logg.Error(context.Background(), "failed to create promo service", err)
		os.Exit(1)
	}

	localBackend, err := cartsvc.NewLocalBackend(store)
	if err != nil {
		logg.Error(context.Background(), "failed to create guest cart backend", err)
		os.Exit(1)
	}

	remoteBackend, err := cartsvc.NewRemoteBackend(upstreamClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create account cart backend", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(
		localBackend,
		remoteBackend,
		catalogService,
		redisClient,
		promoService,
		logg,
		cfg.Cart.DefaultMaxOrderQty,
		cfg.Cart.SequenceTTL,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	placesService, err := placessvc.NewService(upstreamClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create places service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		sessionStore,
		cartService,
		placesService,
		promoService,
		upstreamClient,
		redisClient,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(upstreamClient, store, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctx := logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting storefront gateway")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisClient,
			store,
			registry,
			cartService,
			promoService,
			checkoutService,
			authService,
			placesService,
		),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "gateway server stopped unexpectedly", err)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	if err := multierr.Combine(redisClient.Close(), store.Close()); err != nil {
		logg.Error(ctx, "error closing state backends", err)
		os.Exit(1)
	}
}
