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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/coupons"
	"github.com/angelmondragon/storefront/internal/notifications"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/internal/profile"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/pubsub"
	"github.com/angelmondragon/storefront/pkg/redis"
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

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(runCtx, cfg.DB, logg)
	requireResource(runCtx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(runCtx, cfg, logg, dbClient); err != nil {
		logg.Error(runCtx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(runCtx, cfg.Redis)
	requireResource(runCtx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	pingers := map[string]controllers.Pinger{"db": dbClient, "redis": redisClient}

	var dispatcher notifications.Dispatcher = notifications.NewLogDispatcher(logg)
	if cfg.GCP.ProjectID != "" {
		psClient, err := pubsub.NewClient(runCtx, cfg.GCP, cfg.PubSub, logg)
		requireResource(runCtx, logg, "pubsub", err)
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		pubDispatcher, err := notifications.NewPubSubDispatcher(psClient.NotificationPublisher())
		requireResource(runCtx, logg, "notification publisher", err)
		dispatcher = pubDispatcher
		pingers["pubsub"] = psClient
	} else {
		logg.Warn(runCtx, "gcp project not configured, order confirmations are logged only")
	}

	asyncDispatcher, err := notifications.NewAsyncDispatcher(dispatcher, cfg.Notification, logg, checkoutMetrics)
	requireResource(runCtx, logg, "notification dispatcher", err)

	couponRepo := coupons.NewRepository(dbClient.DB())
	engine, err := coupons.NewEngine(couponRepo, time.Now, checkoutMetrics)
	requireResource(runCtx, logg, "coupon engine", err)

	cartStore := cart.NewRepository(dbClient.DB())
	costs := checkout.DeliveryCostsFromConfig(cfg.Checkout)

	sequencer, err := checkout.NewSequencer(checkout.SequencerDeps{
		Tx:          dbClient,
		Cart:        cartStore,
		Orders:      orders.NewRepository(dbClient.DB()),
		Coupons:     couponRepo,
		Engine:      engine,
		Notifier:    asyncDispatcher,
		Costs:       costs,
		Logger:      logg,
		Metrics:     checkoutMetrics,
		StepTimeout: cfg.Checkout.StepTimeout,
	})
	requireResource(runCtx, logg, "order sequencer", err)

	sessions, err := checkout.NewRedisSessionStore(redisClient, cfg.Checkout.SessionTTL)
	requireResource(runCtx, logg, "checkout sessions", err)

	defaultLang, err := enums.ParseLanguage(cfg.Checkout.DefaultLanguage)
	requireResource(runCtx, logg, "default language", err)

	checkoutService, err := checkout.NewService(checkout.ServiceDeps{
		Sessions:  sessions,
		Cart:      cartStore,
		Profiles:  profile.NewRepository(dbClient.DB()),
		Engine:    engine,
		Committer: sequencer,
		Guard: checkout.ChainGuard{
			checkout.NewLocalGuard(),
			checkout.NewRedisGuard(redisClient, cfg.Checkout.CommitLockTTL, logg),
		},
		Costs:           costs,
		Rules:           checkout.Rules{CardPayments: cfg.FeatureFlags.CardPayments},
		DefaultLanguage: defaultLang,
		StepTimeout:     cfg.Checkout.StepTimeout,
		Logger:          logg,
		Metrics:         checkoutMetrics,
	})
	requireResource(runCtx, logg, "checkout service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, pingers, redisClient, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), checkoutService),
		ReadHeaderTimeout: 10 * time.Second,
	}

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
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "api server shutdown failed", err)
	}
	if err := asyncDispatcher.Close(shutdownCtx); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "pending notifications dropped")
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
