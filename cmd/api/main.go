package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sushix/checkout-api/internal/handlers"
	"github.com/sushix/checkout-api/internal/id"
	"github.com/sushix/checkout-api/internal/notify"
	"github.com/sushix/checkout-api/internal/payments"
	"github.com/sushix/checkout-api/internal/platform/config"
	"github.com/sushix/checkout-api/internal/platform/observability"
	"github.com/sushix/checkout-api/internal/services"
	"github.com/sushix/checkout-api/internal/store"
)

func main() {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	orders, sweeper, closeStore := buildOrderStore(logger, cfg.Orders)
	defer closeStore()

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	var sweepWG sync.WaitGroup
	var sweepTicker *time.Ticker
	if sweeper != nil {
		sweepTicker = time.NewTicker(cfg.Orders.SweepInterval)
		sweepWG.Add(1)
		go func() {
			defer sweepWG.Done()
			sweepLogger := logger.Named("orders")
			for {
				select {
				case <-sweepTicker.C:
					runCtx, cancel := context.WithTimeout(sweepCtx, time.Minute)
					removed, err := sweeper.CleanupExpired(runCtx, time.Now().UTC(), cfg.Orders.SweepBatchSize)
					cancel()
					if err != nil {
						sweepLogger.Error("order sweep error", zap.Error(err))
						continue
					}
					if removed > 0 {
						sweepLogger.Info("order sweep removed expired orders", zap.Int("count", removed))
					}
				case <-sweepCtx.Done():
					return
				}
			}
		}()
	}

	stripeProvider, err := payments.NewStripeProvider(payments.StripeProviderConfig{
		APIKey:        cfg.PSP.StripeAPIKey,
		WebhookSecret: cfg.PSP.StripeWebhookSecret,
		Logger:        observability.EventLogger(logger.Named("payments")),
	})
	if err != nil {
		logger.Fatal("failed to initialise stripe provider", zap.Error(err))
	}

	notifier, err := notify.NewTelegramNotifier(notify.TelegramConfig{
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
		BaseURL:  cfg.Telegram.BaseURL,
		Timeout:  cfg.Telegram.SendTimeout,
		Logger:   observability.EventLogger(logger.Named("notify")),
	})
	if err != nil {
		logger.Fatal("failed to initialise telegram notifier", zap.Error(err))
	}

	checkoutService, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Orders:     orders,
		Payments:   stripeProvider,
		IDs:        id.ULIDGenerator{},
		SuccessURL: cfg.Checkout.SuccessURL,
		CancelURL:  cfg.Checkout.CancelURL,
		Currency:   cfg.Checkout.Currency,
		Clock:      time.Now,
		Logger:     observability.EventLogger(logger.Named("checkout")),
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout service", zap.Error(err))
	}

	fulfillmentService, err := services.NewFulfillmentService(services.FulfillmentServiceDeps{
		Orders:   orders,
		Verifier: stripeProvider,
		Notifier: notifier,
		Logger:   observability.EventLogger(logger.Named("fulfillment")),
	})
	if err != nil {
		logger.Fatal("failed to initialise fulfillment service", zap.Error(err))
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
		corsMiddleware(cfg.CORS),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithCheckoutHandlers(handlers.NewCheckoutHandlers(checkoutService)),
		handlers.WithWebhookHandlers(handlers.NewWebhookHandlers(fulfillmentService)),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("checkout api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	if sweepTicker != nil {
		sweepTicker.Stop()
	}
	sweepCancel()
	sweepWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// buildOrderStore selects the pending-order backend: Redis when an
// address is configured, otherwise process memory with a background
// expiry sweep.
func buildOrderStore(logger *zap.Logger, cfg config.OrdersConfig) (store.OrderStore, *store.MemoryStore, func()) {
	if cfg.RedisAddr != "" {
		redisStore, err := store.NewRedisStore(store.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL,
		})
		if err != nil {
			logger.Fatal("failed to initialise redis order store", zap.Error(err))
		}
		logger.Info("using redis order store", zap.String("addr", cfg.RedisAddr))
		return redisStore, nil, func() {
			if err := redisStore.Close(); err != nil {
				logger.Warn("redis close error", zap.Error(err))
			}
		}
	}

	memoryStore := store.NewMemoryStore(store.WithTTL(cfg.TTL))
	logger.Info("using in-memory order store", zap.Duration("ttl", cfg.TTL))
	return memoryStore, memoryStore, func() {}
}

func corsMiddleware(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Stripe-Signature"},
		MaxAge:         300,
	})
}
