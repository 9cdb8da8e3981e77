package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"checkoutbridge/internal/app"
	"checkoutbridge/internal/config"
	"checkoutbridge/internal/handler"
	"checkoutbridge/internal/repository/woocommerce"
	"checkoutbridge/internal/service"
	internalStripe "checkoutbridge/internal/stripe"
)

func main() {
	// Load configuration. Missing secrets are fatal.
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	logger := app.NewLogger(cfg.Log)
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST so outbound clients and Redis can be instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize New Relic")
		} else {
			logger.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	// Redis is optional: without it duplicate deliveries rely on the order status guard alone.
	stores, err := app.NewRedisStores(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer stores.Close()
	if stores.Client != nil {
		logger.Info("Connected to Redis")
	} else {
		logger.Warn("REDIS_ADDR not set, webhook event dedup disabled")
	}

	// Wire dependencies.
	server := wireServer(cfg, stores, nrApp, logger)

	// Start server in goroutine.
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(cfg *config.Config, stores *app.RedisStores, nrApp *newrelic.Application, logger *logrus.Logger) *http.Server {
	// Initialize outbound clients.
	orderRepo := woocommerce.NewOrderRepository(woocommerce.Config{
		BaseURL:        cfg.WooCommerce.BaseURL,
		ConsumerKey:    cfg.WooCommerce.ConsumerKey,
		ConsumerSecret: cfg.WooCommerce.ConsumerSecret,
		AuthMode:       woocommerce.AuthMode(cfg.WooCommerce.AuthMode),
		Timeout:        cfg.WooCommerce.Timeout,
	}, app.NewHTTPClient(cfg.WooCommerce.Timeout, nrApp), logger)

	provider := internalStripe.NewProvider(internalStripe.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	}, app.NewHTTPClient(cfg.Stripe.Timeout, nrApp), logger)

	// Initialize services.
	checkoutService := service.NewCheckoutService(provider, cfg.App.BaseURL, logger)
	webhookService := service.NewWebhookService(provider, orderRepo, stores.Events, stores.Locks, logger)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		CheckoutHandler: handler.NewCheckoutHandler(checkoutService),
		WebhookHandler:  handler.NewWebhookHandler(webhookService, logger),
		APIKey:          cfg.App.APIKey,
		CORS:            cfg.CORS,
		Logger:          logger,
		ResponseStore:   stores.Responses,
		NewRelicApp:     nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
