package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"checkoutbridge/internal/config"
	"checkoutbridge/internal/handler"
	"checkoutbridge/internal/middleware"
	internalRedis "checkoutbridge/internal/redis"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	CheckoutHandler *handler.CheckoutHandler
	WebhookHandler  *handler.WebhookHandler
	APIKey          string
	CORS            config.CORSConfig
	Logger          *logrus.Logger
	// ResponseStore enables Idempotency-Key replay on create-checkout when set.
	ResponseStore internalRedis.ResponseStoreInterface
	NewRelicApp   *newrelic.Application
}

// NewRouter creates the HTTP handler with all routes registered, wrapped in CORS.
func NewRouter(deps RouterDeps) http.Handler {
	handler.RegisterValidation()

	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(deps.Logger))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// Payment provider notifications. Authenticated by signature, not API key.
	router.POST("/webhooks/stripe", deps.WebhookHandler.HandleStripe)

	api := router.Group("/api")
	{
		create := []gin.HandlerFunc{middleware.APIKeyMiddleware(deps.APIKey)}
		if deps.ResponseStore != nil {
			create = append(create, middleware.IdempotencyMiddleware(deps.ResponseStore))
		}
		create = append(create, deps.CheckoutHandler.CreateCheckout)

		api.POST("/create-checkout", create...)
		api.GET("/checkout-status", deps.CheckoutHandler.GetCheckoutStatus)
	}

	return cors.New(cors.Options{
		AllowedOrigins: deps.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Content-Type",
			middleware.APIKeyHeader,
			middleware.IdempotencyHeader,
			middleware.RequestIDHeader,
		},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         deps.CORS.MaxAge,
	}).Handler(router)
}
