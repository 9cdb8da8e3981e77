package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server      ServerConfig
	App         AppConfig
	Stripe      StripeConfig
	WooCommerce WooCommerceConfig
	Redis       RedisConfig
	NewRelic    NewRelicConfig
	CORS        CORSConfig
	Log         LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AppConfig holds settings of the storefront this service serves.
type AppConfig struct {
	// BaseURL is the public storefront URL used to build redirect URLs.
	BaseURL string
	// APIKey is the shared secret expected in the X-Api-Key header.
	APIKey string
}

// StripeConfig holds payment provider credentials.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
}

// WooCommerceConfig holds order backend configuration.
type WooCommerceConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	// AuthMode is either "basic" or "query".
	AuthMode string
	Timeout  time.Duration
}

// RedisConfig holds Redis configuration. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// CORSConfig holds cross-origin settings for the storefront.
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         int
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// Load loads configuration from environment variables.
// It fails if any required variable is unset, naming all of them.
func Load() (*Config, error) {
	var missing []string
	required := func(key string) string {
		value := os.Getenv(key)
		if value == "" {
			missing = append(missing, key)
		}
		return value
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		App: AppConfig{
			BaseURL: strings.TrimSuffix(required("APP_BASE_URL"), "/"),
			APIKey:  required("INTERNAL_API_KEY"),
		},
		Stripe: StripeConfig{
			SecretKey:     required("STRIPE_SECRET_KEY"),
			WebhookSecret: required("STRIPE_WEBHOOK_SECRET"),
			Timeout:       getDurationEnv("STRIPE_TIMEOUT", 20*time.Second),
		},
		WooCommerce: WooCommerceConfig{
			BaseURL:        strings.TrimSuffix(required("WC_BASE_URL"), "/"),
			ConsumerKey:    required("WC_CONSUMER_KEY"),
			ConsumerSecret: required("WC_CONSUMER_SECRET"),
			AuthMode:       getEnv("WC_AUTH_MODE", "basic"),
			Timeout:        getDurationEnv("WC_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "checkout-bridge"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		CORS: CORSConfig{
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
			MaxAge:         getIntEnv("CORS_MAX_AGE", 600),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	switch cfg.WooCommerce.AuthMode {
	case "basic", "query":
	default:
		return nil, fmt.Errorf("invalid WC_AUTH_MODE %q: must be basic or query", cfg.WooCommerce.AuthMode)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
