package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var requiredEnv = map[string]string{
	"STRIPE_SECRET_KEY":     "sk_test_123",
	"STRIPE_WEBHOOK_SECRET": "whsec_123",
	"WC_BASE_URL":           "https://shop.example.com/",
	"WC_CONSUMER_KEY":       "ck_123",
	"WC_CONSUMER_SECRET":    "cs_123",
	"INTERNAL_API_KEY":      "internal",
	"APP_BASE_URL":          "https://shop.example.com",
}

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range requiredEnv {
		t.Setenv(k, v)
	}
}

func TestLoad_AllRequiredPresent(t *testing.T) {
	setRequired(t)
	t.Setenv("WC_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com", cfg.WooCommerce.BaseURL)
	assert.Equal(t, "basic", cfg.WooCommerce.AuthMode)
	assert.Equal(t, 3*time.Second, cfg.WooCommerce.Timeout)
	assert.Equal(t, "internal", cfg.App.APIKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_MissingRequiredFailsFast(t *testing.T) {
	setRequired(t)
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	t.Setenv("APP_BASE_URL", "")

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "STRIPE_WEBHOOK_SECRET")
	assert.Contains(t, err.Error(), "APP_BASE_URL")
}

func TestLoad_RejectsUnknownAuthMode(t *testing.T) {
	setRequired(t)
	t.Setenv("WC_AUTH_MODE", "oauth")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WC_AUTH_MODE")
}
