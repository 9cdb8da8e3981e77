package app

import (
	"time"

	"github.com/sirupsen/logrus"

	"checkoutbridge/internal/config"
	"checkoutbridge/internal/middleware"
)

// NewLogger creates the process-wide JSON logger.
func NewLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.AddHook(requestIDHook{})

	return logger
}

// requestIDHook copies the request id from an entry's context into its fields.
type requestIDHook struct{}

func (requestIDHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (requestIDHook) Fire(entry *logrus.Entry) error {
	if id := middleware.RequestIDFromContext(entry.Context); id != "" {
		entry.Data["request_id"] = id
	}
	return nil
}
