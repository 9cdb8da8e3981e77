package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"checkoutbridge/internal/domain"
	"checkoutbridge/internal/repository"
)

const (
	ordersPath = "/wp-json/wc/v3/orders/%d"

	// maxErrorBody bounds how much of a failed response is kept in StatusError.
	maxErrorBody = 4 << 10
)

// AuthMode selects how credentials are sent to the REST API.
type AuthMode string

const (
	AuthBasic AuthMode = "basic"
	AuthQuery AuthMode = "query"
)

// Config holds the connection settings for an OrderRepository.
type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	AuthMode       AuthMode
	Timeout        time.Duration
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Op         string
	OrderID    int64
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("woocommerce %s order %d: status %d: %s", e.Op, e.OrderID, e.StatusCode, e.Body)
}

// Is makes a 404 match repository.ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == repository.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// OrderRepository is a WooCommerce REST implementation of repository.OrderRepository.
type OrderRepository struct {
	cfg    Config
	hc     *http.Client
	logger *logrus.Logger
}

// NewOrderRepository creates a new WooCommerce order repository.
func NewOrderRepository(cfg Config, hc *http.Client, logger *logrus.Logger) *OrderRepository {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &OrderRepository{cfg: cfg, hc: hc, logger: logger}
}

var _ repository.OrderRepository = (*OrderRepository)(nil)

type orderPayload struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type statusUpdate struct {
	Status domain.OrderStatus `json:"status"`
}

// GetByID retrieves an order by ID.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	respBody, err := r.do(ctx, "get", http.MethodGet, id, nil)
	if err != nil {
		return nil, err
	}

	var payload orderPayload
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, fmt.Errorf("woocommerce get order %d: decode response: %w", id, err)
	}

	return &domain.Order{
		ID:     payload.ID,
		Status: domain.OrderStatus(payload.Status),
	}, nil
}

// UpdateStatus updates the status of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	body, err := json.Marshal(statusUpdate{Status: status})
	if err != nil {
		return err
	}

	_, err = r.do(ctx, "update", http.MethodPut, id, body)
	return err
}

func (r *OrderRepository) do(ctx context.Context, op, method string, id int64, body []byte) ([]byte, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	endpoint, err := r.endpoint(id)
	if err != nil {
		return nil, fmt.Errorf("woocommerce %s order %d: %w", op, id, err)
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	hr, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("woocommerce %s order %d: %w", op, id, err)
	}
	hr.Header.Set("Accept", "application/json")
	if body != nil {
		hr.Header.Set("Content-Type", "application/json")
	}
	if r.cfg.AuthMode != AuthQuery {
		hr.SetBasicAuth(r.cfg.ConsumerKey, r.cfg.ConsumerSecret)
	}

	hresp, err := r.hc.Do(hr)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(logrus.Fields{
			"order_id": id,
			"op":       op,
		}).Error("woocommerce request failed")
		return nil, fmt.Errorf("woocommerce %s order %d: %w", op, id, err)
	}
	defer hresp.Body.Close()

	respBody, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, fmt.Errorf("woocommerce %s order %d: read response: %w", op, id, err)
	}

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		if len(respBody) > maxErrorBody {
			respBody = respBody[:maxErrorBody]
		}
		return nil, &StatusError{
			Op:         op,
			OrderID:    id,
			StatusCode: hresp.StatusCode,
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

func (r *OrderRepository) endpoint(id int64) (string, error) {
	u, err := url.Parse(r.cfg.BaseURL + fmt.Sprintf(ordersPath, id))
	if err != nil {
		return "", err
	}
	if r.cfg.AuthMode == AuthQuery {
		q := u.Query()
		q.Set("consumer_key", r.cfg.ConsumerKey)
		q.Set("consumer_secret", r.cfg.ConsumerSecret)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
