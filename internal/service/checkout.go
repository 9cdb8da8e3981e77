package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"checkoutbridge/internal/domain"
)

const (
	// CheckoutCurrency is the only currency sessions are created in.
	CheckoutCurrency = "jpy"

	// SessionExpiry is how long a hosted checkout page stays payable.
	SessionExpiry = 24 * time.Hour
)

// CheckoutService creates and inspects hosted checkout sessions.
type CheckoutService struct {
	provider   PaymentProvider
	appBaseURL string
	logger     *logrus.Logger
}

// NewCheckoutService creates a new CheckoutService. appBaseURL is the
// storefront origin the provider redirects back to.
func NewCheckoutService(provider PaymentProvider, appBaseURL string, logger *logrus.Logger) *CheckoutService {
	return &CheckoutService{
		provider:   provider,
		appBaseURL: appBaseURL,
		logger:     logger,
	}
}

// CreateCheckoutRequest contains the parameters for creating a checkout session.
type CreateCheckoutRequest struct {
	OrderID int64
	Amount  int64
}

// CheckoutStatus is the normalized view of a session returned to the storefront.
type CheckoutStatus struct {
	OrderID       string
	Amount        int64
	Currency      string
	PaymentStatus string
	Status        string
}

// IdempotencyKey returns the provider idempotency key for an order's session.
// The same order always maps to the same key.
func IdempotencyKey(orderID int64) string {
	return fmt.Sprintf("checkout:order:%d", orderID)
}

// CreateCheckout creates a one-time payment session for an order.
func (s *CheckoutService) CreateCheckout(ctx context.Context, req CreateCheckoutRequest) (*domain.CheckoutSession, error) {
	if req.OrderID <= 0 {
		return nil, ErrInvalidOrderID
	}

	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	orderRef := strconv.FormatInt(req.OrderID, 10)
	sessionReq := domain.SessionRequest{
		OrderID:           req.OrderID,
		ProductName:       fmt.Sprintf("Order #%d", req.OrderID),
		Amount:            req.Amount,
		Currency:          CheckoutCurrency,
		SuccessURL:        s.redirectURL("/checkout/success", orderRef, true),
		CancelURL:         s.redirectURL("/checkout/cancel", orderRef, false),
		ClientReferenceID: orderRef,
		ExpiresAfter:      SessionExpiry,
		IdempotencyKey:    IdempotencyKey(req.OrderID),
	}

	log := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"order_id": req.OrderID,
		"amount":   req.Amount,
	})

	session, err := s.provider.CreateSession(ctx, sessionReq)
	if err != nil {
		log.WithError(err).Error("create checkout session failed")
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	log.WithField("session_id", session.ID).Info("checkout session created")

	return session, nil
}

// GetStatus retrieves a session and normalizes it for the storefront.
func (s *CheckoutService) GetStatus(ctx context.Context, sessionID string) (*CheckoutStatus, error) {
	if sessionID == "" {
		return nil, ErrInvalidSessionID
	}

	session, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("session_id", sessionID).
			Warn("retrieve checkout session failed")
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	return &CheckoutStatus{
		OrderID:       session.ClientReferenceID,
		Amount:        session.AmountTotal,
		Currency:      session.Currency,
		PaymentStatus: session.PaymentStatus,
		Status:        session.Status,
	}, nil
}

// redirectURL builds a storefront URL carrying the order reference. The
// success page also receives the session id through the provider's template
// placeholder, which must not be escaped.
func (s *CheckoutService) redirectURL(path, orderRef string, withSession bool) string {
	q := url.Values{}
	q.Set("order", orderRef)

	u := s.appBaseURL + path + "?" + q.Encode()
	if withSession {
		u += "&cs={CHECKOUT_SESSION_ID}"
	}
	return u
}
