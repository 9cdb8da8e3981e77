package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"checkoutbridge/internal/domain"
	"checkoutbridge/internal/service"
)

// maxSessionExpiry is both the default and the upper bound Stripe accepts for
// expires_at. Leaving expires_at unset at this horizon keeps retried create
// requests identical under the same idempotency key.
const maxSessionExpiry = 24 * time.Hour

// Config holds Stripe credentials.
type Config struct {
	SecretKey     string
	WebhookSecret string
	// BaseURL overrides the API endpoint, used in tests.
	BaseURL string
}

// Provider implements service.PaymentProvider on top of stripe-go.
type Provider struct {
	api           *client.API
	webhookSecret string
	logger        *logrus.Logger
}

var _ service.PaymentProvider = (*Provider)(nil)

// NewProvider creates a Stripe-backed payment provider. hc carries the
// request timeout and any transport instrumentation.
func NewProvider(cfg Config, hc *http.Client, logger *logrus.Logger) *Provider {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	backendCfg := &stripe.BackendConfig{HTTPClient: hc, LeveledLogger: logger}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(cfg.BaseURL)
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, stripe.NewBackendsWithConfig(backendCfg))

	return &Provider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}
}

// VerifyEvent checks the Stripe-Signature header against the raw payload.
// A verified event whose session object cannot be decoded is still returned,
// with a nil Session, so it is acknowledged rather than redelivered.
func (p *Provider) VerifyEvent(payload []byte, signature string) (*domain.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidSignature, err)
	}

	out := &domain.Event{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if event.Data != nil && event.Data.Object["object"] == "checkout.session" {
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			p.logger.WithError(err).WithFields(logrus.Fields{
				"event_id":   event.ID,
				"event_type": out.Type,
			}).Error("verified event carries an undecodable checkout session")
			return out, nil
		}
		out.Session = toDomainSession(&cs)
	}

	return out, nil
}

// CreateSession creates a Checkout Session with a single inline-priced line item.
func (p *Provider) CreateSession(ctx context.Context, req domain.SessionRequest) (*domain.CheckoutSession, error) {
	orderRef := strconv.FormatInt(req.OrderID, 10)

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.ClientReferenceID),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{"order_id": orderRef},
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", orderRef)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	if req.ExpiresAfter > 0 && req.ExpiresAfter < maxSessionExpiry {
		params.ExpiresAt = stripe.Int64(time.Now().Add(req.ExpiresAfter).Unix())
	}

	cs, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}

	return toDomainSession(cs), nil
}

// RetrieveSession fetches a session with its payment intent expanded.
func (p *Provider) RetrieveSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	cs, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, err
	}

	return toDomainSession(cs), nil
}

func toDomainSession(cs *stripe.CheckoutSession) *domain.CheckoutSession {
	out := &domain.CheckoutSession{
		ID:                cs.ID,
		URL:               cs.URL,
		ClientReferenceID: cs.ClientReferenceID,
		Mode:              string(cs.Mode),
		PaymentStatus:     string(cs.PaymentStatus),
		Status:            string(cs.Status),
		AmountTotal:       cs.AmountTotal,
		Currency:          string(cs.Currency),
	}

	if pi := cs.PaymentIntent; pi != nil {
		if out.AmountTotal == 0 {
			out.AmountTotal = pi.Amount
		}
		if out.Currency == "" {
			out.Currency = string(pi.Currency)
		}
	}

	return out
}
