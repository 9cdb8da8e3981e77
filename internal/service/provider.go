package service

import (
	"context"

	"checkoutbridge/internal/domain"
)

// PaymentProvider is the narrow surface of the payment provider used by this service.
type PaymentProvider interface {
	// VerifyEvent checks the signature over the raw payload and decodes the event.
	VerifyEvent(payload []byte, signature string) (*domain.Event, error)

	// CreateSession creates a hosted checkout session.
	CreateSession(ctx context.Context, req domain.SessionRequest) (*domain.CheckoutSession, error)

	// RetrieveSession fetches a checkout session with its payment intent expanded.
	RetrieveSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error)
}
