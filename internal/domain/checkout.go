package domain

import "time"

// Session modes and payment statuses reported by the payment provider.
const (
	SessionModePayment = "payment"

	PaymentStatusPaid = "paid"
)

// Event types handled by the webhook receiver.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventCheckoutSessionExpired   = "checkout.session.expired"
)

// CheckoutSession is a provider-hosted checkout attempt for one order.
type CheckoutSession struct {
	ID                string
	URL               string
	ClientReferenceID string
	Mode              string
	PaymentStatus     string
	Status            string
	AmountTotal       int64
	Currency          string
}

// SessionRequest describes a single line item, one-time payment session.
type SessionRequest struct {
	OrderID           int64
	ProductName       string
	Amount            int64
	Currency          string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	ExpiresAfter      time.Duration
	IdempotencyKey    string
}

// Event is a verified provider notification. Session is nil for
// events whose payload is not a checkout session.
type Event struct {
	ID      string
	Type    string
	Session *CheckoutSession
}
