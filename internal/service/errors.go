package service

import "errors"

var (
	// ErrInvalidOrderID is returned when an order reference is missing or not a positive integer.
	ErrInvalidOrderID = errors.New("invalid order id")

	// ErrInvalidAmount is returned when an amount is missing or not a positive integer.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidSessionID is returned when a checkout session id is empty.
	ErrInvalidSessionID = errors.New("invalid session id")

	// ErrProviderFailure wraps failures reported by the payment provider.
	ErrProviderFailure = errors.New("payment provider request failed")
)

var (
	// ErrInvalidSignature is returned when a webhook payload fails verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
