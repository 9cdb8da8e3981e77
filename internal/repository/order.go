package repository

import (
	"context"

	"checkoutbridge/internal/domain"
)

// OrderRepository defines the operations this service performs against the order backend.
type OrderRepository interface {
	// GetByID retrieves an order by its backend identifier.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)

	// UpdateStatus sets the status field of an order and nothing else.
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error
}
