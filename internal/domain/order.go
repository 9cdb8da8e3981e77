package domain

// OrderStatus is the status vocabulary of the order backend.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
)

// IsPaid reports whether the order has already moved past payment.
// Orders in this state must not be transitioned again.
func (s OrderStatus) IsPaid() bool {
	return s == OrderStatusProcessing || s == OrderStatusCompleted
}

// Order is the subset of an order backend record this service reads.
type Order struct {
	ID     int64
	Status OrderStatus
}
