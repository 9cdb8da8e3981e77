package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_IsPaid(t *testing.T) {
	t.Parallel()

	assert.False(t, OrderStatusPending.IsPaid())
	assert.True(t, OrderStatusProcessing.IsPaid())
	assert.True(t, OrderStatusCompleted.IsPaid())

	// Statuses outside the vocabulary used here are not treated as paid.
	for _, status := range []OrderStatus{"on-hold", "cancelled", "refunded", "failed", ""} {
		assert.False(t, status.IsPaid(), string(status))
	}
}
