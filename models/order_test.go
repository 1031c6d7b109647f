package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusPlaced, true},
		{StatusPending, StatusCancelled, true},
		{StatusPaid, StatusPlaced, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPlaced, StatusPreparing, true},
		{StatusPreparing, StatusOnWay, true},
		{StatusOnWay, StatusDelivered, true},
		{StatusDelivered, StatusReturned, true},
		{StatusCancelled, StatusRefunded, true},

		{StatusPending, StatusDelivered, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusPaid, StatusPending, false},
		{StatusRefunded, StatusPending, false},
		{StatusReturned, StatusPlaced, false},
		{StatusOnWay, StatusCancelled, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusOnWay.Valid())
	assert.False(t, OrderStatus("SHIPPED").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestCanCancelByStatus(t *testing.T) {
	now := time.Now()

	for _, status := range []OrderStatus{StatusPending, StatusPaid, StatusPlaced} {
		order := &Order{Status: status, CreatedAt: now.Add(-time.Hour)}
		assert.NoError(t, order.CanCancel(now), "status %s", status)
	}

	for _, status := range []OrderStatus{StatusPreparing, StatusOnWay, StatusDelivered, StatusCancelled, StatusRefunded, StatusReturned} {
		order := &Order{Status: status, CreatedAt: now.Add(-time.Hour)}
		assert.ErrorIs(t, order.CanCancel(now), ErrNotCancellable, "status %s", status)
	}
}

func TestCanCancelWindow(t *testing.T) {
	now := time.Now()

	inside := &Order{Status: StatusPaid, CreatedAt: now.Add(-23 * time.Hour)}
	assert.NoError(t, inside.CanCancel(now))

	outside := &Order{Status: StatusPaid, CreatedAt: now.Add(-25 * time.Hour)}
	assert.ErrorIs(t, outside.CanCancel(now), ErrCancelWindow)
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	order := &Order{Status: StatusPending}

	require.True(t, order.MarkPaid("pi_123"))
	assert.Equal(t, StatusPaid, order.Status)
	assert.Equal(t, "pi_123", order.PaymentIntentID)

	// Redelivering the same confirmation changes nothing.
	assert.False(t, order.MarkPaid("pi_123"))
	assert.Equal(t, StatusPaid, order.Status)
	assert.Equal(t, "pi_123", order.PaymentIntentID)

	// Even a different intent id can not overwrite a settled payment.
	assert.False(t, order.MarkPaid("pi_456"))
	assert.Equal(t, "pi_123", order.PaymentIntentID)
}

func TestStockedCoversOnlyDecrementedProducts(t *testing.T) {
	decremented := primitive.NewObjectID()
	skipped := primitive.NewObjectID()

	// The order was paid with two products but only one had enough stock
	// to decrement; cancelling must not restock the other.
	order := &Order{
		Items: []OrderItem{
			{ProductID: decremented, Quantity: 2},
			{ProductID: skipped, Quantity: 3},
		},
		StockedProducts: []primitive.ObjectID{decremented},
	}

	assert.True(t, order.Stocked(decremented))
	assert.False(t, order.Stocked(skipped))

	none := &Order{Items: order.Items}
	assert.False(t, none.Stocked(decremented))
}

func TestQuantityByProductCollapsesVariantLines(t *testing.T) {
	p1 := primitive.NewObjectID()
	p2 := primitive.NewObjectID()

	order := &Order{Items: []OrderItem{
		{ProductID: p1, Quantity: 1, Color: "red", Size: "M"},
		{ProductID: p1, Quantity: 2, Color: "blue", Size: "L"},
		{ProductID: p2, Quantity: 1},
	}}

	quantities := order.QuantityByProduct()
	assert.Equal(t, 3, quantities[p1])
	assert.Equal(t, 1, quantities[p2])
	assert.Len(t, quantities, 2)
}

func TestMarkPaidOnlyFromPending(t *testing.T) {
	for _, status := range []OrderStatus{StatusPlaced, StatusCancelled, StatusDelivered} {
		order := &Order{Status: status}
		assert.False(t, order.MarkPaid("pi_123"), "status %s", status)
		assert.Equal(t, status, order.Status)
		assert.Empty(t, order.PaymentIntentID)
	}
}
