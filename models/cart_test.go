package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestProduct(price float64, stock int) *Product {
	return &Product{
		ID:     primitive.NewObjectID(),
		Name:   "Sneaker",
		Price:  price,
		Stock:  stock,
		Colors: []string{"red", "blue"},
		Sizes:  []string{"M", "L"},
	}
}

func TestCartTotalTracksItems(t *testing.T) {
	p1 := newTestProduct(10.0, 100)
	p2 := newTestProduct(5.0, 100)

	cart := &Cart{Items: []CartItem{
		{ProductID: p1.ID, Quantity: 2, Price: 10.0},
		{ProductID: p2.ID, Quantity: 1, Price: 5.0},
	}}
	cart.Recalculate()
	assert.Equal(t, 25.0, cart.Total)

	require.NoError(t, cart.Increment(p1, "", ""))
	assert.Equal(t, 35.0, cart.Total)

	require.NoError(t, cart.RemoveItem(p2.ID))
	assert.Equal(t, 30.0, cart.Total)
}

func TestCartTotalInvariantUnderMutationSequence(t *testing.T) {
	p := newTestProduct(3.33, 50)
	cart := &Cart{}

	require.NoError(t, cart.AddItem(p, "red", "M"))
	for i := 0; i < 4; i++ {
		require.NoError(t, cart.Increment(p, "red", "M"))

		want := 0.0
		for _, item := range cart.Items {
			want += float64(item.Quantity) * item.Price
		}
		assert.InDelta(t, want, cart.Total, 0.005)
	}
}

func TestAddItemMergesSameVariant(t *testing.T) {
	p := newTestProduct(12.5, 10)
	cart := &Cart{}

	require.NoError(t, cart.AddItem(p, "red", "M"))
	require.NoError(t, cart.AddItem(p, "red", "M"))

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 25.0, cart.Total)
}

func TestAddItemDifferentVariantIsSeparateLine(t *testing.T) {
	p := newTestProduct(12.5, 10)
	cart := &Cart{}

	require.NoError(t, cart.AddItem(p, "red", "M"))
	require.NoError(t, cart.AddItem(p, "blue", "M"))

	assert.Len(t, cart.Items, 2)
}

func TestAddItemOutOfStock(t *testing.T) {
	p := newTestProduct(9.99, 0)
	cart := &Cart{}

	err := cart.AddItem(p, "", "")
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Empty(t, cart.Items)
}

func TestAddItemInvalidSelection(t *testing.T) {
	p := newTestProduct(9.99, 5)
	cart := &Cart{}

	assert.ErrorIs(t, cart.AddItem(p, "green", ""), ErrInvalidSelection)
	assert.ErrorIs(t, cart.AddItem(p, "red", "XXL"), ErrInvalidSelection)
	assert.Empty(t, cart.Items)
}

func TestAddItemMergeBoundedByStock(t *testing.T) {
	p := newTestProduct(4.0, 2)
	cart := &Cart{}

	require.NoError(t, cart.AddItem(p, "red", "M"))
	require.NoError(t, cart.AddItem(p, "red", "M"))
	assert.ErrorIs(t, cart.AddItem(p, "red", "M"), ErrInsufficientStock)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestIncrementBoundedByStock(t *testing.T) {
	p := newTestProduct(4.0, 1)
	cart := &Cart{}

	require.NoError(t, cart.AddItem(p, "", ""))
	assert.ErrorIs(t, cart.Increment(p, "", ""), ErrInsufficientStock)
}

func TestIncrementMissingItem(t *testing.T) {
	p := newTestProduct(4.0, 5)
	cart := &Cart{}

	assert.ErrorIs(t, cart.Increment(p, "", ""), ErrItemNotFound)
}

func TestDecrementRemovesAtQuantityOne(t *testing.T) {
	p := newTestProduct(7.0, 5)
	cart := &Cart{}
	require.NoError(t, cart.AddItem(p, "", ""))
	require.NoError(t, cart.Increment(p, "", ""))

	removed, err := cart.Decrement(p.ID, "", "")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 1, cart.Items[0].Quantity)

	removed, err = cart.Decrement(p.ID, "", "")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0.0, cart.Total)

	// The cart never holds a zero-quantity line item.
	for _, item := range cart.Items {
		assert.Greater(t, item.Quantity, 0)
	}
}

func TestRemoveItemPullsAllVariants(t *testing.T) {
	p := newTestProduct(7.0, 5)
	cart := &Cart{}
	require.NoError(t, cart.AddItem(p, "red", "M"))
	require.NoError(t, cart.AddItem(p, "blue", "L"))

	require.NoError(t, cart.RemoveItem(p.ID))
	assert.Empty(t, cart.Items)

	assert.ErrorIs(t, cart.RemoveItem(p.ID), ErrItemNotFound)
}

func TestSubtotalRounding(t *testing.T) {
	cart := &Cart{Items: []CartItem{
		{ProductID: primitive.NewObjectID(), Quantity: 3, Price: 0.1},
	}}
	assert.Equal(t, 0.3, cart.Subtotal())
}
