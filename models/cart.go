package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is a line item inside a cart. Price is the unit price snapshot
// taken when the product was added.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	Color     string             `bson:"color,omitempty" json:"color,omitempty"`
	Size      string             `bson:"size,omitempty" json:"size,omitempty"`
}

// Cart is a user's shopping cart. There is at most one per user, enforced by a
// unique index on user_id. Total is derived and recomputed on every mutation.
type Cart struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Items     []CartItem          `bson:"items" json:"items"`
	CouponID  *primitive.ObjectID `bson:"coupon_id,omitempty" json:"coupon_id,omitempty"`
	Total     float64             `bson:"total" json:"total"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}

// ItemIndex returns the index of the line item matching the
// (product, color, size) key, or -1.
func (c *Cart) ItemIndex(productID primitive.ObjectID, color, size string) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.Color == color && item.Size == size {
			return i
		}
	}
	return -1
}

// AddItem puts one unit of the product into the cart. An existing line item
// with the same (product, color, size) key is merged by incrementing its
// quantity rather than appending a duplicate.
func (c *Cart) AddItem(product *Product, color, size string) error {
	if product.Stock == 0 {
		return ErrOutOfStock
	}
	if !product.HasVariant(color, size) {
		return ErrInvalidSelection
	}

	if i := c.ItemIndex(product.ID, color, size); i > -1 {
		if c.Items[i].Quantity+1 > product.Stock {
			return ErrInsufficientStock
		}
		c.Items[i].Quantity++
		c.Recalculate()
		return nil
	}

	c.Items = append(c.Items, CartItem{
		ProductID: product.ID,
		Quantity:  1,
		Price:     product.Price,
		Color:     color,
		Size:      size,
	})
	c.Recalculate()
	return nil
}

// Increment raises the matching line item's quantity by one, bounded by the
// product's available stock.
func (c *Cart) Increment(product *Product, color, size string) error {
	i := c.ItemIndex(product.ID, color, size)
	if i == -1 {
		return ErrItemNotFound
	}
	if c.Items[i].Quantity+1 > product.Stock {
		return ErrInsufficientStock
	}
	c.Items[i].Quantity++
	c.Recalculate()
	return nil
}

// Decrement lowers the matching line item's quantity by one. A line item at
// quantity 1 is removed entirely; the cart never holds a zero-quantity item.
// Returns true when the item was removed.
func (c *Cart) Decrement(productID primitive.ObjectID, color, size string) (removed bool, err error) {
	i := c.ItemIndex(productID, color, size)
	if i == -1 {
		return false, ErrItemNotFound
	}
	if c.Items[i].Quantity > 1 {
		c.Items[i].Quantity--
		c.Recalculate()
		return false, nil
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.Recalculate()
	return true, nil
}

// RemoveItem pulls every line item for the product regardless of variant.
func (c *Cart) RemoveItem(productID primitive.ObjectID) error {
	kept := c.Items[:0]
	found := false
	for _, item := range c.Items {
		if item.ProductID == productID {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		return ErrItemNotFound
	}
	c.Items = kept
	c.Recalculate()
	return nil
}

// Subtotal is the sum of quantity times unit price across line items.
func (c *Cart) Subtotal() float64 {
	sum := 0.0
	for _, item := range c.Items {
		sum += float64(item.Quantity) * item.Price
	}
	return round2(sum)
}

// Recalculate refreshes the derived total from the line items. The stored
// total is never trusted from client input.
func (c *Cart) Recalculate() {
	c.Total = c.Subtotal()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
