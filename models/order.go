package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusPlaced    OrderStatus = "PLACED"
	StatusPreparing OrderStatus = "PREPARING"
	StatusOnWay     OrderStatus = "ON_WAY"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusRefunded  OrderStatus = "REFUNDED"
	StatusReturned  OrderStatus = "RETURNED"
)

// transitions encodes the order state machine. Absent states are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusPaid, StatusPlaced, StatusCancelled},
	StatusPaid:      {StatusPlaced, StatusCancelled},
	StatusPlaced:    {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusOnWay},
	StatusOnWay:     {StatusDelivered},
	StatusDelivered: {StatusReturned},
	StatusCancelled: {StatusRefunded},
}

// CanTransitionTo reports whether the state machine permits moving to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status value.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusPlaced, StatusPreparing, StatusOnWay,
		StatusDelivered, StatusCancelled, StatusRefunded, StatusReturned:
		return true
	}
	return false
}

// OrderItem is a line item snapshotted from the cart at order creation, so
// later cart mutations can not change what was purchased.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	Color     string             `bson:"color,omitempty" json:"color,omitempty"`
	Size      string             `bson:"size,omitempty" json:"size,omitempty"`
}

// Order is a user's purchase. It records the cart it came from for
// traceability but carries its own copy of the line items.
type Order struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	UserID          primitive.ObjectID   `bson:"user_id" json:"user_id"`
	CartID          primitive.ObjectID   `bson:"cart_id" json:"cart_id"`
	Items           []OrderItem          `bson:"items" json:"items"`
	Subtotal        float64              `bson:"subtotal" json:"subtotal"`
	Discount        float64              `bson:"discount" json:"discount"`
	Total           float64              `bson:"total" json:"total"`
	CouponID        *primitive.ObjectID  `bson:"coupon_id,omitempty" json:"coupon_id,omitempty"`
	Phone           string               `bson:"phone" json:"phone"`
	ShippingAddress string               `bson:"shipping_address" json:"shipping_address"`
	PaymentMethod   string               `bson:"payment_method" json:"payment_method"`
	PaymentIntentID string               `bson:"payment_intent_id,omitempty" json:"payment_intent_id,omitempty"`
	StockedProducts []primitive.ObjectID `bson:"stocked_products,omitempty" json:"-"`
	TrackingNumber  string               `bson:"tracking_number" json:"tracking_number"`
	ArrivalEstimate time.Time            `bson:"arrival_estimate" json:"arrival_estimate"`
	Status          OrderStatus          `bson:"status" json:"status"`
	CreatedAt       time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at" json:"updated_at"`
}

// CancelWindow is how long after creation an order may still be cancelled.
const CancelWindow = 24 * time.Hour

// CanCancel checks the cancellation rules: the order must be in a
// cancellable status and within the cancellation window.
func (o *Order) CanCancel(now time.Time) error {
	switch o.Status {
	case StatusPending, StatusPaid, StatusPlaced:
	default:
		return ErrNotCancellable
	}
	if now.Sub(o.CreatedAt) > CancelWindow {
		return ErrCancelWindow
	}
	return nil
}

// MarkPaid applies the payment confirmation. It is idempotent: an order that
// already reached PAID (or moved past it) is left untouched and false is
// returned, so webhook redelivery has no effect.
func (o *Order) MarkPaid(paymentIntentID string) bool {
	if o.Status != StatusPending {
		return false
	}
	o.Status = StatusPaid
	o.PaymentIntentID = paymentIntentID
	return true
}

// QuantityByProduct aggregates line quantities per product, collapsing
// variant lines of the same product into a single stock adjustment.
func (o *Order) QuantityByProduct() map[primitive.ObjectID]int {
	out := make(map[primitive.ObjectID]int, len(o.Items))
	for _, item := range o.Items {
		out[item.ProductID] += item.Quantity
	}
	return out
}

// Stocked reports whether the product's stock decrement actually applied
// when the order was paid. Cancellation only restocks stocked products;
// a decrement skipped for insufficient stock must never be reversed into
// phantom inventory.
func (o *Order) Stocked(productID primitive.ObjectID) bool {
	for _, id := range o.StockedProducts {
		if id == productID {
			return true
		}
	}
	return false
}
