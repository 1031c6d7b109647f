package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Discount types supported by the coupon engine.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Coupon is an admin-created discount code. Expired coupons are purged by a
// TTL index on expires_at and additionally rejected at apply time, so a
// coupon read mid-flight past its expiry never reduces a total.
type Coupon struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Code          string             `bson:"code" json:"code"`
	DiscountType  string             `bson:"discount_type" json:"discount_type"`
	DiscountValue float64            `bson:"discount_value" json:"discount_value"`
	ExpiresAt     time.Time          `bson:"expires_at" json:"expires_at"`
	Active        bool               `bson:"active" json:"active"`
}

// Validate rejects inactive or expired coupons.
func (c *Coupon) Validate(now time.Time) error {
	if !c.Active || !now.Before(c.ExpiresAt) {
		return ErrCouponExpired
	}
	return nil
}

// Discount computes the amount to subtract from the given total, clamped so
// the discount never exceeds the total itself.
func (c *Coupon) Discount(total float64) float64 {
	var d float64
	switch c.DiscountType {
	case DiscountPercentage:
		d = total * c.DiscountValue / 100
	case DiscountFixed:
		d = c.DiscountValue
	}
	if d > total {
		d = total
	}
	if d < 0 {
		d = 0
	}
	return round2(d)
}
