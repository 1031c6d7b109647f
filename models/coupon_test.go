package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCouponValidate(t *testing.T) {
	now := time.Now()

	active := &Coupon{Code: "SAVE10", DiscountType: DiscountPercentage, DiscountValue: 10, ExpiresAt: now.Add(time.Hour), Active: true}
	assert.NoError(t, active.Validate(now))

	// A coupon past its expiry never applies, even if still readable in
	// the store before the TTL purge ran.
	expired := &Coupon{Code: "OLD", DiscountType: DiscountFixed, DiscountValue: 5, ExpiresAt: now.Add(-time.Minute), Active: true}
	assert.ErrorIs(t, expired.Validate(now), ErrCouponExpired)

	inactive := &Coupon{Code: "OFF", DiscountType: DiscountFixed, DiscountValue: 5, ExpiresAt: now.Add(time.Hour), Active: false}
	assert.ErrorIs(t, inactive.Validate(now), ErrCouponExpired)

	boundary := &Coupon{Code: "EDGE", DiscountType: DiscountFixed, DiscountValue: 5, ExpiresAt: now, Active: true}
	assert.ErrorIs(t, boundary.Validate(now), ErrCouponExpired)
}

func TestCouponDiscount(t *testing.T) {
	percentage := &Coupon{DiscountType: DiscountPercentage, DiscountValue: 25}
	assert.Equal(t, 25.0, percentage.Discount(100))
	assert.Equal(t, 2.5, percentage.Discount(10))

	fixed := &Coupon{DiscountType: DiscountFixed, DiscountValue: 15}
	assert.Equal(t, 15.0, fixed.Discount(100))
}

func TestCouponDiscountClampedToTotal(t *testing.T) {
	fixed := &Coupon{DiscountType: DiscountFixed, DiscountValue: 50}
	assert.Equal(t, 20.0, fixed.Discount(20))

	over := &Coupon{DiscountType: DiscountPercentage, DiscountValue: 150}
	assert.Equal(t, 40.0, over.Discount(40))
}

func TestCouponDiscountUnknownTypeIsZero(t *testing.T) {
	c := &Coupon{DiscountType: "bogus", DiscountValue: 50}
	assert.Equal(t, 0.0, c.Discount(100))
}
