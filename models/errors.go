package models

import "errors"

// Domain errors surfaced by the aggregates. Controllers translate these into
// HTTP failure responses.
var (
	ErrOutOfStock        = errors.New("product is currently out of stock")
	ErrInsufficientStock = errors.New("not enough stock available")
	ErrInvalidSelection  = errors.New("selected color or size is not available for this product")
	ErrItemNotFound      = errors.New("product not found in cart")
	ErrCouponExpired     = errors.New("coupon is expired or inactive")
	ErrNotCancellable    = errors.New("order can not be cancelled in its current status")
	ErrCancelWindow      = errors.New("order can not be cancelled after 24 hours")
)
