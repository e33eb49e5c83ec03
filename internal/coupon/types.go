package coupon

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Kind enumerates the supported discount strategies.
type Kind string

const (
	KindFixed   Kind = "FIXED"
	KindPercent Kind = "PERCENT"
)

var (
	// ErrInvalidCoupon is returned for unknown or inactive codes.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrAlreadyUsed is returned when the user has spent the coupon before.
	ErrAlreadyUsed = errors.New("coupon already used")
	// ErrExpired is returned when the coupon's expiry instant has passed.
	ErrExpired = errors.New("coupon expired")
	// ErrBelowMinimum is returned when the cart subtotal does not reach
	// the coupon's minimum purchase amount.
	ErrBelowMinimum = errors.New("cart below coupon minimum")
)

// Coupon is a storefront-wide discount code.
type Coupon struct {
	Code        string
	Kind        Kind
	Value       decimal.Decimal
	MinPurchase decimal.Decimal
	ExpiresAt   time.Time
	Active      bool
}

// Quote is the priced application of a coupon against a cart. It is a
// plain value handed back to the client and re-derived at checkout;
// nothing is persisted until the order is created.
type Quote struct {
	Code     string
	Discount decimal.Decimal
	SubTotal decimal.Decimal // cart subtotal net of the discount
	Total    decimal.Decimal // cart total net of the discount
}
