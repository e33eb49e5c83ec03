package coupon

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Source provides the lookups the evaluator needs.
type Source interface {
	GetCoupon(ctx context.Context, code string) (*Coupon, error)
	IsUsed(ctx context.Context, userID, code string) (bool, error)
}

// Evaluator validates and prices a coupon against a cart. It holds no
// state between calls: the checkout path re-evaluates the code rather
// than trusting an earlier quote.
type Evaluator struct {
	src     Source
	nowFunc func() time.Time
}

// NewEvaluator wires an Evaluator.
func NewEvaluator(src Source) *Evaluator {
	return &Evaluator{
		src:     src,
		nowFunc: time.Now,
	}
}

var hundred = decimal.NewFromInt(100)

// Quote checks eligibility and computes the discount for the given cart
// figures. The checks run in a fixed order: unknown/inactive, already
// used, expired, below minimum.
func (e *Evaluator) Quote(ctx context.Context, code, userID string, cartSubTotal, cartTotal decimal.Decimal) (*Quote, error) {
	c, err := e.src.GetCoupon(ctx, code)
	if err != nil {
		return nil, err
	}
	if c == nil || !c.Active {
		return nil, ErrInvalidCoupon
	}

	used, err := e.src.IsUsed(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, ErrAlreadyUsed
	}

	if e.nowFunc().After(c.ExpiresAt) {
		return nil, ErrExpired
	}
	if cartSubTotal.LessThan(c.MinPurchase) {
		return nil, ErrBelowMinimum
	}

	var discount decimal.Decimal
	switch c.Kind {
	case KindPercent:
		discount = cartSubTotal.Mul(c.Value).Div(hundred).Round(2)
	case KindFixed:
		discount = c.Value
	default:
		return nil, ErrInvalidCoupon
	}

	return &Quote{
		Code:     c.Code,
		Discount: discount,
		SubTotal: cartSubTotal.Sub(discount),
		Total:    cartTotal.Sub(discount),
	}, nil
}
