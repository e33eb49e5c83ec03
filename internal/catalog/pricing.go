package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountSource tags which offer tier produced the winning price.
type DiscountSource string

const (
	SourceNone            DiscountSource = "NONE"
	SourceProductFixed    DiscountSource = "PRODUCT_FIXED"
	SourceProductPercent  DiscountSource = "PRODUCT_PERCENT"
	SourceCategoryFixed   DiscountSource = "CATEGORY_FIXED"
	SourceCategoryPercent DiscountSource = "CATEGORY_PERCENT"
)

// ExpiryPolicy controls whether the engine filters out expired offers
// itself or leaves that to the caller.
type ExpiryPolicy int

const (
	// EnforceExpiry skips offers whose ExpiresAt is in the past.
	EnforceExpiry ExpiryPolicy = iota
	// IgnoreExpiry prices expired-but-active offers as if current.
	IgnoreExpiry
)

// PriceQuote is the result of pricing one product.
type PriceQuote struct {
	ListPrice  decimal.Decimal
	BestPrice  decimal.Decimal
	FixedOff   decimal.Decimal // absolute discount of the winning offer
	PercentOff decimal.Decimal // percentage equivalent of the winning offer
	Source     DiscountSource
}

// Engine computes the best applicable discount for a product: its own
// offer and its category's offer each contribute at most one candidate
// price, and a candidate is adopted only when strictly lower than the
// current best. Within one offer a fixed amount is checked before a
// percentage, so fixed wins when both fields are set.
type Engine struct {
	expiry  ExpiryPolicy
	nowFunc func() time.Time
}

// NewEngine returns an Engine with the given expiry policy.
func NewEngine(policy ExpiryPolicy) *Engine {
	return &Engine{
		expiry:  policy,
		nowFunc: time.Now,
	}
}

var hundred = decimal.NewFromInt(100)

// Price quotes the product against its own offer and, when the category
// is known, the category's offer. cat may be nil.
func (e *Engine) Price(p Product, cat *Category) PriceQuote {
	q := PriceQuote{
		ListPrice:  p.Price,
		BestPrice:  p.Price,
		FixedOff:   decimal.Zero,
		PercentOff: decimal.Zero,
		Source:     SourceNone,
	}

	e.consider(&q, p.Price, p.Offer, SourceProductFixed, SourceProductPercent)
	if cat != nil {
		e.consider(&q, p.Price, cat.Offer, SourceCategoryFixed, SourceCategoryPercent)
	}
	return q
}

func (e *Engine) consider(q *PriceQuote, list decimal.Decimal, o *Offer, fixedTag, percentTag DiscountSource) {
	if o == nil || !o.Active {
		return
	}
	if e.expiry == EnforceExpiry && o.ExpiresAt != nil && o.ExpiresAt.Before(e.nowFunc()) {
		return
	}

	// Fixed amount first: when both fields are non-zero, fixed wins.
	if o.Amount.IsPositive() {
		candidate := list.Sub(o.Amount)
		if candidate.LessThan(q.BestPrice) {
			q.BestPrice = candidate
			q.FixedOff = o.Amount
			if list.IsPositive() {
				q.PercentOff = o.Amount.Mul(hundred).DivRound(list, 2)
			}
			q.Source = fixedTag
		}
		return
	}
	if o.Percent.IsPositive() {
		candidate := list.Sub(list.Mul(o.Percent).Div(hundred)).Round(2)
		if candidate.LessThan(q.BestPrice) {
			q.BestPrice = candidate
			q.FixedOff = list.Sub(candidate)
			q.PercentOff = o.Percent
			q.Source = percentTag
		}
	}
}
