package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offer is a discount configuration attached to a product or a category.
// Amount and Percent may both be set; the pricing engine gives the fixed
// amount precedence.
type Offer struct {
	Amount      decimal.Decimal
	Percent     decimal.Decimal
	MinPurchase decimal.Decimal
	Active      bool
	ExpiresAt   *time.Time
}

// Product is the catalog view the order core reads. Stock is a decimal
// quantity: fractional units (kg, litres) are sold in 0.5 steps.
type Product struct {
	ProductID     string
	Name          string
	Price         decimal.Decimal
	Stock         decimal.Decimal
	PurchaseCount decimal.Decimal
	CategoryID    string
	Offer         *Offer
}

// Category groups products and may carry its own offer.
type Category struct {
	CategoryID string
	Name       string
	Offer      *Offer
}
