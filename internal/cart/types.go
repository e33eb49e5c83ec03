package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShippingCharge is the flat delivery charge added to every cart.
var ShippingCharge = decimal.NewFromInt(30)

// QuantityStep is the increment for repeat adds of the same product.
// Fractional quantities support products sold by weight or volume.
var QuantityStep = decimal.NewFromFloat(0.5)

// Item is one cart line. UnitPrice is the discounted price snapshotted
// at the time of the last mutation; ItemTotal = UnitPrice * Quantity.
type Item struct {
	ProductID string
	Name      string
	ListPrice decimal.Decimal
	UnitPrice decimal.Decimal
	Quantity  decimal.Decimal
	ItemTotal decimal.Decimal
}

// Cart is the pending selection of exactly one user.
//
// Invariant after every mutation: SubTotal equals the sum of item
// totals and TotalPrice = SubTotal + ShippingCharge. A cart violating
// this is never persisted.
type Cart struct {
	UserID         string
	Items          []Item
	SubTotal       decimal.Decimal
	ShippingCharge decimal.Decimal
	TotalPrice     decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// recompute re-derives the denormalized totals from the items.
func (c *Cart) recompute() {
	sub := decimal.Zero
	for _, it := range c.Items {
		sub = sub.Add(it.ItemTotal)
	}
	c.SubTotal = sub
	c.ShippingCharge = ShippingCharge
	c.TotalPrice = sub.Add(ShippingCharge)
}

// Find returns the index of the line holding productID, or -1.
func (c *Cart) Find(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
