package orders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/evergreen-commerce/evergreen-backend/internal/cart"
	"github.com/evergreen-commerce/evergreen-backend/internal/catalog"
	"github.com/evergreen-commerce/evergreen-backend/internal/payment"
)

// CheckoutInput is everything the checkout call carries. The coupon is
// an explicit value here, not ambient session state: the code is
// re-evaluated against the cart at this instant.
type CheckoutInput struct {
	UserID        string
	AddressID     string
	PaymentMethod string
	CouponCode    string
	DeclaredTotal decimal.Decimal
	TermsAccepted bool
}

// CheckoutResult is returned to the caller. For gateway payments the
// order is a placeholder awaiting the provider callback and
// GatewayOrderID is what the client hands to the payment widget.
type CheckoutResult struct {
	Order          *Order
	GatewayOrderID string
}

// Assembler snapshots a cart into an immutable order and branches by
// payment method.
type Assembler struct {
	orders    OrderStore
	carts     CartSource
	catalog   CatalogSource
	coupons   CouponQuoter
	wallets   WalletLedger
	userDir   UserDirectory
	gateway   payment.Gateway
	finalizer *Finalizer
	pricing   *catalog.Engine
}

// NewAssembler wires an Assembler.
func NewAssembler(orders OrderStore, carts CartSource, cat CatalogSource, coupons CouponQuoter, wallets WalletLedger, userDir UserDirectory, gateway payment.Gateway, finalizer *Finalizer, pricing *catalog.Engine) *Assembler {
	return &Assembler{
		orders:    orders,
		carts:     carts,
		catalog:   cat,
		coupons:   coupons,
		wallets:   wallets,
		userDir:   userDir,
		gateway:   gateway,
		finalizer: finalizer,
		pricing:   pricing,
	}
}

var minorUnits = decimal.NewFromInt(100)

// Checkout creates one order from the user's cart.
func (a *Assembler) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	if !in.TermsAccepted {
		return nil, ErrTermsNotAccepted
	}

	u, err := a.userDir.Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if u.Address(in.AddressID) == nil {
		return nil, ErrInvalidAddress
	}

	c, err := a.carts.Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if c == nil || len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	items, subTotal, err := a.snapshotItems(ctx, c)
	if err != nil {
		return nil, err
	}
	shipping := cart.ShippingCharge

	// Coupon: re-evaluated here against the fresh subtotal; the earlier
	// apply call was only a quote.
	discount := decimal.Zero
	if in.CouponCode != "" {
		q, err := a.coupons.Quote(ctx, in.CouponCode, in.UserID, subTotal, subTotal.Add(shipping))
		if err != nil {
			return nil, err
		}
		discount = q.Discount
	}

	// The declared total is trusted net of our own coupon recompute, as
	// the storefront has always done. Disagreement with the re-derived
	// figure is logged for reconciliation, not rejected.
	totalPrice := in.DeclaredTotal.Sub(discount)
	serverTotal := subTotal.Add(shipping).Sub(discount)
	if !totalPrice.Equal(serverTotal) {
		slog.Warn("declared total differs from recomputed total",
			"user", in.UserID, "declared", totalPrice.String(), "recomputed", serverTotal.String())
	}

	orderNumber, err := a.orders.NextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	o := &Order{
		OrderNumber:        orderNumber,
		UserID:             in.UserID,
		Items:              items,
		AddressID:          in.AddressID,
		PaymentMethod:      in.PaymentMethod,
		PaymentStatus:      PaymentPending,
		Status:             StatusPending,
		FinalizationStatus: FinalizationPending,
		SubTotal:           subTotal,
		ShippingCharge:     shipping,
		CouponCode:         in.CouponCode,
		CouponDiscount:     discount,
		TotalPrice:         totalPrice,
	}

	switch in.PaymentMethod {
	case MethodCOD:
		// Payment is collected on delivery, so the payment status stays
		// pending past finalization.
		if totalPrice.GreaterThan(CODLimit) {
			return nil, ErrCODLimitExceeded
		}
		if err := a.persistAndFinalize(ctx, o); err != nil {
			return nil, err
		}
		return &CheckoutResult{Order: o}, nil

	case MethodWallet:
		if _, err := a.wallets.Debit(ctx, in.UserID, totalPrice, "Payment for order "+orderNumber); err != nil {
			return nil, err
		}
		o.PaymentStatus = PaymentSuccess
		if err := a.persistAndFinalize(ctx, o); err != nil {
			return nil, err
		}
		return &CheckoutResult{Order: o}, nil

	case MethodGateway:
		gwID, err := a.gateway.CreateOrder(ctx, totalPrice.Mul(minorUnits).IntPart(), orderNumber)
		if err != nil {
			return nil, fmt.Errorf("gateway order for %s: %w", orderNumber, err)
		}
		o.GatewayOrderID = gwID
		o.Status = StatusAwaitingPayment
		setItemStatuses(o, StatusAwaitingPayment)
		// Placeholder only: no stock, coupon, or cart side effects until
		// the verified callback confirms payment.
		if err := a.orders.Put(ctx, o); err != nil {
			return nil, err
		}
		return &CheckoutResult{Order: o, GatewayOrderID: gwID}, nil

	default:
		return nil, ErrUnknownPaymentMethod
	}
}

func (a *Assembler) persistAndFinalize(ctx context.Context, o *Order) error {
	if err := a.orders.Put(ctx, o); err != nil {
		return err
	}
	if err := a.finalizer.Finalize(ctx, o); err != nil {
		// The order is persisted; the sweep finishes the saga later.
		slog.Error("finalization incomplete", "order", o.OrderNumber, "error", err)
	}
	return nil
}

// snapshotItems reprices every cart line at this instant rather than
// reusing the cart's cached totals.
func (a *Assembler) snapshotItems(ctx context.Context, c *cart.Cart) ([]Item, decimal.Decimal, error) {
	items := make([]Item, 0, len(c.Items))
	subTotal := decimal.Zero

	for _, line := range c.Items {
		p, err := a.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if p == nil {
			return nil, decimal.Zero, fmt.Errorf("%w: %s", ErrProductUnavailable, line.ProductID)
		}
		var cat2 *catalog.Category
		if p.CategoryID != "" {
			cat2, err = a.catalog.GetCategory(ctx, p.CategoryID)
			if err != nil {
				return nil, decimal.Zero, err
			}
		}
		quote := a.pricing.Price(*p, cat2)
		itemTotal := quote.BestPrice.Mul(line.Quantity)

		items = append(items, Item{
			ProductID:       p.ProductID,
			Name:            p.Name,
			ListPrice:       quote.ListPrice,
			DiscountedPrice: quote.BestPrice,
			Quantity:        line.Quantity,
			ItemTotal:       itemTotal,
			Status:          StatusPending,
		})
		subTotal = subTotal.Add(itemTotal)
	}
	return items, subTotal, nil
}

func setItemStatuses(o *Order, status string) {
	for i := range o.Items {
		o.Items[i].Status = status
	}
}
