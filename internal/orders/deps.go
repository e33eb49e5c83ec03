package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evergreen-commerce/evergreen-backend/internal/awsx"
	"github.com/evergreen-commerce/evergreen-backend/internal/cart"
	"github.com/evergreen-commerce/evergreen-backend/internal/catalog"
	"github.com/evergreen-commerce/evergreen-backend/internal/coupon"
	"github.com/evergreen-commerce/evergreen-backend/internal/users"
	"github.com/evergreen-commerce/evergreen-backend/internal/wallet"
)

// Collaborator contracts consumed by the order services. The concrete
// stores satisfy them; tests substitute in-memory fakes.

// OrderStore persists orders and mints order numbers.
type OrderStore interface {
	NextOrderNumber(ctx context.Context) (string, error)
	Put(ctx context.Context, o *Order) error
	Get(ctx context.Context, orderNumber string) (*Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error)
	ListPendingFinalization(ctx context.Context, cutoff time.Time) ([]Order, error)
}

// CartSource reads and clears the user's cart.
type CartSource interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
	Delete(ctx context.Context, userID string) error
}

// CatalogSource reads products/categories and adjusts stock.
type CatalogSource interface {
	GetProduct(ctx context.Context, productID string) (*catalog.Product, error)
	GetCategory(ctx context.Context, categoryID string) (*catalog.Category, error)
	DecrementStock(ctx context.Context, productID string, qty decimal.Decimal) error
}

// CouponQuoter re-evaluates a coupon at checkout time.
type CouponQuoter interface {
	Quote(ctx context.Context, code, userID string, cartSubTotal, cartTotal decimal.Decimal) (*coupon.Quote, error)
}

// CouponLedger records and releases spent coupons.
type CouponLedger interface {
	ReserveForOrder(ctx context.Context, userID, code, orderNumber string) error
	Release(ctx context.Context, userID, code string) error
}

// WalletLedger debits and credits the user wallet.
type WalletLedger interface {
	Debit(ctx context.Context, userID string, amount decimal.Decimal, description string) (*wallet.Transaction, error)
	Credit(ctx context.Context, userID string, amount decimal.Decimal, description string) (*wallet.Transaction, error)
}

// UserDirectory reads user profiles and appends order history.
type UserDirectory interface {
	Get(ctx context.Context, userID string) (*users.User, error)
	AppendOrder(ctx context.Context, userID, orderNumber string) error
}

// SignatureVerifier checks gateway callback signatures.
type SignatureVerifier interface {
	Verify(gatewayOrderID, paymentID, signature string) bool
}

// EventPublisher hands order events to the worker queue.
type EventPublisher interface {
	Publish(ctx context.Context, ev awsx.OrderEvent) error
}

// MetricSink counts business events. awsx.Metrics satisfies it.
type MetricSink interface {
	Count(ctx context.Context, name string, value float64)
}

// nopPublisher and nopMetrics keep the services usable without a queue
// or CloudWatch wired (local runs, tests).

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, ev awsx.OrderEvent) error { return nil }

type nopMetrics struct{}

func (nopMetrics) Count(ctx context.Context, name string, value float64) {}
