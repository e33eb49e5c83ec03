package orders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/evergreen-commerce/evergreen-backend/internal/awsx"
)

// Refund scopes.
const (
	ScopeWholeOrder = "ORDER"
	ScopeItem       = "ITEM"
)

// wholeOrderRefundable says which payment methods get money back when
// the entire order is cancelled. COD orders were never paid, so there
// is nothing to return.
var wholeOrderRefundable = map[string]bool{
	MethodWallet:  true,
	MethodGateway: true,
	MethodCOD:     false,
}

// RefundService is the single path through which money returns to a
// customer. Cancellation and return approval both call it; neither
// credits the wallet directly.
type RefundService struct {
	wallets WalletLedger
	events  EventPublisher
	metrics MetricSink
}

// NewRefundService wires a RefundService. events and metrics may be nil.
func NewRefundService(wallets WalletLedger, events EventPublisher, metrics MetricSink) *RefundService {
	if events == nil {
		events = nopPublisher{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &RefundService{wallets: wallets, events: events, metrics: metrics}
}

// RefundWholeOrder credits the full order total back to the wallet when
// the payment method is eligible. It mutates the order's payment status
// but does not persist it; the caller owns the write.
func (r *RefundService) RefundWholeOrder(ctx context.Context, o *Order) error {
	if !wholeOrderRefundable[o.PaymentMethod] {
		return nil
	}
	if o.PaymentStatus != PaymentSuccess {
		return nil
	}

	desc := fmt.Sprintf("Refund for cancelled order %s", o.OrderNumber)
	if _, err := r.wallets.Credit(ctx, o.UserID, o.TotalPrice, desc); err != nil {
		return fmt.Errorf("refund order %s: %w", o.OrderNumber, err)
	}
	o.PaymentStatus = PaymentRefunded

	r.announce(ctx, o, o.TotalPrice)
	return nil
}

// RefundItem credits one returned line back to the wallet. Item-scope
// refunds pay regardless of payment method: by the time a return is
// approved the customer has paid, COD included. The caller persists the
// order.
func (r *RefundService) RefundItem(ctx context.Context, o *Order, idx int) error {
	it := &o.Items[idx]
	if it.RefundStatus == RefundCompleted {
		return nil
	}

	desc := fmt.Sprintf("Refund for returned item %s in order %s", it.Name, o.OrderNumber)
	if _, err := r.wallets.Credit(ctx, o.UserID, it.ItemTotal, desc); err != nil {
		return fmt.Errorf("refund item %s of order %s: %w", it.ProductID, o.OrderNumber, err)
	}
	it.RefundStatus = RefundCompleted

	r.announce(ctx, o, it.ItemTotal)
	return nil
}

func (r *RefundService) announce(ctx context.Context, o *Order, amount decimal.Decimal) {
	if err := r.events.Publish(ctx, awsx.OrderEvent{
		Type:        awsx.EventRefundIssued,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Amount:      amount.String(),
	}); err != nil {
		slog.Warn("publish refund issued", "order", o.OrderNumber, "error", err)
	}
	r.metrics.Count(ctx, awsx.MetricRefundsIssued, 1)
}
