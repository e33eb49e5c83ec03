package orders

import (
	"context"
	"log/slog"

	"github.com/evergreen-commerce/evergreen-backend/internal/awsx"
)

// Confirmation resolves gateway checkouts from the provider callback.
type Confirmation struct {
	orders    OrderStore
	verifier  SignatureVerifier
	finalizer *Finalizer
	events    EventPublisher
	metrics   MetricSink
}

// NewConfirmation wires a Confirmation. events and metrics may be nil.
func NewConfirmation(orders OrderStore, verifier SignatureVerifier, finalizer *Finalizer, events EventPublisher, metrics MetricSink) *Confirmation {
	if events == nil {
		events = nopPublisher{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Confirmation{
		orders:    orders,
		verifier:  verifier,
		finalizer: finalizer,
		events:    events,
		metrics:   metrics,
	}
}

// Confirm verifies the callback signature and promotes the placeholder
// order to PENDING. The signature check runs before any lookup so an
// unauthenticated caller learns nothing about which order ids exist.
func (c *Confirmation) Confirm(ctx context.Context, gatewayOrderID, paymentID, signature string) (*Order, error) {
	if !c.verifier.Verify(gatewayOrderID, paymentID, signature) {
		return nil, ErrInvalidSignature
	}

	o, err := c.orders.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if o.PaymentStatus == PaymentSuccess {
		// Duplicate callback; the first one already did the work.
		return o, nil
	}
	if !CanTransition(o.Status, StatusPending) {
		return nil, ErrIllegalTransition
	}

	o.Status = StatusPending
	setItemStatuses(o, StatusPending)
	o.PaymentStatus = PaymentSuccess
	o.GatewayPaymentID = paymentID
	if err := c.orders.Put(ctx, o); err != nil {
		return nil, err
	}

	if err := c.finalizer.Finalize(ctx, o); err != nil {
		// Paid but not finalized; the sweep picks it up.
		slog.Error("finalization incomplete", "order", o.OrderNumber, "error", err)
	}
	return o, nil
}

// Fail marks a gateway order FAILED after the provider reported an
// unsuccessful payment. The order can be retried later.
func (c *Confirmation) Fail(ctx context.Context, gatewayOrderID string) (*Order, error) {
	o, err := c.orders.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if o.PaymentStatus == PaymentSuccess {
		return nil, ErrAlreadyPaid
	}
	if o.Status == StatusFailed {
		return o, nil
	}
	if !CanTransition(o.Status, StatusFailed) {
		return nil, ErrIllegalTransition
	}

	o.Status = StatusFailed
	setItemStatuses(o, StatusFailed)
	o.PaymentStatus = PaymentFailed
	if err := c.orders.Put(ctx, o); err != nil {
		return nil, err
	}

	if err := c.events.Publish(ctx, awsx.OrderEvent{
		Type:        awsx.EventPaymentFailed,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Amount:      o.TotalPrice.String(),
	}); err != nil {
		slog.Warn("publish payment failed", "order", o.OrderNumber, "error", err)
	}
	c.metrics.Count(ctx, awsx.MetricPaymentsFailed, 1)
	return o, nil
}

// RetryPayment hands back the gateway order id for a failed gateway
// checkout so the client can reopen the payment widget without creating
// a second order.
func (c *Confirmation) RetryPayment(ctx context.Context, orderNumber string) (*Order, error) {
	o, err := c.orders.Get(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if o.PaymentStatus == PaymentSuccess {
		return nil, ErrAlreadyPaid
	}
	if o.GatewayOrderID == "" {
		return nil, ErrNotGatewayOrder
	}
	return o, nil
}
