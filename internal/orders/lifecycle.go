package orders

import (
	"context"
	"fmt"
)

// Lifecycle moves placed orders through fulfilment, cancellation and
// the return/exchange flows.
type Lifecycle struct {
	orders  OrderStore
	coupons CouponLedger
	refunds *RefundService
}

// NewLifecycle wires a Lifecycle service.
func NewLifecycle(orders OrderStore, coupons CouponLedger, refunds *RefundService) *Lifecycle {
	return &Lifecycle{orders: orders, coupons: coupons, refunds: refunds}
}

func (l *Lifecycle) get(ctx context.Context, orderNumber string) (*Order, error) {
	o, err := l.orders.Get(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// UpdateStatus advances an order along the fulfilment path. Items that
// were tracking the old order status move with it; items on their own
// track (returned, exchanged, cancelled) are left alone.
func (l *Lifecycle) UpdateStatus(ctx context.Context, orderNumber, status string) (*Order, error) {
	o, err := l.get(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, status)
	}

	prev := o.Status
	o.Status = status
	for i := range o.Items {
		if o.Items[i].Status == prev {
			o.Items[i].Status = status
		}
	}
	if status == StatusDelivered && o.PaymentMethod == MethodCOD {
		// Cash changed hands at the door.
		o.PaymentStatus = PaymentSuccess
	}
	if err := l.orders.Put(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Cancel cancels an entire order, refunds the payment where one was
// taken, and releases any coupon so the customer can spend it again.
func (l *Lifecycle) Cancel(ctx context.Context, orderNumber string) (*Order, error) {
	o, err := l.get(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if !Cancellable(o.Status) {
		return nil, fmt.Errorf("%w: status %s", ErrNotCancellable, o.Status)
	}

	o.Status = StatusCancelled
	setItemStatuses(o, StatusCancelled)

	if err := l.refunds.RefundWholeOrder(ctx, o); err != nil {
		return nil, err
	}
	if o.CouponCode != "" {
		if err := l.coupons.Release(ctx, o.UserID, o.CouponCode); err != nil {
			return nil, fmt.Errorf("release coupon for %s: %w", orderNumber, err)
		}
	}

	if err := l.orders.Put(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// RequestReturn opens a return request on one delivered item.
func (l *Lifecycle) RequestReturn(ctx context.Context, orderNumber, productID, reason string) (*Order, error) {
	o, err := l.get(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	idx := o.FindItem(productID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	it := &o.Items[idx]
	if it.Status != StatusDelivered {
		return nil, fmt.Errorf("%w: item is %s, not %s", ErrIllegalTransition, it.Status, StatusDelivered)
	}
	if it.ReturnStatus != RequestNone {
		return nil, fmt.Errorf("return already %s", it.ReturnStatus)
	}

	it.ReturnStatus = RequestRequested
	it.ReturnReason = reason
	if err := l.orders.Put(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ApproveReturn accepts a pending return: the item flips to RETURNED
// and its line total is refunded to the wallet.
func (l *Lifecycle) ApproveReturn(ctx context.Context, orderNumber, productID string) (*Order, error) {
	o, err := l.get(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	idx := o.FindItem(productID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	it := &o.Items[idx]
	if it.ReturnStatus != RequestRequested {
		return nil, fmt.Errorf("no pending return for item %s", productID)
	}

	it.ReturnStatus = RequestApproved
	it.Status = StatusReturned
	if err := l.refunds.RefundItem(ctx, o, idx); err != nil {
		return nil, err
	}
	if allItemsIn(o, StatusReturned) {
		o.Status = StatusReturned
	}

	if err := l.orders.Put(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// RejectReturn declines a pending return with a reason for the customer.
func (l *Lifecycle) RejectReturn(ctx context.Context, orderNumber, productID, reason string) (*Order, error) {
	o, err := l.get(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	idx := o.FindItem(productID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	it := &o.Items[idx]
	if it.ReturnStatus != RequestRequested {
		return nil, fmt.Errorf("no pending return for item %s", productID)
	}

	it.ReturnStatus = RequestRejected
	it.ReturnRejectReason = reason
	if err := l.orders.Put(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// RequestExchange opens an exchange request on one delivered item.
// Exchanges swap goods like-for-like: no wallet or stock movement here.
func (l *Lifecycle) RequestExchange(ctx context.Context, orderNumber, productID, reason string) (*Order, error) {
	o, err := l.get(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	idx := o.FindItem(productID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	it := &o.Items[idx]
	if it.Status != StatusDelivered {
		return nil, fmt.Errorf("%w: item is %s, not %s", ErrIllegalTransition, it.Status, StatusDelivered)
	}
	if it.ExchangeStatus != RequestNone {
		return nil, fmt.Errorf("exchange already %s", it.ExchangeStatus)
	}

	it.ExchangeStatus = RequestRequested
	it.ExchangeReason = reason
	if err := l.orders.Put(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ApproveExchange accepts a pending exchange and marks the item
// EXCHANGED.
func (l *Lifecycle) ApproveExchange(ctx context.Context, orderNumber, productID string) (*Order, error) {
	o, err := l.get(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	idx := o.FindItem(productID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	it := &o.Items[idx]
	if it.ExchangeStatus != RequestRequested {
		return nil, fmt.Errorf("no pending exchange for item %s", productID)
	}

	it.ExchangeStatus = RequestApproved
	it.Status = StatusExchanged
	if allItemsIn(o, StatusExchanged) {
		o.Status = StatusExchanged
	}

	if err := l.orders.Put(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// RejectExchange declines a pending exchange with a reason.
func (l *Lifecycle) RejectExchange(ctx context.Context, orderNumber, productID, reason string) (*Order, error) {
	o, err := l.get(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	idx := o.FindItem(productID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	it := &o.Items[idx]
	if it.ExchangeStatus != RequestRequested {
		return nil, fmt.Errorf("no pending exchange for item %s", productID)
	}

	it.ExchangeStatus = RequestRejected
	it.ExchangeRejectReason = reason
	if err := l.orders.Put(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func allItemsIn(o *Order, status string) bool {
	for i := range o.Items {
		if o.Items[i].Status != status {
			return false
		}
	}
	return true
}
