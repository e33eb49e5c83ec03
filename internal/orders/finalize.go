package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/evergreen-commerce/evergreen-backend/internal/awsx"
)

// Finalizer runs the post-payment half of a checkout as a re-drivable
// saga: the order is persisted in FinalizationPending first, the
// dependent writes (stock, coupon, order history, cart delete) follow,
// and only when every step has succeeded is the order marked
// FinalizationDone. Each step is conditional or flag-guarded so the
// reconciliation sweep can safely re-run a stalled order.
type Finalizer struct {
	orders  OrderStore
	carts   CartSource
	catalog CatalogSource
	coupons CouponLedger
	userDir UserDirectory
	events  EventPublisher
	metrics MetricSink
}

// NewFinalizer wires a Finalizer. events and metrics may be nil.
func NewFinalizer(orders OrderStore, carts CartSource, catalog CatalogSource, coupons CouponLedger, userDir UserDirectory, events EventPublisher, metrics MetricSink) *Finalizer {
	if events == nil {
		events = nopPublisher{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Finalizer{
		orders:  orders,
		carts:   carts,
		catalog: catalog,
		coupons: coupons,
		userDir: userDir,
		events:  events,
		metrics: metrics,
	}
}

// Finalize drives the saga for an already-persisted order. On error the
// order stays FinalizationPending and the sweep retries it later.
func (f *Finalizer) Finalize(ctx context.Context, o *Order) error {
	if o.FinalizationStatus == FinalizationDone {
		return nil
	}

	// Stock: decrement each line once. The per-item flag survives a
	// partial failure, so a re-drive only touches unfinished lines.
	for i := range o.Items {
		if o.Items[i].StockAdjusted {
			continue
		}
		if err := f.catalog.DecrementStock(ctx, o.Items[i].ProductID, o.Items[i].Quantity); err != nil {
			return fmt.Errorf("order %s: stock for %s: %w", o.OrderNumber, o.Items[i].ProductID, err)
		}
		o.Items[i].StockAdjusted = true
		if err := f.orders.Put(ctx, o); err != nil {
			return fmt.Errorf("order %s: persist stock flag: %w", o.OrderNumber, err)
		}
	}

	if o.CouponCode != "" {
		if err := f.coupons.ReserveForOrder(ctx, o.UserID, o.CouponCode, o.OrderNumber); err != nil {
			return fmt.Errorf("order %s: reserve coupon: %w", o.OrderNumber, err)
		}
	}

	if !o.HistoryAppended {
		if err := f.userDir.AppendOrder(ctx, o.UserID, o.OrderNumber); err != nil {
			return fmt.Errorf("order %s: append history: %w", o.OrderNumber, err)
		}
		o.HistoryAppended = true
		if err := f.orders.Put(ctx, o); err != nil {
			return fmt.Errorf("order %s: persist history flag: %w", o.OrderNumber, err)
		}
	}

	if err := f.carts.Delete(ctx, o.UserID); err != nil {
		return fmt.Errorf("order %s: delete cart: %w", o.OrderNumber, err)
	}

	o.FinalizationStatus = FinalizationDone
	if err := f.orders.Put(ctx, o); err != nil {
		return fmt.Errorf("order %s: mark finalized: %w", o.OrderNumber, err)
	}

	if err := f.events.Publish(ctx, awsx.OrderEvent{
		Type:        awsx.EventOrderFinalized,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Amount:      o.TotalPrice.String(),
	}); err != nil {
		slog.Warn("publish order finalized", "order", o.OrderNumber, "error", err)
	}
	f.metrics.Count(ctx, awsx.MetricOrdersPlaced, 1)
	return nil
}

// ResumePending re-drives orders whose finalization stalled before the
// given age. Returns how many orders were completed.
func (f *Finalizer) ResumePending(ctx context.Context, olderThan time.Duration, now time.Time) (int, error) {
	stuck, err := f.orders.ListPendingFinalization(ctx, now.Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if len(stuck) > 0 {
		f.metrics.Count(ctx, awsx.MetricStuckOrders, float64(len(stuck)))
	}

	done := 0
	for i := range stuck {
		o := stuck[i]
		if err := f.Finalize(ctx, &o); err != nil {
			slog.Error("resume finalization", "order", o.OrderNumber, "error", err)
			continue
		}
		done++
	}
	return done, nil
}
