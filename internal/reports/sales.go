package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evergreen-commerce/evergreen-backend/internal/orders"
)

// OrderLister is the slice of the order store the report reads.
type OrderLister interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]orders.Order, error)
}

// Row is one order flattened for export. Money fields are already
// formatted; the sink only lays them out.
type Row struct {
	Date          string
	OrderNumber   string
	UserID        string
	PaymentMethod string
	Status        string
	SubTotal      string
	Discount      string
	Total         string
}

// Summary aggregates the exported range.
type Summary struct {
	Orders    int
	Cancelled int
	Gross     decimal.Decimal
	Discounts decimal.Decimal
}

// RowSink receives the projected rows. The CSV sink is the default;
// spreadsheet or PDF writers plug in the same way.
type RowSink interface {
	Write(row Row) error
	Flush() error
}

// Sales projects orders in a date range into flat report rows.
type Sales struct {
	store OrderLister
}

// NewSales creates a sales report generator.
func NewSales(store OrderLister) *Sales {
	return &Sales{store: store}
}

// Generate streams the range into the sink and returns the summary.
// Orders that never completed payment are not sales and are skipped.
func (s *Sales) Generate(ctx context.Context, from, to time.Time, sink RowSink) (*Summary, error) {
	list, err := s.store.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Gross: decimal.Zero, Discounts: decimal.Zero}
	for _, o := range list {
		if o.Status == orders.StatusAwaitingPayment || o.Status == orders.StatusFailed {
			continue
		}
		if err := sink.Write(Row{
			Date:          o.CreatedAt.Format("2006-01-02"),
			OrderNumber:   o.OrderNumber,
			UserID:        o.UserID,
			PaymentMethod: o.PaymentMethod,
			Status:        o.Status,
			SubTotal:      o.SubTotal.StringFixed(2),
			Discount:      o.CouponDiscount.StringFixed(2),
			Total:         o.TotalPrice.StringFixed(2),
		}); err != nil {
			return nil, err
		}

		sum.Orders++
		if o.Status == orders.StatusCancelled {
			sum.Cancelled++
			continue
		}
		sum.Gross = sum.Gross.Add(o.TotalPrice)
		sum.Discounts = sum.Discounts.Add(o.CouponDiscount)
	}
	if err := sink.Flush(); err != nil {
		return nil, err
	}
	return sum, nil
}
