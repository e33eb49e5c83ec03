package reports

import (
	"encoding/csv"
	"io"
)

var csvHeader = []string{"date", "order_number", "user_id", "payment_method", "status", "sub_total", "discount", "total"}

// CSVSink writes report rows as CSV with a header line.
type CSVSink struct {
	w          *csv.Writer
	headerDone bool
}

// NewCSVSink wraps an io.Writer in a CSV row sink.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

func (s *CSVSink) Write(row Row) error {
	if !s.headerDone {
		if err := s.w.Write(csvHeader); err != nil {
			return err
		}
		s.headerDone = true
	}
	return s.w.Write([]string{
		row.Date, row.OrderNumber, row.UserID, row.PaymentMethod,
		row.Status, row.SubTotal, row.Discount, row.Total,
	})
}

func (s *CSVSink) Flush() error {
	if !s.headerDone {
		if err := s.w.Write(csvHeader); err != nil {
			return err
		}
		s.headerDone = true
	}
	s.w.Flush()
	return s.w.Error()
}
