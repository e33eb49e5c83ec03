package notify

import (
	"context"
	"log/slog"
)

// Sender delivers customer-facing notifications. The worker consumes
// order events and hands them here; the transport (email, SMS) lives
// behind this boundary.
type Sender interface {
	OrderPlaced(ctx context.Context, userID, orderNumber, amount string) error
	PaymentFailed(ctx context.Context, userID, orderNumber string) error
	RefundIssued(ctx context.Context, userID, orderNumber, amount string) error
}

// LogSender writes notifications to the structured log. It stands in
// for a mail provider in local runs and keeps the worker honest until
// one is wired.
type LogSender struct{}

func (LogSender) OrderPlaced(ctx context.Context, userID, orderNumber, amount string) error {
	slog.Info("notify order placed", "user", userID, "order", orderNumber, "amount", amount)
	return nil
}

func (LogSender) PaymentFailed(ctx context.Context, userID, orderNumber string) error {
	slog.Info("notify payment failed", "user", userID, "order", orderNumber)
	return nil
}

func (LogSender) RefundIssued(ctx context.Context, userID, orderNumber, amount string) error {
	slog.Info("notify refund issued", "user", userID, "order", orderNumber, "amount", amount)
	return nil
}
