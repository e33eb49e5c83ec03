package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/evergreen-commerce/evergreen-backend/internal/awsx"
	"github.com/evergreen-commerce/evergreen-backend/internal/notify"
)

// reconcileAge is how long a finalization may sit pending before the
// sweep re-drives it.
const reconcileAge = 15 * time.Minute

// sweeper is the slice of the finalizer the worker drives.
type sweeper interface {
	ResumePending(ctx context.Context, olderThan time.Duration, now time.Time) (int, error)
}

// Processor consumes order events from SQS: customer notifications for
// the business events, and the stalled-finalization sweep on the
// reconcile tick.
type Processor struct {
	sender  notify.Sender
	sweep   sweeper
	nowFunc func() time.Time
}

// NewProcessor creates a worker processor.
func NewProcessor(sender notify.Sender, sweep sweeper) *Processor {
	return &Processor{
		sender:  sender,
		sweep:   sweep,
		nowFunc: time.Now,
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			slog.Error("worker message failed", "message_id", rec.MessageId, "error", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var ev awsx.OrderEvent
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	switch ev.Type {
	case awsx.EventOrderFinalized:
		return p.sender.OrderPlaced(ctx, ev.UserID, ev.OrderNumber, ev.Amount)

	case awsx.EventPaymentFailed:
		return p.sender.PaymentFailed(ctx, ev.UserID, ev.OrderNumber)

	case awsx.EventRefundIssued:
		return p.sender.RefundIssued(ctx, ev.UserID, ev.OrderNumber, ev.Amount)

	case awsx.EventReconcile:
		done, err := p.sweep.ResumePending(ctx, reconcileAge, p.nowFunc())
		if err != nil {
			return fmt.Errorf("finalization sweep: %w", err)
		}
		if done > 0 {
			slog.Info("finalization sweep completed orders", "count", done)
		}
		return nil

	default:
		// Unknown types are dropped, not retried: a redelivery loop
		// cannot fix a producer we do not understand.
		slog.Warn("dropping unknown event type", "type", ev.Type, "order", ev.OrderNumber)
		return nil
	}
}
