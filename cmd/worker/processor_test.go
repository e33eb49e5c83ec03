package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

type recordingSender struct {
	placed  []string
	failed  []string
	refunds []string
}

func (r *recordingSender) OrderPlaced(ctx context.Context, userID, orderNumber, amount string) error {
	r.placed = append(r.placed, orderNumber)
	return nil
}

func (r *recordingSender) PaymentFailed(ctx context.Context, userID, orderNumber string) error {
	r.failed = append(r.failed, orderNumber)
	return nil
}

func (r *recordingSender) RefundIssued(ctx context.Context, userID, orderNumber, amount string) error {
	r.refunds = append(r.refunds, orderNumber)
	return nil
}

type stubSweeper struct {
	calls int
	err   error
}

func (s *stubSweeper) ResumePending(ctx context.Context, olderThan time.Duration, now time.Time) (int, error) {
	s.calls++
	return 2, s.err
}

func sqsEvent(bodies ...string) events.SQSEvent {
	ev := events.SQSEvent{}
	for _, b := range bodies {
		ev.Records = append(ev.Records, events.SQSMessage{Body: b})
	}
	return ev
}

func TestHandle_RoutesEventsToSender(t *testing.T) {
	sender := &recordingSender{}
	sweep := &stubSweeper{}
	p := NewProcessor(sender, sweep)

	err := p.Handle(context.Background(), sqsEvent(
		`{"type":"order.finalized","order_number":"ORD-2026-00001","user_id":"u1","amount":"120"}`,
		`{"type":"payment.failed","order_number":"ORD-2026-00002","user_id":"u2"}`,
		`{"type":"refund.issued","order_number":"ORD-2026-00003","user_id":"u3","amount":"55"}`,
	))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(sender.placed) != 1 || sender.placed[0] != "ORD-2026-00001" {
		t.Errorf("placed = %v", sender.placed)
	}
	if len(sender.failed) != 1 || sender.failed[0] != "ORD-2026-00002" {
		t.Errorf("failed = %v", sender.failed)
	}
	if len(sender.refunds) != 1 || sender.refunds[0] != "ORD-2026-00003" {
		t.Errorf("refunds = %v", sender.refunds)
	}
	if sweep.calls != 0 {
		t.Errorf("sweep ran %d times without a reconcile event", sweep.calls)
	}
}

func TestHandle_ReconcileRunsSweep(t *testing.T) {
	sweep := &stubSweeper{}
	p := NewProcessor(&recordingSender{}, sweep)

	if err := p.Handle(context.Background(), sqsEvent(`{"type":"finalization.reconcile"}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sweep.calls != 1 {
		t.Errorf("sweep calls = %d, want 1", sweep.calls)
	}
}

func TestHandle_SweepErrorRetries(t *testing.T) {
	sweep := &stubSweeper{err: errors.New("dynamo down")}
	p := NewProcessor(&recordingSender{}, sweep)

	if err := p.Handle(context.Background(), sqsEvent(`{"type":"finalization.reconcile"}`)); err == nil {
		t.Fatal("expected error so the message is retried, got nil")
	}
}

func TestHandle_UnknownTypeDropped(t *testing.T) {
	p := NewProcessor(&recordingSender{}, &stubSweeper{})

	if err := p.Handle(context.Background(), sqsEvent(`{"type":"mystery.event"}`)); err != nil {
		t.Fatalf("unknown event must not be retried: %v", err)
	}
}

func TestHandle_MalformedBodyFails(t *testing.T) {
	p := NewProcessor(&recordingSender{}, &stubSweeper{})

	if err := p.Handle(context.Background(), sqsEvent(`{not json`)); err == nil {
		t.Fatal("expected error for malformed body, got nil")
	}
}
