package awsx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Event types published to the order events queue.
const (
	EventOrderFinalized = "order.finalized"
	EventPaymentFailed  = "payment.failed"
	EventRefundIssued   = "refund.issued"
	EventReconcile      = "finalization.reconcile"
)

// OrderEvent is the envelope sent from the API to the worker queue.
type OrderEvent struct {
	Type        string `json:"type"`
	OrderNumber string `json:"order_number,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// Publish marshals the event and sends it to the queue. The event type is
// mirrored into a message attribute so consumers can filter without parsing
// the body.
func (p *Publisher) Publish(ctx context.Context, ev OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msgBody := string(body)

	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &msgBody,
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": {
				DataType:    awsString("String"),
				StringValue: &ev.Type,
			},
		},
	}

	_, err = p.SQS.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
