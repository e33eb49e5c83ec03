package awsx

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metric names emitted by the order core.
const (
	MetricOrdersPlaced   = "OrdersPlaced"
	MetricPaymentsFailed = "PaymentsFailed"
	MetricRefundsIssued  = "RefundsIssued"
	MetricStuckOrders    = "StuckFinalizations"
)

// Metrics emits counters to CloudWatch. Emission is best effort: a failed
// put is logged and swallowed so metrics never break a checkout.
type Metrics struct {
	client    CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewMetrics returns a Metrics emitter bound to a namespace.
func NewMetrics(client CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{
		client:    client,
		namespace: namespace,
		nowFunc:   time.Now,
	}
}

// Count emits a single count datapoint for the named metric.
func (m *Metrics) Count(ctx context.Context, name string, value float64) {
	if m == nil || m.client == nil {
		return
	}
	ts := m.nowFunc()
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &m.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Timestamp:  &ts,
				Value:      &value,
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	})
	if err != nil {
		slog.Warn("put metric failed", "metric", name, "error", err)
	}
}
