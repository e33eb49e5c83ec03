// Package payment holds the payment-gateway boundary: order creation on
// the provider side and callback signature verification.
package payment

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// Gateway creates provider-side orders. Amounts are in minor currency
// units (paise).
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinorUnits int64, receipt string) (gatewayOrderID string, err error)
}

// RazorpayGateway implements Gateway over the Razorpay SDK.
type RazorpayGateway struct {
	client   *razorpay.Client
	currency string
}

// NewRazorpayGateway builds a gateway client from API credentials.
func NewRazorpayGateway(keyID, keySecret, currency string) *RazorpayGateway {
	if currency == "" {
		currency = "INR"
	}
	return &RazorpayGateway{
		client:   razorpay.NewClient(keyID, keySecret),
		currency: currency,
	}
}

// CreateOrder registers an order with Razorpay and returns its id.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountMinorUnits int64, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amountMinorUnits,
		"currency": g.currency,
		"receipt":  receipt,
	}
	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("create gateway order: %w", err)
	}
	id, ok := body["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("gateway order response missing id: %v", body)
	}
	return id, nil
}
