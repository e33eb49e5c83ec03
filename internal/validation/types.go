package validation

// AddToCartRequest is the payload for POST /cart/items.
type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// UpdateQuantityRequest is the payload for PATCH /cart/items/:productId.
// Quantities move in half steps for loose goods sold by weight.
type UpdateQuantityRequest struct {
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
}

// ApplyCouponRequest is the payload for POST /cart/coupon.
type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

// CheckoutRequest is the payload for POST /orders.
type CheckoutRequest struct {
	AddressID     string  `json:"address_id" validate:"required"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=COD WALLET RAZORPAY"`
	CouponCode    string  `json:"coupon_code,omitempty"`
	TotalPrice    float64 `json:"total_price" validate:"required,gt=0"` // total amount client claims
	TermsAccepted bool    `json:"terms_accepted"`
}

// VerifyPaymentRequest is the payload for POST /payments/verify,
// echoing what the gateway handed the client.
type VerifyPaymentRequest struct {
	GatewayOrderID string `json:"gateway_order_id" validate:"required"`
	PaymentID      string `json:"payment_id" validate:"required"`
	Signature      string `json:"signature" validate:"required"`
}

// PaymentFailedRequest is the payload for POST /payments/failed.
type PaymentFailedRequest struct {
	GatewayOrderID string `json:"gateway_order_id" validate:"required"`
}

// UpdateOrderStatusRequest is the admin payload for PATCH /admin/orders/:orderNumber/status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING PROCESSING SHIPPED DELIVERED CANCELLED FAILED RETURNED EXCHANGED"`
}

// ItemActionRequest opens a return or exchange on one order line.
type ItemActionRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// ItemDecisionRequest resolves a pending return or exchange.
type ItemDecisionRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Reason    string `json:"reason,omitempty"` // required when rejecting
}
