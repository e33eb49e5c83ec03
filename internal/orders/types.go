package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods.
const (
	MethodCOD     = "COD"
	MethodWallet  = "WALLET"
	MethodGateway = "RAZORPAY"
)

// Order and item statuses.
const (
	StatusAwaitingPayment = "AWAITING_PAYMENT"
	StatusPending         = "PENDING"
	StatusProcessing      = "PROCESSING"
	StatusShipped         = "SHIPPED"
	StatusDelivered       = "DELIVERED"
	StatusCancelled       = "CANCELLED"
	StatusFailed          = "FAILED"
	StatusReturned        = "RETURNED"
	StatusExchanged       = "EXCHANGED"
)

// Payment statuses.
const (
	PaymentPending  = "PENDING"
	PaymentSuccess  = "SUCCESS"
	PaymentFailed   = "FAILED"
	PaymentRefunded = "REFUNDED"
)

// Return/exchange request statuses on an item.
const (
	RequestNone      = ""
	RequestRequested = "REQUESTED"
	RequestApproved  = "APPROVED"
	RequestRejected  = "REJECTED"
)

// Item refund statuses.
const (
	RefundNone      = ""
	RefundCompleted = "COMPLETED"
)

// Finalization saga states.
const (
	FinalizationPending = "PENDING"
	FinalizationDone    = "COMPLETED"
)

// CODLimit caps the total payable on delivery.
var CODLimit = decimal.NewFromInt(1000)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrItemNotFound         = errors.New("order item not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidAddress       = errors.New("invalid shipping address")
	ErrProductUnavailable   = errors.New("product no longer available")
	ErrTermsNotAccepted     = errors.New("terms and conditions not accepted")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrCODLimitExceeded     = errors.New("cash on delivery limit exceeded")
	ErrNotCancellable       = errors.New("order can no longer be cancelled")
	ErrIllegalTransition    = errors.New("illegal status transition")
	ErrAlreadyPaid          = errors.New("order already paid")
	ErrNotGatewayOrder      = errors.New("order has no gateway payment")
	ErrInvalidSignature     = errors.New("invalid gateway signature")
)

// Item is one immutable order line plus its mutable status sub-fields.
// An item is addressed by its product id; a cart holds at most one line
// per product, so the snapshot does too.
type Item struct {
	ProductID       string
	Name            string
	ListPrice       decimal.Decimal
	DiscountedPrice decimal.Decimal
	Quantity        decimal.Decimal
	ItemTotal       decimal.Decimal

	Status string

	ReturnStatus       string
	ReturnReason       string
	ReturnRejectReason string

	ExchangeStatus       string
	ExchangeReason       string
	ExchangeRejectReason string

	RefundStatus string

	// StockAdjusted marks that finalization already decremented stock
	// for this line, so a re-driven saga never decrements twice.
	StockAdjusted bool
}

// Order is the snapshot created once per checkout attempt. It is never
// deleted; lifecycle actions mutate its status fields in place.
type Order struct {
	OrderNumber string
	UserID      string
	Items       []Item

	AddressID string

	PaymentMethod string
	PaymentStatus string
	Status        string

	FinalizationStatus string
	HistoryAppended    bool

	SubTotal       decimal.Decimal
	ShippingCharge decimal.Decimal
	CouponCode     string
	CouponDiscount decimal.Decimal
	TotalPrice     decimal.Decimal

	GatewayOrderID   string
	GatewayPaymentID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FindItem returns the index of the line for productID, or -1.
func (o *Order) FindItem(productID string) int {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
