package orders

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/evergreen-commerce/evergreen-backend/internal/awsx"
)

// Index names on the orders table.
const (
	gatewayOrderIndex = "gateway_order_id-index"
	userOrdersIndex   = "user_id-index"
)

// orderCounterKey is the single counter document driving the
// human-readable order sequence.
const orderCounterKey = "orders"

// Store encapsulates the orders table and the order-number counter.
type Store struct {
	client      awsx.DynamoDBAPI
	ordersTable string
	counterTbl  string
	nowFunc     func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client awsx.DynamoDBAPI, ordersTable, counterTable string) *Store {
	return &Store{
		client:      client,
		ordersTable: ordersTable,
		counterTbl:  counterTable,
		nowFunc:     time.Now,
	}
}

type orderItemRecord struct {
	ProductID       string `dynamodbav:"product_id"`
	Name            string `dynamodbav:"name,omitempty"`
	ListPrice       string `dynamodbav:"list_price"`
	DiscountedPrice string `dynamodbav:"discounted_price"`
	Quantity        string `dynamodbav:"quantity"`
	ItemTotal       string `dynamodbav:"item_total"`

	Status string `dynamodbav:"status"`

	ReturnStatus       string `dynamodbav:"return_status,omitempty"`
	ReturnReason       string `dynamodbav:"return_reason,omitempty"`
	ReturnRejectReason string `dynamodbav:"return_reject_reason,omitempty"`

	ExchangeStatus       string `dynamodbav:"exchange_status,omitempty"`
	ExchangeReason       string `dynamodbav:"exchange_reason,omitempty"`
	ExchangeRejectReason string `dynamodbav:"exchange_reject_reason,omitempty"`

	RefundStatus  string `dynamodbav:"refund_status,omitempty"`
	StockAdjusted bool   `dynamodbav:"stock_adjusted,omitempty"`
}

type orderRecord struct {
	OrderNumber string            `dynamodbav:"order_number"`
	UserID      string            `dynamodbav:"user_id"`
	Items       []orderItemRecord `dynamodbav:"items"`

	AddressID string `dynamodbav:"address_id,omitempty"`

	PaymentMethod string `dynamodbav:"payment_method"`
	PaymentStatus string `dynamodbav:"payment_status"`
	Status        string `dynamodbav:"order_status"`

	FinalizationStatus string `dynamodbav:"finalization_status"`
	HistoryAppended    bool   `dynamodbav:"history_appended,omitempty"`

	SubTotal       string `dynamodbav:"sub_total"`
	ShippingCharge string `dynamodbav:"shipping_charge"`
	CouponCode     string `dynamodbav:"coupon_code,omitempty"`
	CouponDiscount string `dynamodbav:"coupon_discount,omitempty"`
	TotalPrice     string `dynamodbav:"total_price"`

	GatewayOrderID   string `dynamodbav:"gateway_order_id,omitempty"`
	GatewayPaymentID string `dynamodbav:"gateway_payment_id,omitempty"`

	// RFC3339 strings so range filters compare lexicographically.
	CreatedAt string `dynamodbav:"created_at"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// NextOrderNumber atomically increments the counter document and
// formats the human-readable order number. The single-document ADD is
// what keeps concurrent checkouts from minting duplicates.
func (s *Store) NextOrderNumber(ctx context.Context) (string, error) {
	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.counterTbl,
		Key: map[string]types.AttributeValue{
			"counter_name": &types.AttributeValueMemberS{Value: orderCounterKey},
		},
		UpdateExpression: awsString("ADD seq :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return "", fmt.Errorf("increment order counter: %w", err)
	}
	seqAttr, ok := out.Attributes["seq"].(*types.AttributeValueMemberN)
	if !ok {
		return "", fmt.Errorf("order counter returned no sequence")
	}
	seq, err := strconv.ParseInt(seqAttr.Value, 10, 64)
	if err != nil {
		return "", fmt.Errorf("parse order sequence: %w", err)
	}
	return fmt.Sprintf("ORD-%d-%05d", s.nowFunc().Year(), seq), nil
}

// Put writes the whole order document.
func (s *Store) Put(ctx context.Context, o *Order) error {
	now := s.nowFunc()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	item, err := attributevalue.MarshalMap(toOrderRecord(o))
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.ordersTable,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put order: %w", err)
	}
	return nil
}

// Get fetches an order by order number. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderNumber string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.ordersTable,
		Key: map[string]types.AttributeValue{
			"order_number": &types.AttributeValueMemberS{Value: orderNumber},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec orderRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	o := rec.toOrder()
	return &o, nil
}

// GetByGatewayOrderID resolves a gateway callback to our order.
// Returns (nil, nil) if no order references the gateway id.
func (s *Store) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.ordersTable,
		IndexName:              awsString(gatewayOrderIndex),
		KeyConditionExpression: awsString("gateway_order_id = :g"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":g": &types.AttributeValueMemberS{Value: gatewayOrderID},
		},
		Limit: awsInt32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query by gateway order id: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	var rec orderRecord
	if err := attributevalue.UnmarshalMap(out.Items[0], &rec); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	o := rec.toOrder()
	return &o, nil
}

// ListByUser returns the user's orders, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.ordersTable,
		IndexName:              awsString(userOrdersIndex),
		KeyConditionExpression: awsString("user_id = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: awsBool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("query orders by user: %w", err)
	}
	return unmarshalOrders(out.Items)
}

// ListPendingFinalization returns finalizable orders whose saga stalled
// before the cutoff. Orders still waiting on the payment gateway are
// not stalled and are excluded.
func (s *Store) ListPendingFinalization(ctx context.Context, cutoff time.Time) ([]Order, error) {
	out, err := s.client.Scan(ctx, &dyn.ScanInput{
		TableName: &s.ordersTable,
		FilterExpression: awsString(
			"finalization_status = :p AND updated_at < :cutoff AND " +
				"order_status <> :awaiting AND order_status <> :failed AND order_status <> :cancelled"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p":         &types.AttributeValueMemberS{Value: FinalizationPending},
			":cutoff":    &types.AttributeValueMemberS{Value: cutoff.UTC().Format(time.RFC3339)},
			":awaiting":  &types.AttributeValueMemberS{Value: StatusAwaitingPayment},
			":failed":    &types.AttributeValueMemberS{Value: StatusFailed},
			":cancelled": &types.AttributeValueMemberS{Value: StatusCancelled},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scan pending finalizations: %w", err)
	}
	return unmarshalOrders(out.Items)
}

// ListBetween returns orders created within [from, to], for reporting.
func (s *Store) ListBetween(ctx context.Context, from, to time.Time) ([]Order, error) {
	out, err := s.client.Scan(ctx, &dyn.ScanInput{
		TableName:        &s.ordersTable,
		FilterExpression: awsString("created_at BETWEEN :from AND :to"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from": &types.AttributeValueMemberS{Value: from.UTC().Format(time.RFC3339)},
			":to":   &types.AttributeValueMemberS{Value: to.UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scan orders by date: %w", err)
	}
	return unmarshalOrders(out.Items)
}

func unmarshalOrders(items []map[string]types.AttributeValue) ([]Order, error) {
	orders := make([]Order, 0, len(items))
	for _, it := range items {
		var rec orderRecord
		if err := attributevalue.UnmarshalMap(it, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
		orders = append(orders, rec.toOrder())
	}
	return orders, nil
}

func toOrderRecord(o *Order) orderRecord {
	items := make([]orderItemRecord, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemRecord{
			ProductID:            it.ProductID,
			Name:                 it.Name,
			ListPrice:            it.ListPrice.String(),
			DiscountedPrice:      it.DiscountedPrice.String(),
			Quantity:             it.Quantity.String(),
			ItemTotal:            it.ItemTotal.String(),
			Status:               it.Status,
			ReturnStatus:         it.ReturnStatus,
			ReturnReason:         it.ReturnReason,
			ReturnRejectReason:   it.ReturnRejectReason,
			ExchangeStatus:       it.ExchangeStatus,
			ExchangeReason:       it.ExchangeReason,
			ExchangeRejectReason: it.ExchangeRejectReason,
			RefundStatus:         it.RefundStatus,
			StockAdjusted:        it.StockAdjusted,
		})
	}
	return orderRecord{
		OrderNumber:        o.OrderNumber,
		UserID:             o.UserID,
		Items:              items,
		AddressID:          o.AddressID,
		PaymentMethod:      o.PaymentMethod,
		PaymentStatus:      o.PaymentStatus,
		Status:             o.Status,
		FinalizationStatus: o.FinalizationStatus,
		HistoryAppended:    o.HistoryAppended,
		SubTotal:           o.SubTotal.String(),
		ShippingCharge:     o.ShippingCharge.String(),
		CouponCode:         o.CouponCode,
		CouponDiscount:     o.CouponDiscount.String(),
		TotalPrice:         o.TotalPrice.String(),
		GatewayOrderID:     o.GatewayOrderID,
		GatewayPaymentID:   o.GatewayPaymentID,
		CreatedAt:          o.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          o.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (r orderRecord) toOrder() Order {
	items := make([]Item, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, Item{
			ProductID:            it.ProductID,
			Name:                 it.Name,
			ListPrice:            parseDec(it.ListPrice),
			DiscountedPrice:      parseDec(it.DiscountedPrice),
			Quantity:             parseDec(it.Quantity),
			ItemTotal:            parseDec(it.ItemTotal),
			Status:               it.Status,
			ReturnStatus:         it.ReturnStatus,
			ReturnReason:         it.ReturnReason,
			ReturnRejectReason:   it.ReturnRejectReason,
			ExchangeStatus:       it.ExchangeStatus,
			ExchangeReason:       it.ExchangeReason,
			ExchangeRejectReason: it.ExchangeRejectReason,
			RefundStatus:         it.RefundStatus,
			StockAdjusted:        it.StockAdjusted,
		})
	}
	createdAt, _ := time.Parse(time.RFC3339, r.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, r.UpdatedAt)
	return Order{
		OrderNumber:        r.OrderNumber,
		UserID:             r.UserID,
		Items:              items,
		AddressID:          r.AddressID,
		PaymentMethod:      r.PaymentMethod,
		PaymentStatus:      r.PaymentStatus,
		Status:             r.Status,
		FinalizationStatus: r.FinalizationStatus,
		HistoryAppended:    r.HistoryAppended,
		SubTotal:           parseDec(r.SubTotal),
		ShippingCharge:     parseDec(r.ShippingCharge),
		CouponCode:         r.CouponCode,
		CouponDiscount:     parseDec(r.CouponDiscount),
		TotalPrice:         parseDec(r.TotalPrice),
		GatewayOrderID:     r.GatewayOrderID,
		GatewayPaymentID:   r.GatewayPaymentID,
		CreatedAt:          createdAt,
		UpdatedAt:          updatedAt,
	}
}

func parseDec(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func awsString(s string) *string { return &s }
func awsInt32(i int32) *int32    { return &i }
func awsBool(b bool) *bool       { return &b }
