package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/shopspring/decimal"

	"github.com/evergreen-commerce/evergreen-backend/internal/awsx"
)

// Store encapsulates the coupons table and the per-user used-coupon set.
type Store struct {
	client     awsx.DynamoDBAPI
	couponsTbl string
	usedTbl    string
	nowFunc    func() time.Time
}

// NewStore creates a new coupon Store.
func NewStore(client awsx.DynamoDBAPI, couponsTable, usedTable string) *Store {
	return &Store{
		client:     client,
		couponsTbl: couponsTable,
		usedTbl:    usedTable,
		nowFunc:    time.Now,
	}
}

type couponRecord struct {
	Code        string    `dynamodbav:"code"`
	Kind        string    `dynamodbav:"kind"`
	Value       string    `dynamodbav:"value"`
	MinPurchase string    `dynamodbav:"min_purchase,omitempty"`
	ExpiresAt   time.Time `dynamodbav:"expires_at"`
	Active      bool      `dynamodbav:"active"`
}

type usedRecord struct {
	UserCoupon  string    `dynamodbav:"user_coupon"` // PK: userID#code
	UserID      string    `dynamodbav:"user_id"`
	Code        string    `dynamodbav:"code"`
	OrderNumber string    `dynamodbav:"order_number,omitempty"`
	UsedAt      time.Time `dynamodbav:"used_at"`
}

func usedKey(userID, code string) string { return userID + "#" + code }

// GetCoupon fetches a coupon by code. Returns (nil, nil) if not found.
func (s *Store) GetCoupon(ctx context.Context, code string) (*Coupon, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.couponsTbl,
		Key: map[string]types.AttributeValue{
			"code": &types.AttributeValueMemberS{Value: code},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec couponRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal coupon: %w", err)
	}
	return &Coupon{
		Code:        rec.Code,
		Kind:        Kind(rec.Kind),
		Value:       parseDec(rec.Value),
		MinPurchase: parseDec(rec.MinPurchase),
		ExpiresAt:   rec.ExpiresAt,
		Active:      rec.Active,
	}, nil
}

// PutCoupon writes a coupon document (admin coupon management).
func (s *Store) PutCoupon(ctx context.Context, c Coupon) error {
	rec := couponRecord{
		Code:        c.Code,
		Kind:        string(c.Kind),
		Value:       c.Value.String(),
		MinPurchase: c.MinPurchase.String(),
		ExpiresAt:   c.ExpiresAt,
		Active:      c.Active,
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal coupon: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.couponsTbl,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put coupon: %w", err)
	}
	return nil
}

// IsUsed reports whether the user has already spent the coupon.
func (s *Store) IsUsed(ctx context.Context, userID, code string) (bool, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.usedTbl,
		Key: map[string]types.AttributeValue{
			"user_coupon": &types.AttributeValueMemberS{Value: usedKey(userID, code)},
		},
	})
	if err != nil {
		return false, fmt.Errorf("get used coupon: %w", err)
	}
	return len(out.Item) > 0, nil
}

// Reserve records the coupon as spent by the user. The conditional put
// makes the reservation first-wins under concurrent checkouts; a lost
// race surfaces as ErrAlreadyUsed.
func (s *Store) Reserve(ctx context.Context, userID, code, orderNumber string) error {
	rec := usedRecord{
		UserCoupon:  usedKey(userID, code),
		UserID:      userID,
		Code:        code,
		OrderNumber: orderNumber,
		UsedAt:      s.nowFunc(),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal used coupon: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.usedTbl,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(user_coupon)"),
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrAlreadyUsed
		}
		return fmt.Errorf("reserve coupon: %w", err)
	}
	return nil
}

// ReserveForOrder reserves the coupon but treats a reservation held by
// the same order as success, so finalization can be re-driven.
func (s *Store) ReserveForOrder(ctx context.Context, userID, code, orderNumber string) error {
	err := s.Reserve(ctx, userID, code, orderNumber)
	if !errors.Is(err, ErrAlreadyUsed) {
		return err
	}
	out, getErr := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.usedTbl,
		Key: map[string]types.AttributeValue{
			"user_coupon": &types.AttributeValueMemberS{Value: usedKey(userID, code)},
		},
	})
	if getErr != nil {
		return fmt.Errorf("get used coupon: %w", getErr)
	}
	var rec usedRecord
	if umErr := attributevalue.UnmarshalMap(out.Item, &rec); umErr != nil {
		return fmt.Errorf("unmarshal used coupon: %w", umErr)
	}
	if rec.OrderNumber == orderNumber {
		return nil
	}
	return err
}

// Release removes the user's reservation, letting the coupon be reused
// after an order cancellation.
func (s *Store) Release(ctx context.Context, userID, code string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.usedTbl,
		Key: map[string]types.AttributeValue{
			"user_coupon": &types.AttributeValueMemberS{Value: usedKey(userID, code)},
		},
	})
	if err != nil {
		return fmt.Errorf("release coupon: %w", err)
	}
	return nil
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
