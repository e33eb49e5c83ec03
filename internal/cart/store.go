package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/evergreen-commerce/evergreen-backend/internal/awsx"
)

// Store persists carts as single documents keyed by user id.
type Store struct {
	client    awsx.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new cart Store.
func NewStore(client awsx.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

type cartRecord struct {
	UserID         string       `dynamodbav:"user_id"`
	Items          []itemRecord `dynamodbav:"items,omitempty"`
	SubTotal       string       `dynamodbav:"sub_total"`
	ShippingCharge string       `dynamodbav:"shipping_charge"`
	TotalPrice     string       `dynamodbav:"total_price"`
	CreatedAt      time.Time    `dynamodbav:"created_at"`
	UpdatedAt      time.Time    `dynamodbav:"updated_at"`
}

type itemRecord struct {
	ProductID string `dynamodbav:"product_id"`
	Name      string `dynamodbav:"name,omitempty"`
	ListPrice string `dynamodbav:"list_price"`
	UnitPrice string `dynamodbav:"unit_price"`
	Quantity  string `dynamodbav:"quantity"`
	ItemTotal string `dynamodbav:"item_total"`
}

// Get fetches the user's cart. Returns (nil, nil) if the user has none.
func (s *Store) Get(ctx context.Context, userID string) (*Cart, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec cartRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	c := rec.toCart()
	return &c, nil
}

// Put writes the whole cart document.
func (s *Store) Put(ctx context.Context, c *Cart) error {
	now := s.nowFunc()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	item, err := attributevalue.MarshalMap(toCartRecord(c))
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put cart: %w", err)
	}
	return nil
}

// Delete removes the user's cart document. Deleting an absent cart is
// not an error; finalization may be re-driven.
func (s *Store) Delete(ctx context.Context, userID string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

func (r cartRecord) toCart() Cart {
	items := make([]Item, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			ListPrice: parseDec(it.ListPrice),
			UnitPrice: parseDec(it.UnitPrice),
			Quantity:  parseDec(it.Quantity),
			ItemTotal: parseDec(it.ItemTotal),
		})
	}
	return Cart{
		UserID:         r.UserID,
		Items:          items,
		SubTotal:       parseDec(r.SubTotal),
		ShippingCharge: parseDec(r.ShippingCharge),
		TotalPrice:     parseDec(r.TotalPrice),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func toCartRecord(c *Cart) cartRecord {
	items := make([]itemRecord, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, itemRecord{
			ProductID: it.ProductID,
			Name:      it.Name,
			ListPrice: it.ListPrice.String(),
			UnitPrice: it.UnitPrice.String(),
			Quantity:  it.Quantity.String(),
			ItemTotal: it.ItemTotal.String(),
		})
	}
	return cartRecord{
		UserID:         c.UserID,
		Items:          items,
		SubTotal:       c.SubTotal.String(),
		ShippingCharge: c.ShippingCharge.String(),
		TotalPrice:     c.TotalPrice.String(),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
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
