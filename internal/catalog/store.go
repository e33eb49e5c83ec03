package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/evergreen-commerce/evergreen-backend/internal/awsx"
)

// ErrInsufficientStock is returned when a conditional stock decrement
// fails because the remaining stock is below the requested quantity.
var ErrInsufficientStock = errors.New("insufficient stock")

// Store encapsulates operations on the products and categories tables.
type Store struct {
	client        awsx.DynamoDBAPI
	productsTable string
	categoryTable string
}

// NewStore creates a new catalog Store.
func NewStore(client awsx.DynamoDBAPI, productsTable, categoryTable string) *Store {
	return &Store{
		client:        client,
		productsTable: productsTable,
		categoryTable: categoryTable,
	}
}

// Money attributes persist as strings; stock and purchase_count stay
// numeric so update expressions can do conditional arithmetic on them.
type productRecord struct {
	ProductID     string       `dynamodbav:"product_id"`
	Name          string       `dynamodbav:"name,omitempty"`
	Price         string       `dynamodbav:"price"`
	Stock         float64      `dynamodbav:"stock"`
	PurchaseCount float64      `dynamodbav:"purchase_count,omitempty"`
	CategoryID    string       `dynamodbav:"category_id,omitempty"`
	Offer         *offerRecord `dynamodbav:"offer,omitempty"`
}

type offerRecord struct {
	Amount      string     `dynamodbav:"amount,omitempty"`
	Percent     string     `dynamodbav:"percent,omitempty"`
	MinPurchase string     `dynamodbav:"min_purchase,omitempty"`
	Active      bool       `dynamodbav:"active"`
	ExpiresAt   *time.Time `dynamodbav:"expires_at,omitempty"`
}

type categoryRecord struct {
	CategoryID string       `dynamodbav:"category_id"`
	Name       string       `dynamodbav:"name,omitempty"`
	Offer      *offerRecord `dynamodbav:"offer,omitempty"`
}

// GetProduct fetches a product by id. Returns (nil, nil) if not found.
func (s *Store) GetProduct(ctx context.Context, productID string) (*Product, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.productsTable,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec productRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}
	p := rec.toProduct()
	return &p, nil
}

// GetCategory fetches a category by id. Returns (nil, nil) if not found.
func (s *Store) GetCategory(ctx context.Context, categoryID string) (*Category, error) {
	if categoryID == "" {
		return nil, nil
	}
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.categoryTable,
		Key: map[string]types.AttributeValue{
			"category_id": &types.AttributeValueMemberS{Value: categoryID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec categoryRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal category: %w", err)
	}
	return &Category{
		CategoryID: rec.CategoryID,
		Name:       rec.Name,
		Offer:      rec.Offer.toOffer(),
	}, nil
}

// PutProduct writes a product document (admin catalog management).
func (s *Store) PutProduct(ctx context.Context, p Product) error {
	item, err := attributevalue.MarshalMap(toProductRecord(p))
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.productsTable,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}

// PutCategory writes a category document.
func (s *Store) PutCategory(ctx context.Context, c Category) error {
	rec := categoryRecord{
		CategoryID: c.CategoryID,
		Name:       c.Name,
		Offer:      toOfferRecord(c.Offer),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal category: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.categoryTable,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put category: %w", err)
	}
	return nil
}

// DecrementStock subtracts qty from stock and adds it to purchase_count
// in one conditional update. The condition `stock >= :q` keeps stock
// non-negative even when concurrent orders race on the same product.
func (s *Store) DecrementStock(ctx context.Context, productID string, qty decimal.Decimal) error {
	input := &dyn.UpdateItemInput{
		TableName: &s.productsTable,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
		UpdateExpression:    awsString("SET stock = stock - :q, purchase_count = if_not_exists(purchase_count, :zero) + :q"),
		ConditionExpression: awsString("attribute_exists(product_id) AND stock >= :q"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q":    &types.AttributeValueMemberN{Value: qty.String()},
			":zero": &types.AttributeValueMemberN{Value: "0"},
		},
	}
	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return ErrInsufficientStock
		}
		return fmt.Errorf("decrement stock: %w", err)
	}
	return nil
}

func (r productRecord) toProduct() Product {
	return Product{
		ProductID:     r.ProductID,
		Name:          r.Name,
		Price:         parseDec(r.Price),
		Stock:         decimal.NewFromFloat(r.Stock),
		PurchaseCount: decimal.NewFromFloat(r.PurchaseCount),
		CategoryID:    r.CategoryID,
		Offer:         r.Offer.toOffer(),
	}
}

func toProductRecord(p Product) productRecord {
	return productRecord{
		ProductID:     p.ProductID,
		Name:          p.Name,
		Price:         p.Price.String(),
		Stock:         p.Stock.InexactFloat64(),
		PurchaseCount: p.PurchaseCount.InexactFloat64(),
		CategoryID:    p.CategoryID,
		Offer:         toOfferRecord(p.Offer),
	}
}

func (r *offerRecord) toOffer() *Offer {
	if r == nil {
		return nil
	}
	return &Offer{
		Amount:      parseDec(r.Amount),
		Percent:     parseDec(r.Percent),
		MinPurchase: parseDec(r.MinPurchase),
		Active:      r.Active,
		ExpiresAt:   r.ExpiresAt,
	}
}

func toOfferRecord(o *Offer) *offerRecord {
	if o == nil {
		return nil
	}
	return &offerRecord{
		Amount:      o.Amount.String(),
		Percent:     o.Percent.String(),
		MinPurchase: o.MinPurchase.String(),
		Active:      o.Active,
		ExpiresAt:   o.ExpiresAt,
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
