package users

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/evergreen-commerce/evergreen-backend/internal/awsx"
)

// Address is a saved shipping address.
type Address struct {
	AddressID string `dynamodbav:"address_id" json:"address_id"`
	Line1     string `dynamodbav:"line1" json:"line1"`
	City      string `dynamodbav:"city" json:"city"`
	State     string `dynamodbav:"state" json:"state"`
	PinCode   string `dynamodbav:"pin_code" json:"pin_code"`
	Phone     string `dynamodbav:"phone,omitempty" json:"phone,omitempty"`
}

// User is the profile document read by the order core. Wallet state
// lives in its own table (see the wallet package).
type User struct {
	UserID       string    `dynamodbav:"user_id" json:"user_id"`
	Name         string    `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Email        string    `dynamodbav:"email,omitempty" json:"email,omitempty"`
	Addresses    []Address `dynamodbav:"addresses,omitempty" json:"addresses,omitempty"`
	OrderNumbers []string  `dynamodbav:"order_numbers,omitempty" json:"order_numbers,omitempty"`
	CreatedAt    time.Time `dynamodbav:"created_at" json:"created_at"`
}

// Address returns the saved address with the given id, or nil.
func (u *User) Address(addressID string) *Address {
	for i := range u.Addresses {
		if u.Addresses[i].AddressID == addressID {
			return &u.Addresses[i]
		}
	}
	return nil
}

// Store encapsulates operations on the users table.
type Store struct {
	client    awsx.DynamoDBAPI
	tableName string
}

// NewStore creates a new users Store.
func NewStore(client awsx.DynamoDBAPI, tableName string) *Store {
	return &Store{client: client, tableName: tableName}
}

// Get fetches a user by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, userID string) (*User, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var u User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}

// Put writes a user document.
func (s *Store) Put(ctx context.Context, u User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// AppendOrder appends an order number to the user's order history.
func (s *Store) AppendOrder(ctx context.Context, userID, orderNumber string) error {
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
		UpdateExpression:    awsString("SET order_numbers = list_append(if_not_exists(order_numbers, :empty), :o)"),
		ConditionExpression: awsString("attribute_exists(user_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":o": &types.AttributeValueMemberL{Value: []types.AttributeValue{
				&types.AttributeValueMemberS{Value: orderNumber},
			}},
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		},
	})
	if err != nil {
		return fmt.Errorf("append order: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
