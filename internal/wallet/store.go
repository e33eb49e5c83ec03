package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/evergreen-commerce/evergreen-backend/internal/awsx"
)

// Store encapsulates the wallets table. The balance attribute is a
// DynamoDB number so debits can be guarded by `balance >= :amt` —
// concurrent debits against the same wallet serialize at the store
// instead of racing read-modify-write in the application.
type Store struct {
	client    awsx.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
	idFunc    func() string
}

// NewStore creates a new wallet Store.
func NewStore(client awsx.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
		idFunc:    uuid.NewString,
	}
}

type txnRecord struct {
	TxnID       string    `dynamodbav:"txn_id"`
	Amount      string    `dynamodbav:"amount"`
	Date        time.Time `dynamodbav:"date"`
	Description string    `dynamodbav:"description,omitempty"`
	Type        string    `dynamodbav:"type"`
	Status      string    `dynamodbav:"status"`
}

type walletRecord struct {
	UserID       string      `dynamodbav:"user_id"`
	Balance      float64     `dynamodbav:"balance"`
	Transactions []txnRecord `dynamodbav:"txns,omitempty"`
}

// Get fetches the user's wallet. A user with no wallet document yet is
// returned as an empty zero-balance wallet.
func (s *Store) Get(ctx context.Context, userID string) (*Wallet, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	if len(out.Item) == 0 {
		return &Wallet{UserID: userID, Balance: decimal.Zero}, nil
	}
	var rec walletRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal wallet: %w", err)
	}

	txns := make([]Transaction, 0, len(rec.Transactions))
	for _, t := range rec.Transactions {
		txns = append(txns, Transaction{
			TxnID:       t.TxnID,
			Amount:      parseDec(t.Amount),
			Date:        t.Date,
			Description: t.Description,
			Type:        t.Type,
			Status:      t.Status,
		})
	}
	return &Wallet{
		UserID:       rec.UserID,
		Balance:      decimal.NewFromFloat(rec.Balance),
		Transactions: txns,
	}, nil
}

// Debit subtracts amount and appends a debit transaction in a single
// conditional update. Returns ErrInsufficientBalance when the balance
// cannot cover the amount.
func (s *Store) Debit(ctx context.Context, userID string, amount decimal.Decimal, description string) (*Transaction, error) {
	txn := s.newTxn(amount, description, TypeDebit)
	txnAV, err := s.marshalTxn(txn)
	if err != nil {
		return nil, err
	}

	_, err = s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
		UpdateExpression:    awsString("SET balance = balance - :amt, txns = list_append(if_not_exists(txns, :empty), :t)"),
		ConditionExpression: awsString("attribute_exists(user_id) AND balance >= :amt"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":amt":   &types.AttributeValueMemberN{Value: amount.String()},
			":t":     &types.AttributeValueMemberL{Value: []types.AttributeValue{txnAV}},
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		},
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return nil, ErrInsufficientBalance
		}
		return nil, fmt.Errorf("debit wallet: %w", err)
	}
	return &txn, nil
}

// Credit adds amount and appends a credit transaction, creating the
// wallet document on first use.
func (s *Store) Credit(ctx context.Context, userID string, amount decimal.Decimal, description string) (*Transaction, error) {
	txn := s.newTxn(amount, description, TypeCredit)
	txnAV, err := s.marshalTxn(txn)
	if err != nil {
		return nil, err
	}

	_, err = s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
		UpdateExpression: awsString("SET balance = if_not_exists(balance, :zero) + :amt, txns = list_append(if_not_exists(txns, :empty), :t)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":amt":   &types.AttributeValueMemberN{Value: amount.String()},
			":zero":  &types.AttributeValueMemberN{Value: "0"},
			":t":     &types.AttributeValueMemberL{Value: []types.AttributeValue{txnAV}},
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("credit wallet: %w", err)
	}
	return &txn, nil
}

func (s *Store) newTxn(amount decimal.Decimal, description, txnType string) Transaction {
	return Transaction{
		TxnID:       s.idFunc(),
		Amount:      amount,
		Date:        s.nowFunc(),
		Description: description,
		Type:        txnType,
		Status:      StatusCompleted,
	}
}

func (s *Store) marshalTxn(t Transaction) (types.AttributeValue, error) {
	rec := txnRecord{
		TxnID:       t.TxnID,
		Amount:      t.Amount.String(),
		Date:        t.Date,
		Description: t.Description,
		Type:        t.Type,
		Status:      t.Status,
	}
	m, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal transaction: %w", err)
	}
	return &types.AttributeValueMemberM{Value: m}, nil
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
