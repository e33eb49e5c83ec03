package wallet

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction kinds and statuses.
const (
	TypeCredit = "CREDIT"
	TypeDebit  = "DEBIT"

	StatusCompleted = "COMPLETED"
)

// ErrInsufficientBalance is returned when a debit would take the
// balance negative.
var ErrInsufficientBalance = errors.New("insufficient wallet balance")

// Transaction is one ledger entry. The list is append-only.
type Transaction struct {
	TxnID       string
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	Type        string
	Status      string
}

// Wallet is a per-user stored-value balance usable as a payment method
// and as a refund destination.
type Wallet struct {
	UserID       string
	Balance      decimal.Decimal
	Transactions []Transaction
}
