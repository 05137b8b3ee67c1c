package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the saga state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCorrect   TransactionStatus = "CORRECT"
	TransactionStatusIncorrect TransactionStatus = "INCORRECT"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// IsValid reports whether the status is known.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCorrect, TransactionStatusIncorrect, TransactionStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed from s.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCorrect || s == TransactionStatusIncorrect || s == TransactionStatusFailed
}

// CanTransitionTo reports whether a transition from s to next is allowed.
// Only PENDING may move, and only into a terminal state.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	return s == TransactionStatusPending && next.IsTerminal()
}

// TransactionType classifies a transaction request.
type TransactionType string

const (
	TransactionTypeTransfer TransactionType = "TRANSFER"
	TransactionTypePayment  TransactionType = "PAYMENT"
)

// IsValid reports whether the type is known.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeTransfer || t == TransactionTypePayment
}

// Transaction is a transfer request owned by the transfer service.
type Transaction struct {
	ID                 string
	FromAccountID      string
	ToAccountID        string
	Amount             decimal.Decimal
	Type               TransactionType
	Description        string
	Status             TransactionStatus
	Observations       string
	FromAccountVersion int64
	ToAccountVersion   int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate validates transaction request.
func (t *Transaction) Validate() error {
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !t.Type.IsValid() {
		return ErrInvalidTransactionType
	}

	return nil
}
