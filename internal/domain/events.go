package domain

import (
	"github.com/shopspring/decimal"
)

// Topics on the event log.
const (
	TopicTransactionRequested = "transaction.requested"
	TopicTransactionCompleted = "transaction.completed"
	TopicAccountCreated       = "account.created"
	TopicAccountUpdated       = "account.updated"
)

// Event types
const (
	EventTypeTransactionRequested = "TransactionRequested"
	EventTypeTransactionCompleted = "TransactionCompleted"
	EventTypeAccountCreated       = "AccountCreated"
	EventTypeAccountUpdated       = "AccountUpdated"
)

// Aggregate types
const (
	AggregateTypeTransaction = "Transaction"
	AggregateTypeAccount     = "Account"
)

// Transport headers carried by every message.
const (
	HeaderEventID       = "X-Event-Id"
	HeaderAggregateID   = "X-Aggregate-Id"
	HeaderAggregateType = "X-Aggregate-Type"
	HeaderEventType     = "X-Event-Type"
	HeaderTimestamp     = "X-Timestamp"
)

// Observation notes attached to completion events.
const (
	ObservationRequested         = "transfer requested"
	ObservationApplied           = "transfer applied"
	ObservationSameAccount       = "source and destination accounts are the same"
	ObservationSourceUnavailable = "source account is stale or inactive"
	ObservationInsufficientFunds = "insufficient funds"
	ObservationTargetUnavailable = "destination account is stale or inactive"
	ObservationAccountNotFound   = "account not found"
	ObservationProcessingFailed  = "processing failed after retries"
)

// TransactionRequestedEvent payload
type TransactionRequestedEvent struct {
	TransactionID      string          `json:"transactionId"`
	FromAccountID      string          `json:"fromAccountId"`
	FromAccountVersion int64           `json:"fromAccountVersion"`
	ToAccountID        string          `json:"toAccountId"`
	ToAccountVersion   int64           `json:"toAccountVersion"`
	Amount             decimal.Decimal `json:"amount"`
}

// Validate checks the fields the ledger cannot work without.
func (e *TransactionRequestedEvent) Validate() error {
	if e.TransactionID == "" || e.FromAccountID == "" || e.ToAccountID == "" {
		return ErrMalformedEvent
	}
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrMalformedEvent
	}
	return nil
}

// TransactionCompletedEvent payload
type TransactionCompletedEvent struct {
	TransactionID string            `json:"transactionId"`
	Outcome       TransactionStatus `json:"outcome"`
	Observations  string            `json:"observations"`
}

// AccountEvent payload, shared by account.created and account.updated.
type AccountEvent struct {
	AccountID     string        `json:"accountId"`
	AccountNumber string        `json:"accountNumber"`
	Status        AccountStatus `json:"status"`
	Version       int64         `json:"version"`
}

// NewAccountEvent builds the event payload for an account snapshot.
func NewAccountEvent(a *Account) AccountEvent {
	return AccountEvent{
		AccountID:     a.ID,
		AccountNumber: a.AccountNumber,
		Status:        a.Status,
		Version:       a.Version,
	}
}
