package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgersaga/internal/domain"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"account_number"`
	OwnerName     string          `json:"owner_name"`
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		OwnerName:     a.OwnerName,
		Balance:       a.Balance,
		Status:        string(a.Status),
		Version:       a.Version,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// ReplicaResponse represents the transfer service's copy of an account.
type ReplicaResponse struct {
	ID            string    `json:"id"`
	AccountNumber string    `json:"account_number"`
	Status        string    `json:"status"`
	Version       int64     `json:"version"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ReplicaFromDomain converts a replica to response.
func ReplicaFromDomain(r *domain.AccountReplica) *ReplicaResponse {
	return &ReplicaResponse{
		ID:            r.ID,
		AccountNumber: r.AccountNumber,
		Status:        string(r.Status),
		Version:       r.Version,
		UpdatedAt:     r.UpdatedAt,
	}
}

// ListReplicasResponse represents a page of replicas.
type ListReplicasResponse struct {
	Accounts []*ReplicaResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID                 string          `json:"id"`
	FromAccountID      string          `json:"from_account_id"`
	ToAccountID        string          `json:"to_account_id"`
	Amount             decimal.Decimal `json:"amount"`
	Type               string          `json:"type"`
	Description        string          `json:"description,omitempty"`
	Status             string          `json:"status"`
	Observations       string          `json:"observations"`
	FromAccountVersion int64           `json:"from_account_version"`
	ToAccountVersion   int64           `json:"to_account_version"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// TransactionFromDomain converts a domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:                 t.ID,
		FromAccountID:      t.FromAccountID,
		ToAccountID:        t.ToAccountID,
		Amount:             t.Amount,
		Type:               string(t.Type),
		Description:        t.Description,
		Status:             string(t.Status),
		Observations:       t.Observations,
		FromAccountVersion: t.FromAccountVersion,
		ToAccountVersion:   t.ToAccountVersion,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

// ListTransactionsResponse represents a page of transactions.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
}

// OutboxEventResponse represents an outbox row for operators.
type OutboxEventResponse struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Topic         string          `json:"topic"`
	Payload       json.RawMessage `json:"payload"`
	Status        string          `json:"status"`
	Attempts      int             `json:"attempts"`
	LastError     string          `json:"last_error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	SentAt        *time.Time      `json:"sent_at,omitempty"`
}

// OutboxEventFromDomain converts an outbox event to response.
func OutboxEventFromDomain(e *domain.OutboxEvent) *OutboxEventResponse {
	resp := &OutboxEventResponse{
		ID:            e.ID,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID,
		EventType:     e.EventType,
		Topic:         e.Topic,
		Status:        string(e.Status),
		Attempts:      e.Attempts,
		LastError:     e.LastError,
		CreatedAt:     e.CreatedAt,
		SentAt:        e.SentAt,
	}
	if json.Valid(e.Payload) {
		resp.Payload = json.RawMessage(e.Payload)
	}
	return resp
}

// ListOutboxEventsResponse represents a page of outbox events.
type ListOutboxEventsResponse struct {
	Events []*OutboxEventResponse `json:"events"`
	Total  int64                  `json:"total"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
