package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/usecase"
)

// CreateAccountRequest represents a request to open a ledger account.
type CreateAccountRequest struct {
	AccountNumber  string          `json:"account_number"`
	OwnerName      string          `json:"owner_name"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Status         string          `json:"status,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		AccountNumber:  r.AccountNumber,
		OwnerName:      r.OwnerName,
		InitialBalance: r.InitialBalance,
		Status:         domain.AccountStatus(r.Status),
	}
}

// UpdateAccountStatusRequest represents a request to activate or deactivate
// an account.
type UpdateAccountStatusRequest struct {
	Status string `json:"status"`
}

// CreateTransactionRequest represents a request to move money between two
// accounts.
type CreateTransactionRequest struct {
	FromAccountNumber string          `json:"from_account_number"`
	ToAccountNumber   string          `json:"to_account_number"`
	Amount            decimal.Decimal `json:"amount"`
	Type              string          `json:"type,omitempty"`
	Description       string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransactionRequest) ToUseCaseInput() usecase.CreateTransactionInput {
	return usecase.CreateTransactionInput{
		FromAccountNumber: r.FromAccountNumber,
		ToAccountNumber:   r.ToAccountNumber,
		Amount:            r.Amount,
		Type:              domain.TransactionType(r.Type),
		Description:       r.Description,
	}
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
