package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusInactive AccountStatus = "INACTIVE"
)

// IsValid reports whether the status is a known account status.
func (s AccountStatus) IsValid() bool {
	return s == AccountStatusActive || s == AccountStatusInactive
}

// Account is the ledger-owned account holding a balance.
type Account struct {
	ID            string
	AccountNumber string
	OwnerName     string
	Balance       decimal.Decimal
	Status        AccountStatus
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsAvailableAt reports whether the account is active and still at the
// version the requester observed.
func (a *Account) IsAvailableAt(version int64) bool {
	return a.Version == version && a.Status == AccountStatusActive
}

// HasFunds reports whether the balance covers amount.
func (a *Account) HasFunds(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// AccountReplica is the read-only copy of an account kept by the transfer
// service. It only tracks what the saga needs to build a request.
type AccountReplica struct {
	ID            string
	AccountNumber string
	Status        AccountStatus
	Version       int64
	UpdatedAt     time.Time
}

// IsActive reports whether the replica is active.
func (r *AccountReplica) IsActive() bool {
	return r.Status == AccountStatusActive
}
