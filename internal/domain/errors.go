package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrDuplicateAccount   = errors.New("account number already exists")
	ErrInvalidAccountData = errors.New("invalid account data")
	ErrNegativeBalance    = errors.New("balance cannot be negative")

	// Transaction errors
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrInvalidTransactionData = errors.New("invalid transaction data")
	ErrSameAccount            = errors.New("cannot transfer to same account")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// Concurrency errors
	ErrConcurrentUpdate = errors.New("concurrent update detected")

	// Event errors
	ErrEventSerialization = errors.New("could not serialize event")
	ErrMalformedEvent     = errors.New("malformed event")
	ErrMissingEventID     = errors.New("event id header is missing")
	ErrDuplicateEvent     = errors.New("event already processed")

	// Outbox errors
	ErrOutboxEventNotFound = errors.New("outbox event not found")
	ErrOutboxNotRequeuable = errors.New("only failed outbox events can be requeued")
)
