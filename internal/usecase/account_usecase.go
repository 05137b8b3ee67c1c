package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgersaga/internal/domain"
)

// AccountUseCase handles account business logic on the ledger side.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	outbox      *OutboxWriter
	idGen       IDGenerator
	clock       Clock
	logger      *slog.Logger
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	outbox *OutboxWriter,
	idGen IDGenerator,
	clock Clock,
	logger *slog.Logger,
) *AccountUseCase {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		outbox:      outbox,
		idGen:       idGen,
		clock:       clock,
		logger:      logger,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	AccountNumber  string
	OwnerName      string
	InitialBalance decimal.Decimal
	Status         domain.AccountStatus
}

// CreateAccount creates a new account and announces it on account.created.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	input.AccountNumber = strings.TrimSpace(input.AccountNumber)
	input.OwnerName = strings.TrimSpace(input.OwnerName)

	if err := domain.ValidateAccountNumber(input.AccountNumber); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAccountData, err)
	}
	if err := domain.ValidateOwnerName(input.OwnerName); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAccountData, err)
	}
	if input.InitialBalance.IsNegative() {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAccountData, domain.ErrNegativeBalance)
	}
	if input.Status == "" {
		input.Status = domain.AccountStatusActive
	}
	if !input.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidAccountData, input.Status)
	}

	if _, err := uc.accountRepo.GetByNumber(ctx, input.AccountNumber); err == nil {
		return nil, domain.ErrDuplicateAccount
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	now := uc.clock.Now()
	account := &domain.Account{
		ID:            uc.idGen.Generate(),
		AccountNumber: input.AccountNumber,
		OwnerName:     input.OwnerName,
		Balance:       input.InitialBalance,
		Status:        input.Status,
		Version:       0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
		return nil, err
	}

	if err := uc.outbox.AppendAccountEvent(ctx, tx, domain.TopicAccountCreated, domain.EventTypeAccountCreated, account); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.logger.Info("account created", "account_id", account.ID, "account_number", account.AccountNumber)

	return account, nil
}

// UpdateAccountStatus activates or deactivates an account. The change bumps
// the version and is announced on account.updated.
func (uc *AccountUseCase) UpdateAccountStatus(ctx context.Context, id string, status domain.AccountStatus) (*domain.Account, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidAccountData, status)
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if account.Status == status {
		return account, nil
	}

	now := uc.clock.Now()
	version, err := uc.accountRepo.UpdateStatus(ctx, tx, account.ID, status, account.Version, now)
	if err != nil {
		return nil, err
	}
	account.Status = status
	account.Version = version
	account.UpdatedAt = now

	if err := uc.outbox.AppendAccountEvent(ctx, tx, domain.TopicAccountUpdated, domain.EventTypeAccountUpdated, account); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// GetAccountByNumber retrieves an account by its account number.
func (uc *AccountUseCase) GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	return uc.accountRepo.GetByNumber(ctx, strings.TrimSpace(number))
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.List(ctx, limit, offset)
}
