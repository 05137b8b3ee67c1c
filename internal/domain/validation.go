package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidOwnerName     = errors.New("invalid owner name")
	ErrInvalidAccountNumber = errors.New("invalid account number")
	ErrAmountTooLarge       = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall       = errors.New("amount below minimum allowed")
	ErrDescriptionTooLong   = errors.New("description too long")
)

// Validation constants
const (
	MaxOwnerNameLength     = 255
	MaxAccountNumberLength = 34 // IBAN upper bound
	MaxDescriptionLength   = 512
	MaxTransferAmount      = "1000000000000" // 1 trillion
	MinTransferAmount      = "0.01"
)

var accountNumberRegex = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// ValidateOwnerName validates owner name
func ValidateOwnerName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidOwnerName)
	}

	if len(name) > MaxOwnerNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidOwnerName, MaxOwnerNameLength)
	}

	return nil
}

// ValidateAccountNumber validates the business key of an account.
func ValidateAccountNumber(number string) error {
	number = strings.TrimSpace(number)

	if number == "" {
		return fmt.Errorf("%w: number cannot be empty", ErrInvalidAccountNumber)
	}

	if len(number) > MaxAccountNumberLength {
		return fmt.Errorf("%w: number exceeds %d characters", ErrInvalidAccountNumber, MaxAccountNumberLength)
	}

	if !accountNumberRegex.MatchString(number) {
		return fmt.Errorf("%w: only letters, digits and dashes are allowed", ErrInvalidAccountNumber)
	}

	return nil
}

// ValidateAmount validates transfer amount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	minAmount, _ := decimal.NewFromString(MinTransferAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinTransferAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxTransferAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransferAmount)
	}

	return nil
}

// ValidateDescription validates free-form transaction description
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: limit is %d characters", ErrDescriptionTooLong, MaxDescriptionLength)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
