package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCurrency      = errors.New("invalid currency code")
	ErrAmountTooLarge       = errors.New("amount exceeds maximum allowed")
	ErrInvalidAccountNumber = errors.New("invalid account number")
)

// Validation constants
const (
	MaxTransactionAmount = "1000000000" // 1 billion, single movement cap
	AccountNumberLength  = 10           // NUBAN
)

// Supported currencies. The ledger is NGN-first; the set exists so a
// second currency does not require schema changes.
var validCurrencies = map[string]bool{
	"NGN": true, "USD": true, "GBP": true, "EUR": true,
}

// ValidateCurrency validates a currency code.
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateAmount validates a money movement amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxTransactionAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum is %s", ErrAmountTooLarge, MaxTransactionAmount)
	}

	return nil
}

// ValidateAccountNumber validates a provider account number (NUBAN).
func ValidateAccountNumber(number string) error {
	number = strings.TrimSpace(number)
	if len(number) != AccountNumberLength {
		return fmt.Errorf("%w: expected %d digits", ErrInvalidAccountNumber, AccountNumberLength)
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: non-digit character", ErrInvalidAccountNumber)
		}
	}
	return nil
}

// ValidatePagination clamps pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const maxPageSize = 1000
	const defaultPageSize = 50

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
