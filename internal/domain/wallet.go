package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletKind distinguishes user money accounts from internal aggregators.
type WalletKind string

const (
	// WalletKindUser is a customer-owned money account.
	WalletKindUser WalletKind = "user"

	// WalletKindPlatform is the singleton revenue aggregator that collects
	// every fee, VAT and stamp-duty component settled by the ledger.
	WalletKindPlatform WalletKind = "platform"
)

// Wallet is the authoritative balance record for one money account.
// Balance is mutated only through the ledger use case; no other component
// writes it.
type Wallet struct {
	ID            string
	UserID        string
	Kind          WalletKind
	Currency      string
	Balance       decimal.Decimal
	AccountNumber string
	BankCode      string
	BankName      string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ValidateDebit checks whether the wallet can be debited by amount.
func (w *Wallet) ValidateDebit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if w.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateCredit checks whether amount is a legal credit.
func (w *Wallet) ValidateCredit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}

// ApplyDebit returns the balance after a debit.
func (w *Wallet) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return w.Balance.Sub(amount)
}

// ApplyCredit returns the balance after a credit.
func (w *Wallet) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return w.Balance.Add(amount)
}
