package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryDirection is the side of a ledger entry.
type EntryDirection string

const (
	EntryDirectionCredit EntryDirection = "credit"
	EntryDirectionDebit  EntryDirection = "debit"
)

// EntryStatus is the lifecycle state of a ledger entry. Entries are
// immutable after creation except for the status transition of
// asynchronous operations (withdrawal pending -> completed/failed).
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusFailed    EntryStatus = "failed"
)

// EntryType records what kind of money event produced the entry.
type EntryType string

const (
	EntryTypeDeposit      EntryType = "deposit"
	EntryTypeWithdrawal   EntryType = "withdrawal"
	EntryTypeContribution EntryType = "contribution"
	EntryTypeFeeSettle    EntryType = "fee_settlement"
	EntryTypeRefund       EntryType = "refund"
	EntryTypeGoalRouting  EntryType = "goal_routing"
	EntryTypeManual       EntryType = "manual"
)

// LedgerEntry is one immutable recorded balance mutation. ExternalReference
// is the idempotency key for provider-originated events; it is nil only for
// internally generated entries.
type LedgerEntry struct {
	ID                  string
	WalletID            string
	Direction           EntryDirection
	Type                EntryType
	Amount              decimal.Decimal
	Fee                 decimal.Decimal
	VAT                 decimal.Decimal
	StampDuty           decimal.Decimal
	Commission          decimal.Decimal
	NetAmount           decimal.Decimal
	Description         string
	CounterpartyName    string
	CounterpartyAccount string
	ExternalReference   *string
	Status              EntryStatus
	BalanceBefore       decimal.Decimal
	BalanceAfter        decimal.Decimal
	WalletVersion       int64
	CreatedAt           time.Time
}

// TotalFees is the sum of every fee component on the entry.
func (e *LedgerEntry) TotalFees() decimal.Decimal {
	return e.Fee.Add(e.VAT).Add(e.StampDuty).Add(e.Commission)
}

// SignedAmount is the balance delta the entry contributed. Credits apply
// the net amount (fees are settled to the platform wallet by their own
// entries); debits apply the gross amount, which already covers the fees.
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Direction == EntryDirectionDebit {
		return e.Amount.Neg()
	}
	return e.NetAmount
}
