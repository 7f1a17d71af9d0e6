package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the lifecycle state of an outbound transfer attempt.
type WithdrawalStatus string

const (
	// WithdrawalStatusPending: funds reserved, not yet sent to the rail.
	WithdrawalStatusPending WithdrawalStatus = "pending"
	// WithdrawalStatusProcessing: accepted by the rail, awaiting a terminal
	// status via webhook or polling.
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusFailed     WithdrawalStatus = "failed"
)

// WithdrawalRequest is one outbound transfer attempt. The request is
// created with the funds already debited from the wallet; a confirmed
// failure re-credits them exactly once.
type WithdrawalRequest struct {
	ID                 string
	WalletID           string
	LedgerEntryID      string
	Amount             decimal.Decimal
	Fees               FeeBreakdown
	DestinationAccount string
	DestinationBank    string
	DestinationName    string
	Narration          string
	Status             WithdrawalStatus
	TransferReference  *string
	FailureReason      *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Refundable reports whether a confirmed failure may still trigger the
// refund path. Terminal states never refund again, which is what prevents
// a double refund on repeated failure notifications.
func (w *WithdrawalRequest) Refundable() bool {
	return w.Status == WithdrawalStatusPending || w.Status == WithdrawalStatusProcessing
}

// Terminal reports whether the withdrawal reached a final state.
func (w *WithdrawalRequest) Terminal() bool {
	return w.Status == WithdrawalStatusCompleted || w.Status == WithdrawalStatusFailed
}
