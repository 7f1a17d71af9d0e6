package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/usecase"
)

// CreateWalletRequest represents a request to create a wallet.
type CreateWalletRequest struct {
	UserID        string `json:"user_id"`
	Currency      string `json:"currency"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateWalletRequest) ToUseCaseInput() usecase.CreateWalletInput {
	return usecase.CreateWalletInput{
		UserID:        r.UserID,
		Currency:      r.Currency,
		AccountNumber: r.AccountNumber,
		BankCode:      r.BankCode,
		BankName:      r.BankName,
	}
}

// RequestWithdrawalRequest represents a request to withdraw funds.
type RequestWithdrawalRequest struct {
	WalletID           string          `json:"wallet_id"`
	Amount             decimal.Decimal `json:"amount"`
	DestinationAccount string          `json:"destination_account"`
	DestinationBank    string          `json:"destination_bank"`
	DestinationName    string          `json:"destination_name"`
	Narration          string          `json:"narration"`
}

// ToUseCaseInput converts to use case input.
func (r *RequestWithdrawalRequest) ToUseCaseInput() usecase.RequestWithdrawalInput {
	return usecase.RequestWithdrawalInput{
		WalletID:           r.WalletID,
		Amount:             r.Amount,
		DestinationAccount: r.DestinationAccount,
		DestinationBank:    r.DestinationBank,
		DestinationName:    r.DestinationName,
		Narration:          r.Narration,
	}
}

// CreateLinkRequest represents a request to create a payment link.
type CreateLinkRequest struct {
	WalletID     string           `json:"wallet_id"`
	GoalID       *string          `json:"goal_id,omitempty"`
	Title        string           `json:"title"`
	TargetAmount *decimal.Decimal `json:"target_amount,omitempty"`
	SingleUse    bool             `json:"single_use"`
	ExpiresAt    *time.Time       `json:"expires_at,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateLinkRequest) ToUseCaseInput() usecase.CreateLinkInput {
	return usecase.CreateLinkInput{
		WalletID:     r.WalletID,
		GoalID:       r.GoalID,
		Title:        r.Title,
		TargetAmount: r.TargetAmount,
		SingleUse:    r.SingleUse,
		ExpiresAt:    r.ExpiresAt,
	}
}

// RegisterContributionRequest represents a contributor announcing an
// intended payment against a link.
type RegisterContributionRequest struct {
	ContributorName string          `json:"contributor_name"`
	Amount          decimal.Decimal `json:"amount"`
}

// DeactivateLinkRequest identifies the wallet asking to turn the link off.
type DeactivateLinkRequest struct {
	WalletID string `json:"wallet_id"`
}

// CreateGoalRequest represents a request to create a savings goal.
type CreateGoalRequest struct {
	WalletID string `json:"wallet_id"`
	Name     string `json:"name"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateGoalRequest) ToUseCaseInput() usecase.CreateGoalInput {
	return usecase.CreateGoalInput{
		WalletID: r.WalletID,
		Name:     r.Name,
	}
}

// CreateFeeConfigRequest represents a new fee schedule version.
type CreateFeeConfigRequest struct {
	Tier1Threshold     decimal.Decimal `json:"tier1_threshold"`
	Tier1Fee           decimal.Decimal `json:"tier1_fee"`
	Tier2Threshold     decimal.Decimal `json:"tier2_threshold"`
	Tier2Fee           decimal.Decimal `json:"tier2_fee"`
	Tier3Fee           decimal.Decimal `json:"tier3_fee"`
	VATRate            decimal.Decimal `json:"vat_rate"`
	StampDutyThreshold decimal.Decimal `json:"stamp_duty_threshold"`
	StampDutyAmount    decimal.Decimal `json:"stamp_duty_amount"`
	CommissionRate     decimal.Decimal `json:"commission_rate"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateFeeConfigRequest) ToUseCaseInput() usecase.CreateVersionInput {
	return usecase.CreateVersionInput{
		Tier1Threshold:     r.Tier1Threshold,
		Tier1Fee:           r.Tier1Fee,
		Tier2Threshold:     r.Tier2Threshold,
		Tier2Fee:           r.Tier2Fee,
		Tier3Fee:           r.Tier3Fee,
		VATRate:            r.VATRate,
		StampDutyThreshold: r.StampDutyThreshold,
		StampDutyAmount:    r.StampDutyAmount,
		CommissionRate:     r.CommissionRate,
	}
}

// ManualCreditRequest represents an operator-initiated credit.
type ManualCreditRequest struct {
	WalletID  string          `json:"wallet_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
	Narration string          `json:"narration"`
	Operator  string          `json:"operator"`
	Confirm   bool            `json:"confirm"`
}

// ToUseCaseInput converts to use case input.
func (r *ManualCreditRequest) ToUseCaseInput() usecase.ManualCreditInput {
	return usecase.ManualCreditInput{
		WalletID:  r.WalletID,
		Amount:    r.Amount,
		Reference: r.Reference,
		Narration: r.Narration,
		Operator:  r.Operator,
		Confirm:   r.Confirm,
	}
}

// RecoverDepositsRequest represents a deposit recovery run.
type RecoverDepositsRequest struct {
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	Apply bool      `json:"apply"`
}
