package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WalletResponse represents a wallet in API responses.
type WalletResponse struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Kind          string          `json:"kind"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	AccountNumber string          `json:"account_number,omitempty"`
	BankCode      string          `json:"bank_code,omitempty"`
	BankName      string          `json:"bank_name,omitempty"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// WalletFromDomain converts a domain wallet to a response.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		ID:            w.ID,
		UserID:        w.UserID,
		Kind:          string(w.Kind),
		Currency:      w.Currency,
		Balance:       w.Balance,
		AccountNumber: w.AccountNumber,
		BankCode:      w.BankCode,
		BankName:      w.BankName,
		Version:       w.Version,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID                  string          `json:"id"`
	WalletID            string          `json:"wallet_id"`
	Direction           string          `json:"direction"`
	Type                string          `json:"type"`
	Amount              decimal.Decimal `json:"amount"`
	Fee                 decimal.Decimal `json:"fee"`
	VAT                 decimal.Decimal `json:"vat"`
	StampDuty           decimal.Decimal `json:"stamp_duty"`
	Commission          decimal.Decimal `json:"commission"`
	NetAmount           decimal.Decimal `json:"net_amount"`
	Description         string          `json:"description,omitempty"`
	CounterpartyName    string          `json:"counterparty_name,omitempty"`
	CounterpartyAccount string          `json:"counterparty_account,omitempty"`
	ExternalReference   *string         `json:"external_reference,omitempty"`
	Status              string          `json:"status"`
	BalanceBefore       decimal.Decimal `json:"balance_before"`
	BalanceAfter        decimal.Decimal `json:"balance_after"`
	CreatedAt           time.Time       `json:"created_at"`
}

// EntryFromDomain converts a domain ledger entry to a response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	return &EntryResponse{
		ID:                  e.ID,
		WalletID:            e.WalletID,
		Direction:           string(e.Direction),
		Type:                string(e.Type),
		Amount:              e.Amount,
		Fee:                 e.Fee,
		VAT:                 e.VAT,
		StampDuty:           e.StampDuty,
		Commission:          e.Commission,
		NetAmount:           e.NetAmount,
		Description:         e.Description,
		CounterpartyName:    e.CounterpartyName,
		CounterpartyAccount: e.CounterpartyAccount,
		ExternalReference:   e.ExternalReference,
		Status:              string(e.Status),
		BalanceBefore:       e.BalanceBefore,
		BalanceAfter:        e.BalanceAfter,
		CreatedAt:           e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// BalanceAtResponse represents a historical balance.
type BalanceAtResponse struct {
	WalletID string          `json:"wallet_id"`
	At       time.Time       `json:"at"`
	Balance  decimal.Decimal `json:"balance"`
}

// WithdrawalResponse represents a withdrawal request in API responses.
type WithdrawalResponse struct {
	ID                 string          `json:"id"`
	WalletID           string          `json:"wallet_id"`
	Amount             decimal.Decimal `json:"amount"`
	Fee                decimal.Decimal `json:"fee"`
	VAT                decimal.Decimal `json:"vat"`
	StampDuty          decimal.Decimal `json:"stamp_duty"`
	NetAmount          decimal.Decimal `json:"net_amount"`
	DestinationAccount string          `json:"destination_account"`
	DestinationBank    string          `json:"destination_bank"`
	DestinationName    string          `json:"destination_name,omitempty"`
	Status             string          `json:"status"`
	TransferReference  *string         `json:"transfer_reference,omitempty"`
	FailureReason      *string         `json:"failure_reason,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// WithdrawalFromDomain converts a domain withdrawal to a response.
func WithdrawalFromDomain(w *domain.WithdrawalRequest) *WithdrawalResponse {
	return &WithdrawalResponse{
		ID:                 w.ID,
		WalletID:           w.WalletID,
		Amount:             w.Amount,
		Fee:                w.Fees.Fee,
		VAT:                w.Fees.VAT,
		StampDuty:          w.Fees.StampDuty,
		NetAmount:          w.Fees.Net,
		DestinationAccount: w.DestinationAccount,
		DestinationBank:    w.DestinationBank,
		DestinationName:    w.DestinationName,
		Status:             string(w.Status),
		TransferReference:  w.TransferReference,
		FailureReason:      w.FailureReason,
		CreatedAt:          w.CreatedAt,
		UpdatedAt:          w.UpdatedAt,
	}
}

// LinkResponse represents a payment link in API responses.
type LinkResponse struct {
	ID           string           `json:"id"`
	Code         string           `json:"code"`
	WalletID     string           `json:"wallet_id"`
	GoalID       *string          `json:"goal_id,omitempty"`
	Title        string           `json:"title"`
	TargetAmount *decimal.Decimal `json:"target_amount,omitempty"`
	SingleUse    bool             `json:"single_use"`
	Consumed     bool             `json:"consumed"`
	Active       bool             `json:"active"`
	ExpiresAt    *time.Time       `json:"expires_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// LinkFromDomain converts a domain payment link to a response.
func LinkFromDomain(l *domain.PaymentLink) *LinkResponse {
	return &LinkResponse{
		ID:           l.ID,
		Code:         l.Code,
		WalletID:     l.WalletID,
		GoalID:       l.GoalID,
		Title:        l.Title,
		TargetAmount: l.TargetAmount,
		SingleUse:    l.SingleUse,
		Consumed:     l.Consumed,
		Active:       l.Active,
		ExpiresAt:    l.ExpiresAt,
		CreatedAt:    l.CreatedAt,
	}
}

// LinkViewResponse is the public projection of a link, safe to show a
// contributor.
type LinkViewResponse struct {
	Code             string           `json:"code"`
	Title            string           `json:"title"`
	TargetAmount     *decimal.Decimal `json:"target_amount,omitempty"`
	AmountRaised     decimal.Decimal  `json:"amount_raised"`
	ContributorCount int              `json:"contributor_count"`
	Active           bool             `json:"active"`
	ExpiresAt        *time.Time       `json:"expires_at,omitempty"`
}

// LinkViewFromDomain converts a domain link view to a response.
func LinkViewFromDomain(v *domain.LinkView) *LinkViewResponse {
	return &LinkViewResponse{
		Code:             v.Code,
		Title:            v.Title,
		TargetAmount:     v.TargetAmount,
		AmountRaised:     v.AmountRaised,
		ContributorCount: v.ContributorCount,
		Active:           v.Active,
		ExpiresAt:        v.ExpiresAt,
	}
}

// ContributionResponse represents a contribution in API responses.
type ContributionResponse struct {
	ID              string          `json:"id"`
	LinkID          string          `json:"link_id"`
	ContributorName string          `json:"contributor_name,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

// ContributionFromDomain converts a domain contribution to a response.
func ContributionFromDomain(c *domain.Contribution) *ContributionResponse {
	return &ContributionResponse{
		ID:              c.ID,
		LinkID:          c.LinkID,
		ContributorName: c.ContributorName,
		Amount:          c.Amount,
		Status:          string(c.Status),
		CreatedAt:       c.CreatedAt,
		CompletedAt:     c.CompletedAt,
	}
}

// GoalResponse represents a savings goal in API responses.
type GoalResponse struct {
	ID        string          `json:"id"`
	WalletID  string          `json:"wallet_id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// GoalFromDomain converts a domain savings goal to a response.
func GoalFromDomain(g *domain.SavingsGoal) *GoalResponse {
	return &GoalResponse{
		ID:        g.ID,
		WalletID:  g.WalletID,
		Name:      g.Name,
		Balance:   g.Balance,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

// FeeConfigResponse represents a fee configuration in API responses.
type FeeConfigResponse struct {
	ID                 string          `json:"id"`
	Tier1Threshold     decimal.Decimal `json:"tier1_threshold"`
	Tier1Fee           decimal.Decimal `json:"tier1_fee"`
	Tier2Threshold     decimal.Decimal `json:"tier2_threshold"`
	Tier2Fee           decimal.Decimal `json:"tier2_fee"`
	Tier3Fee           decimal.Decimal `json:"tier3_fee"`
	VATRate            decimal.Decimal `json:"vat_rate"`
	StampDutyThreshold decimal.Decimal `json:"stamp_duty_threshold"`
	StampDutyAmount    decimal.Decimal `json:"stamp_duty_amount"`
	CommissionRate     decimal.Decimal `json:"commission_rate"`
	Active             bool            `json:"active"`
	CreatedAt          time.Time       `json:"created_at"`
}

// FeeConfigFromDomain converts a domain fee configuration to a response.
func FeeConfigFromDomain(c *domain.FeeConfiguration) *FeeConfigResponse {
	return &FeeConfigResponse{
		ID:                 c.ID,
		Tier1Threshold:     c.Tier1Threshold,
		Tier1Fee:           c.Tier1Fee,
		Tier2Threshold:     c.Tier2Threshold,
		Tier2Fee:           c.Tier2Fee,
		Tier3Fee:           c.Tier3Fee,
		VATRate:            c.VATRate,
		StampDutyThreshold: c.StampDutyThreshold,
		StampDutyAmount:    c.StampDutyAmount,
		CommissionRate:     c.CommissionRate,
		Active:             c.Active,
		CreatedAt:          c.CreatedAt,
	}
}

// WebhookAckResponse acknowledges an inbound provider webhook.
type WebhookAckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// MismatchResponse is one wallet whose stored balance disagrees with its
// entry history.
type MismatchResponse struct {
	WalletID string          `json:"wallet_id"`
	Stored   decimal.Decimal `json:"stored"`
	Computed decimal.Decimal `json:"computed"`
	Delta    decimal.Decimal `json:"delta"`
}

// AuditReportResponse represents a balance audit run.
type AuditReportResponse struct {
	WalletsChecked int                `json:"wallets_checked"`
	Consistent     bool               `json:"consistent"`
	Mismatches     []MismatchResponse `json:"mismatches,omitempty"`
	RanAt          time.Time          `json:"ran_at"`
}

// AuditReportFromUseCase converts an audit report to a response.
func AuditReportFromUseCase(r *usecase.AuditReport) *AuditReportResponse {
	resp := &AuditReportResponse{
		WalletsChecked: r.WalletsChecked,
		Consistent:     len(r.Mismatches) == 0,
		RanAt:          r.RanAt,
	}
	for _, m := range r.Mismatches {
		resp.Mismatches = append(resp.Mismatches, MismatchResponse{
			WalletID: m.WalletID,
			Stored:   m.Stored,
			Computed: m.Computed,
			Delta:    m.Delta,
		})
	}
	return resp
}

// RecoveryReportResponse represents a deposit recovery run.
type RecoveryReportResponse struct {
	WalletsScanned int       `json:"wallets_scanned"`
	Found          int       `json:"found"`
	Applied        int       `json:"applied"`
	RanAt          time.Time `json:"ran_at"`
}

// RecoveryReportFromUseCase converts a recovery report to a response.
func RecoveryReportFromUseCase(r *usecase.RecoveryReport) *RecoveryReportResponse {
	return &RecoveryReportResponse{
		WalletsScanned: r.WalletsScanned,
		Found:          r.Found,
		Applied:        r.Applied,
		RanAt:          r.RanAt,
	}
}
