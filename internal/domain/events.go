package domain

import "time"

// Event types
const (
	EventTypeDepositReceived     = "deposit.received"
	EventTypeContributionMatched = "contribution.matched"
	EventTypeWithdrawalCompleted = "withdrawal.completed"
	EventTypeWithdrawalFailed    = "withdrawal.failed"
	EventTypeWalletCreated       = "wallet.created"
)

// Aggregate types
const (
	AggregateTypeWallet       = "wallet"
	AggregateTypeWithdrawal   = "withdrawal"
	AggregateTypeContribution = "contribution"
)

// OutboxEvent is a domain event written in the same transaction as the
// state change it announces, drained by the notifier worker afterwards.
// Notification delivery is best-effort relative to the committed credit.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// DepositReceivedEvent payload
type DepositReceivedEvent struct {
	WalletID   string `json:"wallet_id"`
	EntryID    string `json:"entry_id"`
	Amount     string `json:"amount"`
	NetAmount  string `json:"net_amount"`
	SenderName string `json:"sender_name"`
	Reference  string `json:"reference"`
}

// WithdrawalFailedEvent payload
type WithdrawalFailedEvent struct {
	WithdrawalID string `json:"withdrawal_id"`
	WalletID     string `json:"wallet_id"`
	Amount       string `json:"amount"`
	Reason       string `json:"reason"`
}

// ContributionMatchedEvent payload
type ContributionMatchedEvent struct {
	ContributionID string `json:"contribution_id"`
	LinkCode       string `json:"link_code"`
	Amount         string `json:"amount"`
}
