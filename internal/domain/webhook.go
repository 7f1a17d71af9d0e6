package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WebhookEventStatus is the terminal state of an inbound notification.
// There is no retry state: retries belong to the sending rail, and the
// dedup guarantee makes re-delivery safe.
type WebhookEventStatus string

const (
	WebhookEventStatusApplied  WebhookEventStatus = "applied"
	WebhookEventStatusRejected WebhookEventStatus = "rejected"
)

// WebhookEvent captures one inbound provider notification verbatim. The
// raw body is kept byte-exact because signature verification runs over
// the wire bytes, not a re-serialized form.
type WebhookEvent struct {
	ID               string
	Kind             string
	RawBody          []byte
	SignatureHeader  string
	Verified         bool
	VerifierStrategy string
	Status           WebhookEventStatus
	RejectReason     string
	LedgerEntryID    *string
	ReceivedAt       time.Time
}

// DepositNotification is the decoded payload of an inbound deposit
// webhook. Reference is the provider-supplied idempotency key.
type DepositNotification struct {
	AccountNumber string          `json:"accountNumber"`
	Reference     string          `json:"reference"`
	Amount        decimal.Decimal `json:"amount"`
	SenderName    string          `json:"senderName"`
	SenderBank    string          `json:"senderBank"`
	Narration     string          `json:"narration"`
}

// Validate checks the minimum fields a deposit notification must carry.
func (n *DepositNotification) Validate() error {
	if n.AccountNumber == "" || n.Reference == "" {
		return ErrMalformedPayload
	}
	if n.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}

// TransferStatusNotification is the decoded payload of an outbound
// transfer terminal-status webhook or polling response.
type TransferStatusNotification struct {
	TransferReference string `json:"transferReference"`
	Status            string `json:"status"`
	Message           string `json:"message"`
}

const (
	TransferStatusSuccessful = "successful"
	TransferStatusFailed     = "failed"
)
