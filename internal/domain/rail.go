package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RailTransferRequest is an outbound transfer initiation call to the
// banking rail. CustomerReference is the idempotency key the rail echoes
// back in status notifications.
type RailTransferRequest struct {
	DestinationAccount string          `json:"destinationAccount"`
	DestinationBank    string          `json:"destinationBankCode"`
	DestinationName    string          `json:"destinationName"`
	Amount             decimal.Decimal `json:"amount"`
	Narration          string          `json:"narration"`
	CustomerReference  string          `json:"customerReference"`
	CallbackURL        string          `json:"callbackUrl,omitempty"`
}

// RailTransferResult is the synchronous acceptance of a transfer.
type RailTransferResult struct {
	TransferReference string `json:"transferReference"`
	Status            string `json:"status"`
}

// RailTransaction is one row of the provider's own transaction history,
// the external source of truth the reconciliation jobs diff against.
type RailTransaction struct {
	Reference     string          `json:"reference"`
	Type          string          `json:"type"` // credit | debit
	Amount        decimal.Decimal `json:"amount"`
	SenderName    string          `json:"senderName"`
	SenderBank    string          `json:"senderBank"`
	Narration     string          `json:"narration"`
	AccountNumber string          `json:"accountNumber"`
	PostedAt      time.Time       `json:"postedAt"`
}
