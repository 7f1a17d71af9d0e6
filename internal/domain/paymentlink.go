package domain

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentLink is a shareable crowdfunding funding request owned by a
// wallet, optionally routing matched funds into a savings goal.
type PaymentLink struct {
	ID           string
	Code         string
	WalletID     string
	GoalID       *string
	Title        string
	TargetAmount *decimal.Decimal
	SingleUse    bool
	Consumed     bool
	Active       bool
	ExpiresAt    *time.Time
	CreatedAt    time.Time
}

// linkCodePattern matches the structured identifier contributors carry in
// a transfer narration, e.g. "PL-7F3K2Q".
var linkCodePattern = regexp.MustCompile(`PL-([A-Z0-9]{4,16})`)

// ExtractLinkCode pulls a payment link code out of a deposit reference or
// free-text narration. Returns "" when no structured identifier is present.
func ExtractLinkCode(narration string) string {
	m := linkCodePattern.FindStringSubmatch(narration)
	if m == nil {
		return ""
	}
	return m[1]
}

// ValidateUsable checks that the link can still accept a contribution.
func (l *PaymentLink) ValidateUsable(now time.Time) error {
	if !l.Active {
		return ErrLinkInactive
	}
	if l.ExpiresAt != nil && now.After(*l.ExpiresAt) {
		return ErrLinkExpired
	}
	if l.SingleUse && l.Consumed {
		return ErrLinkAlreadyUsed
	}
	return nil
}

// ContributionStatus is the lifecycle state of a contribution.
type ContributionStatus string

const (
	ContributionStatusPending   ContributionStatus = "pending"
	ContributionStatusCompleted ContributionStatus = "completed"
)

// Contribution is one contributor's payment toward a payment link. It is
// pending until matched to a ledger entry and immutable afterwards.
type Contribution struct {
	ID              string
	LinkID          string
	ContributorName string
	Amount          decimal.Decimal
	Status          ContributionStatus
	LedgerEntryID   *string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// LinkView is the read-only public projection of a payment link.
type LinkView struct {
	Code             string
	Title            string
	TargetAmount     *decimal.Decimal
	AmountRaised     decimal.Decimal
	ContributorCount int
	Active           bool
	ExpiresAt        *time.Time
}
