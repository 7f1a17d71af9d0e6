package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavingsGoal is the balance record a payment link can route matched
// contributions into. Goal business rules live outside this module; only
// the money movement is represented here.
type SavingsGoal struct {
	ID        string
	WalletID  string
	Name      string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
