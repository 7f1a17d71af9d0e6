package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// minorUnitPlaces is the precision fees are rounded to. NGN, like most
// supported currencies, has two minor-unit places.
const minorUnitPlaces = 2

// FeeConfiguration is one immutable version of the fee schedule. At most
// one row is active at a time; superseding a configuration inserts a new
// row and deactivates the old one so historical fees stay reproducible.
type FeeConfiguration struct {
	ID                  string
	Tier1Threshold      decimal.Decimal
	Tier1Fee            decimal.Decimal
	Tier2Threshold      decimal.Decimal
	Tier2Fee            decimal.Decimal
	Tier3Fee            decimal.Decimal
	VATRate             decimal.Decimal
	StampDutyThreshold  decimal.Decimal
	StampDutyAmount     decimal.Decimal
	CommissionRate      decimal.Decimal
	Active              bool
	CreatedAt           time.Time
	DeactivatedAt       *time.Time
}

// FeeBreakdown is the result of applying a fee schedule to an amount.
// Net is what the ledger actually credits downstream; the fee components
// are settled to the platform wallet in the same transaction.
type FeeBreakdown struct {
	Gross      decimal.Decimal
	Fee        decimal.Decimal
	VAT        decimal.Decimal
	StampDuty  decimal.Decimal
	Commission decimal.Decimal
	Total      decimal.Decimal
	Net        decimal.Decimal
}

// roundMoney rounds half-up to the currency's minor unit. Each component is
// rounded as it is computed, not at the end, so rounding drift cannot
// compound across components.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(minorUnitPlaces)
}

// transferFee selects the flat tier fee for amount. Tier boundaries are
// inclusive: an amount exactly on a threshold pays that tier's fee.
func (c *FeeConfiguration) transferFee(amount decimal.Decimal) decimal.Decimal {
	switch {
	case amount.LessThanOrEqual(c.Tier1Threshold):
		return c.Tier1Fee
	case amount.LessThanOrEqual(c.Tier2Threshold):
		return c.Tier2Fee
	default:
		return c.Tier3Fee
	}
}

// stampDuty returns the EMTL component: a fixed amount applied once iff
// the amount reaches the threshold, independent of tier.
func (c *FeeConfiguration) stampDuty(amount decimal.Decimal) decimal.Decimal {
	if amount.GreaterThanOrEqual(c.StampDutyThreshold) {
		return c.StampDutyAmount
	}
	return decimal.Zero
}

// TransferFees computes the breakdown for a transfer or withdrawal:
// tiered flat fee, VAT on the fee (never on principal), plus EMTL.
func (c *FeeConfiguration) TransferFees(amount decimal.Decimal) FeeBreakdown {
	fee := roundMoney(c.transferFee(amount))
	vat := roundMoney(fee.Mul(c.VATRate))
	emtl := roundMoney(c.stampDuty(amount))
	total := fee.Add(vat).Add(emtl)

	return FeeBreakdown{
		Gross:     amount,
		Fee:       fee,
		VAT:       vat,
		StampDuty: emtl,
		Total:     total,
		Net:       amount.Sub(total),
	}
}

// DepositFees computes the breakdown for an inbound deposit: EMTL only,
// no transfer fee, no VAT.
func (c *FeeConfiguration) DepositFees(amount decimal.Decimal) FeeBreakdown {
	emtl := roundMoney(c.stampDuty(amount))

	return FeeBreakdown{
		Gross:     amount,
		StampDuty: emtl,
		Total:     emtl,
		Net:       amount.Sub(emtl),
	}
}

// ContributionFees computes the breakdown for a crowdfunding contribution:
// commission on the gross amount plus VAT on the commission.
func (c *FeeConfiguration) ContributionFees(amount decimal.Decimal) FeeBreakdown {
	commission := roundMoney(amount.Mul(c.CommissionRate))
	vat := roundMoney(commission.Mul(c.VATRate))
	total := commission.Add(vat)

	return FeeBreakdown{
		Gross:      amount,
		Commission: commission,
		VAT:        vat,
		Total:      total,
		Net:        amount.Sub(total),
	}
}
