package domain

import "errors"

var (
	// Ledger errors
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrCurrencyMismatch  = errors.New("cannot move funds between different currencies")
	ErrEntryNotFound     = errors.New("ledger entry not found")

	// Webhook errors
	ErrAuthenticationFailed = errors.New("webhook signature verification failed")
	ErrDuplicateReference   = errors.New("external reference already applied")
	ErrMalformedPayload     = errors.New("malformed webhook payload")

	// Payment link errors
	ErrLinkNotFound         = errors.New("payment link not found")
	ErrLinkInactive         = errors.New("payment link is not active")
	ErrLinkExpired          = errors.New("payment link has expired")
	ErrLinkAlreadyUsed      = errors.New("payment link already consumed")
	ErrLinkNotOwned         = errors.New("payment link does not belong to receiving wallet")
	ErrAmbiguousMatch       = errors.New("more than one pending contribution matches")
	ErrContributionDone     = errors.New("contribution already completed")
	ErrContributionNotFound = errors.New("contribution not found")

	// Withdrawal errors
	ErrWithdrawalNotFound       = errors.New("withdrawal request not found")
	ErrWithdrawalNotRefundable  = errors.New("withdrawal is not in a refundable state")
	ErrWithdrawalAlreadyFinal   = errors.New("withdrawal already in a terminal state")
	ErrProviderUnavailable      = errors.New("outbound transfer provider unavailable")
	ErrTransferReferenceMissing = errors.New("transfer reference missing")

	// Fee configuration errors
	ErrNoActiveFeeConfig = errors.New("no active fee configuration")

	// Reconciliation errors
	ErrReconciliationMismatch = errors.New("ledger balance does not match entry history")
	ErrConfirmationRequired   = errors.New("manual credit requires explicit confirmation")

	// Goal errors
	ErrGoalNotFound = errors.New("savings goal not found")
)
