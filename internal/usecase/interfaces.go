package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/domain"
)

// WalletRepository defines data access for wallets.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	CreateTx(ctx context.Context, tx Transaction, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Wallet, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetByExternalReference(ctx context.Context, reference string) (*domain.LedgerEntry, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.EntryStatus) error
	GetByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error)
	// SumAppliedByWallet recomputes the expected balance: completed
	// credits minus debits, where pending debits still count because a
	// pending withdrawal has already reserved its funds.
	SumAppliedByWallet(ctx context.Context, walletID string) (decimal.Decimal, error)
	// ListExternalReferences returns the external references of entries
	// created for a wallet inside the window.
	ListExternalReferences(ctx context.Context, walletID string, from, to time.Time) ([]string, error)
	GetBalanceAtTime(ctx context.Context, walletID string, at time.Time) (decimal.Decimal, error)
}

// FeeConfigRepository defines data access for fee configurations.
type FeeConfigRepository interface {
	GetActive(ctx context.Context) (*domain.FeeConfiguration, error)
	Create(ctx context.Context, tx Transaction, cfg *domain.FeeConfiguration) error
	Deactivate(ctx context.Context, tx Transaction, id string, at time.Time) error
}

// PaymentLinkRepository defines data access for payment links.
type PaymentLinkRepository interface {
	Create(ctx context.Context, link *domain.PaymentLink) error
	GetByCode(ctx context.Context, code string) (*domain.PaymentLink, error)
	GetByID(ctx context.Context, id string) (*domain.PaymentLink, error)
	GetByCodeForUpdate(ctx context.Context, tx Transaction, code string) (*domain.PaymentLink, error)
	MarkConsumed(ctx context.Context, tx Transaction, id string) error
	Deactivate(ctx context.Context, id string) error
	GetView(ctx context.Context, code string) (*domain.LinkView, error)
}

// ContributionRepository defines data access for payment link contributions.
type ContributionRepository interface {
	Create(ctx context.Context, contribution *domain.Contribution) error
	CreateTx(ctx context.Context, tx Transaction, contribution *domain.Contribution) error
	GetByID(ctx context.Context, id string) (*domain.Contribution, error)
	// GetPendingByLinkAndAmount returns the oldest pending contribution on
	// the link with exactly the given amount. A nil contribution and nil
	// error means none exists.
	GetPendingByLinkAndAmount(ctx context.Context, linkID string, amount decimal.Decimal) (*domain.Contribution, error)
	// ListPendingMatches returns pending contributions with exactly the
	// given amount on active links owned by the wallet, created after
	// since. Used by reverse matching.
	ListPendingMatches(ctx context.Context, walletID string, amount decimal.Decimal, since time.Time) ([]*domain.Contribution, error)
	Complete(ctx context.Context, tx Transaction, id, entryID string, at time.Time) error
}

// WithdrawalRepository defines data access for withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, tx Transaction, withdrawal *domain.WithdrawalRequest) error
	GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.WithdrawalRequest, error)
	GetByTransferRefForUpdate(ctx context.Context, tx Transaction, reference string) (*domain.WithdrawalRequest, error)
	MarkProcessing(ctx context.Context, tx Transaction, id, transferRef string, at time.Time) error
	MarkCompleted(ctx context.Context, tx Transaction, id string, at time.Time) error
	MarkFailed(ctx context.Context, tx Transaction, id, reason string, at time.Time) error
	// ListProcessingOlderThan returns processing withdrawals whose last
	// update is older than the cutoff, for the status poller.
	ListProcessingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*domain.WithdrawalRequest, error)
	// ListPendingUnsent returns pending withdrawals that never received a
	// transfer reference, for the stuck-withdrawal sweep.
	ListPendingUnsent(ctx context.Context, cutoff time.Time, limit int) ([]*domain.WithdrawalRequest, error)
}

// GoalRepository defines data access for savings goal balance records.
type GoalRepository interface {
	Create(ctx context.Context, goal *domain.SavingsGoal) error
	GetByID(ctx context.Context, id string) (*domain.SavingsGoal, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.SavingsGoal, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
}

// WebhookEventRepository defines data access for captured webhook events.
type WebhookEventRepository interface {
	Create(ctx context.Context, event *domain.WebhookEvent) error
	GetByID(ctx context.Context, id string) (*domain.WebhookEvent, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// RailClient talks to the external banking rail.
type RailClient interface {
	InitiateTransfer(ctx context.Context, req domain.RailTransferRequest) (*domain.RailTransferResult, error)
	GetTransferStatus(ctx context.Context, transferRef string) (*domain.TransferStatusNotification, error)
	ListTransactions(ctx context.Context, accountNumber string, from, to time.Time) ([]domain.RailTransaction, error)
}

// SignatureVerifier verifies a webhook signature over the exact raw body,
// trying each configured candidate strategy in order. It returns the name
// of the strategy that matched.
type SignatureVerifier interface {
	Verify(body []byte, signatureHeader string) (strategy string, ok bool)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// TxRetrier retries a transaction body that failed with a transient
// database error (deadlock, serialization failure). Business errors pass
// through unretried.
type TxRetrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage for API requests.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
