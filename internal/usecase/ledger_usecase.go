package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/infrastructure/metrics"
)

// LedgerUseCase is the only sanctioned path to wallet balance mutation.
// Every mutation locks the affected wallet rows FOR UPDATE in sorted id
// order, writes the ledger entry and the balance change in one
// transaction, and settles fee components to the platform wallet inside
// the same transaction.
type LedgerUseCase struct {
	txManager        TransactionManager
	walletRepo       WalletRepository
	entryRepo        EntryRepository
	idGen            IDGenerator
	platformWalletID string
	retrier          TxRetrier
	metrics          *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	entryRepo EntryRepository,
	idGen IDGenerator,
	platformWalletID string,
	m *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:        txManager,
		walletRepo:       walletRepo,
		entryRepo:        entryRepo,
		idGen:            idGen,
		platformWalletID: platformWalletID,
		metrics:          m,
	}
}

// MutationInput describes one balance mutation. Amount is the gross
// amount of the money event; the entry's net amount is derived as
// Amount minus Fees.Total. ExternalReference, when set, is the
// idempotency key and must be unique across all entries.
type MutationInput struct {
	WalletID            string
	Amount              decimal.Decimal
	Fees                domain.FeeBreakdown
	Type                domain.EntryType
	Status              domain.EntryStatus
	Description         string
	CounterpartyName    string
	CounterpartyAccount string
	ExternalReference   *string
}

// Credit applies a credit in its own transaction.
func (uc *LedgerUseCase) Credit(ctx context.Context, input MutationInput) (*domain.LedgerEntry, error) {
	return uc.mutate(ctx, domain.EntryDirectionCredit, input)
}

// Debit applies a debit in its own transaction.
func (uc *LedgerUseCase) Debit(ctx context.Context, input MutationInput) (*domain.LedgerEntry, error) {
	return uc.mutate(ctx, domain.EntryDirectionDebit, input)
}

// WithRetrier makes standalone mutations retry their whole transaction
// on transient database failures. FOR UPDATE contention between the user
// wallet and the platform wallet is where deadlocks surface.
func (uc *LedgerUseCase) WithRetrier(r TxRetrier) *LedgerUseCase {
	uc.retrier = r
	return uc
}

func (uc *LedgerUseCase) mutate(ctx context.Context, direction domain.EntryDirection, input MutationInput) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry

	op := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if direction == domain.EntryDirectionCredit {
			entry, err = uc.CreditTx(txCtx, tx, input)
		} else {
			entry, err = uc.DebitTx(txCtx, tx, input)
		}
		if err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, op)
	} else {
		err = op()
	}
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// CreditTx applies a credit inside the caller's transaction. The wallet
// (and the platform wallet when fees settle) is locked here; no outbound
// calls may happen while the caller holds the transaction open.
func (uc *LedgerUseCase) CreditTx(ctx context.Context, tx Transaction, input MutationInput) (*domain.LedgerEntry, error) {
	return uc.applyTx(ctx, tx, domain.EntryDirectionCredit, input)
}

// DebitTx applies a debit inside the caller's transaction. Fails with
// ErrInsufficientFunds when the balance cannot cover the gross amount,
// leaving state unchanged.
func (uc *LedgerUseCase) DebitTx(ctx context.Context, tx Transaction, input MutationInput) (*domain.LedgerEntry, error) {
	return uc.applyTx(ctx, tx, domain.EntryDirectionDebit, input)
}

func (uc *LedgerUseCase) applyTx(ctx context.Context, tx Transaction, direction domain.EntryDirection, input MutationInput) (*domain.LedgerEntry, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		uc.countError(err)
		return nil, err
	}

	settleFees := input.Status == domain.EntryStatusCompleted && input.Fees.Total.IsPositive()

	wallet, platform, err := uc.lockWallets(ctx, tx, input.WalletID, settleFees)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	net := input.Amount.Sub(input.Fees.Total)

	var newBalance decimal.Decimal
	switch direction {
	case domain.EntryDirectionCredit:
		if err := wallet.ValidateCredit(input.Amount); err != nil {
			uc.countError(err)
			return nil, err
		}
		newBalance = wallet.ApplyCredit(net)
	case domain.EntryDirectionDebit:
		if err := wallet.ValidateDebit(input.Amount); err != nil {
			uc.countError(err)
			return nil, err
		}
		newBalance = wallet.ApplyDebit(input.Amount)
	}

	entry := &domain.LedgerEntry{
		ID:                  uc.idGen.Generate(),
		WalletID:            wallet.ID,
		Direction:           direction,
		Type:                input.Type,
		Amount:              input.Amount,
		Fee:                 input.Fees.Fee,
		VAT:                 input.Fees.VAT,
		StampDuty:           input.Fees.StampDuty,
		Commission:          input.Fees.Commission,
		NetAmount:           net,
		Description:         input.Description,
		CounterpartyName:    input.CounterpartyName,
		CounterpartyAccount: input.CounterpartyAccount,
		ExternalReference:   input.ExternalReference,
		Status:              input.Status,
		BalanceBefore:       wallet.Balance,
		BalanceAfter:        newBalance,
		WalletVersion:       wallet.Version + 1,
		CreatedAt:           now,
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.walletRepo.UpdateBalance(ctx, tx, wallet.ID, newBalance, now); err != nil {
		return nil, err
	}

	wallet.Balance = newBalance
	wallet.Version++

	if settleFees {
		if _, err := uc.settleLocked(ctx, tx, platform, input.Fees, entry, now); err != nil {
			return nil, err
		}
	}

	if uc.metrics != nil {
		uc.metrics.EntriesCreated.WithLabelValues(string(input.Type), string(direction)).Inc()
	}

	return entry, nil
}

// SettleFeesTx credits the platform wallet with the fee components of a
// previously pending entry, once that entry reaches completed. Used by the
// withdrawal path, which defers settlement until the rail confirms.
func (uc *LedgerUseCase) SettleFeesTx(ctx context.Context, tx Transaction, fees domain.FeeBreakdown, source *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	if !fees.Total.IsPositive() {
		return nil, nil
	}

	platform, err := uc.walletRepo.GetByIDForUpdate(ctx, tx, uc.platformWalletID)
	if err != nil {
		return nil, err
	}

	return uc.settleLocked(ctx, tx, platform, fees, source, time.Now().UTC())
}

// settleLocked writes the fee settlement entry against an already locked
// platform wallet.
func (uc *LedgerUseCase) settleLocked(ctx context.Context, tx Transaction, platform *domain.Wallet, fees domain.FeeBreakdown, source *domain.LedgerEntry, now time.Time) (*domain.LedgerEntry, error) {
	newBalance := platform.ApplyCredit(fees.Total)

	entry := &domain.LedgerEntry{
		ID:            uc.idGen.Generate(),
		WalletID:      platform.ID,
		Direction:     domain.EntryDirectionCredit,
		Type:          domain.EntryTypeFeeSettle,
		Amount:        fees.Total,
		Fee:           fees.Fee,
		VAT:           fees.VAT,
		StampDuty:     fees.StampDuty,
		Commission:    fees.Commission,
		NetAmount:     fees.Total,
		Description:   "fee settlement for entry " + source.ID,
		Status:        domain.EntryStatusCompleted,
		BalanceBefore: platform.Balance,
		BalanceAfter:  newBalance,
		WalletVersion: platform.Version + 1,
		CreatedAt:     now,
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.walletRepo.UpdateBalance(ctx, tx, platform.ID, newBalance, now); err != nil {
		return nil, err
	}

	platform.Balance = newBalance
	platform.Version++

	if uc.metrics != nil {
		uc.metrics.FeesSettled.Inc()
	}

	return entry, nil
}

// lockWallets acquires FOR UPDATE locks on the target wallet and, when
// fees will settle, the platform wallet, always in sorted id order so
// concurrent mutators cannot deadlock.
func (uc *LedgerUseCase) lockWallets(ctx context.Context, tx Transaction, walletID string, withPlatform bool) (wallet, platform *domain.Wallet, err error) {
	if !withPlatform || walletID == uc.platformWalletID {
		w, err := uc.walletRepo.GetByIDForUpdate(ctx, tx, walletID)
		if err != nil {
			return nil, nil, err
		}
		if walletID == uc.platformWalletID {
			return w, w, nil
		}
		return w, nil, nil
	}

	ids := []string{walletID, uc.platformWalletID}
	sort.Strings(ids)

	wallets, err := uc.walletRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, nil, err
	}
	if len(wallets) != len(ids) {
		return nil, nil, domain.ErrWalletNotFound
	}

	for _, w := range wallets {
		switch w.ID {
		case uc.platformWalletID:
			platform = w
		default:
			wallet = w
		}
	}
	if wallet == nil || platform == nil {
		return nil, nil, domain.ErrWalletNotFound
	}

	return wallet, platform, nil
}

func (uc *LedgerUseCase) countError(err error) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.LedgerErrors.WithLabelValues(err.Error()).Inc()
}
