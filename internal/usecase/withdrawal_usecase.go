package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/infrastructure/metrics"
)

// WithdrawalUseCase orchestrates outbound transfers. Funds are reserved
// with a pessimistic debit before the rail is called, the rail call
// itself runs outside any database transaction, and a confirmed failure
// refunds the gross debit exactly once. Fee components settle to the
// platform wallet only when the rail confirms completion, so a refund
// always restores the exact amount taken.
type WithdrawalUseCase struct {
	txManager      TransactionManager
	walletRepo     WalletRepository
	entryRepo      EntryRepository
	withdrawalRepo WithdrawalRepository
	outboxRepo     OutboxRepository
	ledger         *LedgerUseCase
	feeConfig      *FeeConfigUseCase
	rail           RailClient
	idGen          IDGenerator
	callbackURL    string
	logger         zerolog.Logger
	metrics        *metrics.Metrics
}

// WithdrawalUseCaseConfig holds dependencies for WithdrawalUseCase.
type WithdrawalUseCaseConfig struct {
	TxManager      TransactionManager
	WalletRepo     WalletRepository
	EntryRepo      EntryRepository
	WithdrawalRepo WithdrawalRepository
	OutboxRepo     OutboxRepository
	Ledger         *LedgerUseCase
	FeeConfig      *FeeConfigUseCase
	Rail           RailClient
	IDGen          IDGenerator
	CallbackURL    string
	Logger         zerolog.Logger
	Metrics        *metrics.Metrics
}

// NewWithdrawalUseCase creates a new WithdrawalUseCase.
func NewWithdrawalUseCase(cfg WithdrawalUseCaseConfig) *WithdrawalUseCase {
	return &WithdrawalUseCase{
		txManager:      cfg.TxManager,
		walletRepo:     cfg.WalletRepo,
		entryRepo:      cfg.EntryRepo,
		withdrawalRepo: cfg.WithdrawalRepo,
		outboxRepo:     cfg.OutboxRepo,
		ledger:         cfg.Ledger,
		feeConfig:      cfg.FeeConfig,
		rail:           cfg.Rail,
		idGen:          cfg.IDGen,
		callbackURL:    cfg.CallbackURL,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
	}
}

// RequestWithdrawalInput represents a withdrawal request.
type RequestWithdrawalInput struct {
	WalletID           string
	Amount             decimal.Decimal
	DestinationAccount string
	DestinationBank    string
	DestinationName    string
	Narration          string
}

// RequestWithdrawal reserves the gross amount, records the withdrawal,
// then hands the transfer to the rail. A synchronous rejection by the
// rail refunds immediately; an accepted transfer moves to processing and
// resolves later via webhook or polling.
func (uc *WithdrawalUseCase) RequestWithdrawal(ctx context.Context, input RequestWithdrawalInput) (*domain.WithdrawalRequest, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateAccountNumber(input.DestinationAccount); err != nil {
		return nil, err
	}

	cfg, err := uc.feeConfig.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	fees := cfg.TransferFees(input.Amount)

	withdrawal, entry, err := uc.reserve(ctx, input, fees)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WithdrawalsRequested.Inc()
	}

	// The rail call happens with no row locks held. Whatever happens
	// here, the reserved debit stays consistent: a later confirmed
	// failure, the stuck sweep, or the poller resolves it.
	result, err := uc.rail.InitiateTransfer(ctx, domain.RailTransferRequest{
		DestinationAccount: input.DestinationAccount,
		DestinationBank:    input.DestinationBank,
		DestinationName:    input.DestinationName,
		Amount:             fees.Net,
		Narration:          input.Narration,
		CustomerReference:  withdrawal.ID,
		CallbackURL:        uc.callbackURL,
	})
	if err != nil {
		if errors.Is(err, domain.ErrProviderUnavailable) {
			// Outcome unknown: the transfer may still be in flight, so the
			// reservation must stand until polling or the sweep decides.
			uc.logger.Warn().
				Str("withdrawal_id", withdrawal.ID).
				Msg("rail unreachable, leaving withdrawal pending for the sweep")
			return withdrawal, nil
		}
		// Definitive synchronous rejection: refund right away.
		if refundErr := uc.failAndRefund(ctx, withdrawal.ID, err.Error()); refundErr != nil {
			uc.logger.Error().Err(refundErr).
				Str("withdrawal_id", withdrawal.ID).
				Msg("refund after rail rejection failed")
			return nil, refundErr
		}
		return nil, err
	}

	if err := uc.markProcessing(ctx, withdrawal.ID, result.TransferReference); err != nil {
		return nil, err
	}

	withdrawal.Status = domain.WithdrawalStatusProcessing
	withdrawal.TransferReference = &result.TransferReference

	uc.logger.Info().
		Str("withdrawal_id", withdrawal.ID).
		Str("entry_id", entry.ID).
		Str("transfer_ref", result.TransferReference).
		Str("amount", input.Amount.String()).
		Msg("withdrawal accepted by rail")

	return withdrawal, nil
}

// reserve debits the gross amount as a pending entry and records the
// withdrawal, atomically.
func (uc *WithdrawalUseCase) reserve(ctx context.Context, input RequestWithdrawalInput, fees domain.FeeBreakdown) (*domain.WithdrawalRequest, *domain.LedgerEntry, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	entry, err := uc.ledger.DebitTx(txCtx, tx, MutationInput{
		WalletID:            input.WalletID,
		Amount:              input.Amount,
		Fees:                fees,
		Type:                domain.EntryTypeWithdrawal,
		Status:              domain.EntryStatusPending,
		Description:         input.Narration,
		CounterpartyName:    input.DestinationName,
		CounterpartyAccount: input.DestinationAccount,
	})
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	withdrawal := &domain.WithdrawalRequest{
		ID:                 uc.idGen.Generate(),
		WalletID:           input.WalletID,
		LedgerEntryID:      entry.ID,
		Amount:             input.Amount,
		Fees:               fees,
		DestinationAccount: input.DestinationAccount,
		DestinationBank:    input.DestinationBank,
		DestinationName:    input.DestinationName,
		Narration:          input.Narration,
		Status:             domain.WithdrawalStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := uc.withdrawalRepo.Create(txCtx, tx, withdrawal); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, nil, err
	}

	return withdrawal, entry, nil
}

func (uc *WithdrawalUseCase) markProcessing(ctx context.Context, id, transferRef string) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := uc.withdrawalRepo.MarkProcessing(ctx, tx, id, transferRef, time.Now().UTC()); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// HandleTransferStatus applies a terminal status notification from the
// rail, delivered by webhook or fetched by the poller. Notifications for
// withdrawals already in a terminal state are acknowledged and ignored,
// which is what makes repeated failure deliveries refund only once.
func (uc *WithdrawalUseCase) HandleTransferStatus(ctx context.Context, n domain.TransferStatusNotification) error {
	if n.TransferReference == "" {
		return domain.ErrTransferReferenceMissing
	}

	switch n.Status {
	case domain.TransferStatusSuccessful:
		return uc.complete(ctx, n.TransferReference)
	case domain.TransferStatusFailed:
		return uc.failByTransferRef(ctx, n.TransferReference, n.Message)
	default:
		uc.logger.Debug().
			Str("transfer_ref", n.TransferReference).
			Str("status", n.Status).
			Msg("non-terminal transfer status, ignoring")
		return nil
	}
}

// complete finalizes a successful withdrawal: the pending debit becomes
// completed and the fee components settle to the platform wallet.
func (uc *WithdrawalUseCase) complete(ctx context.Context, transferRef string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	withdrawal, err := uc.withdrawalRepo.GetByTransferRefForUpdate(txCtx, tx, transferRef)
	if err != nil {
		return err
	}
	if withdrawal.Terminal() {
		uc.logger.Info().
			Str("withdrawal_id", withdrawal.ID).
			Str("status", string(withdrawal.Status)).
			Msg("duplicate transfer status, withdrawal already final")
		return nil
	}

	now := time.Now().UTC()
	if err := uc.withdrawalRepo.MarkCompleted(txCtx, tx, withdrawal.ID, now); err != nil {
		return err
	}
	if err := uc.entryRepo.UpdateStatus(txCtx, tx, withdrawal.LedgerEntryID, domain.EntryStatusCompleted); err != nil {
		return err
	}

	entry, err := uc.entryRepo.GetByID(txCtx, withdrawal.LedgerEntryID)
	if err != nil {
		return err
	}
	if _, err := uc.ledger.SettleFeesTx(txCtx, tx, withdrawal.Fees, entry); err != nil {
		return err
	}

	outbox := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   withdrawal.ID,
		AggregateType: domain.AggregateTypeWithdrawal,
		EventType:     domain.EventTypeWithdrawalCompleted,
		Payload: map[string]any{
			"withdrawal_id": withdrawal.ID,
			"wallet_id":     withdrawal.WalletID,
			"amount":        withdrawal.Amount.String(),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, outbox); err != nil {
		return err
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.WithdrawalsCompleted.Inc()
	}

	uc.logger.Info().
		Str("withdrawal_id", withdrawal.ID).
		Str("transfer_ref", transferRef).
		Msg("withdrawal completed")

	return nil
}

func (uc *WithdrawalUseCase) failByTransferRef(ctx context.Context, transferRef, reason string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	withdrawal, err := uc.withdrawalRepo.GetByTransferRefForUpdate(txCtx, tx, transferRef)
	if err != nil {
		return err
	}

	if err := uc.refundLocked(txCtx, tx, withdrawal, reason); err != nil {
		if errors.Is(err, domain.ErrWithdrawalAlreadyFinal) {
			return nil
		}
		return err
	}

	return tx.Commit(txCtx)
}

// failAndRefund resolves a withdrawal by id after a definitive
// synchronous rail rejection.
func (uc *WithdrawalUseCase) failAndRefund(ctx context.Context, withdrawalID, reason string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	withdrawal, err := uc.withdrawalRepo.GetByIDForUpdate(txCtx, tx, withdrawalID)
	if err != nil {
		return err
	}

	if err := uc.refundLocked(txCtx, tx, withdrawal, reason); err != nil {
		if errors.Is(err, domain.ErrWithdrawalAlreadyFinal) {
			return nil
		}
		return err
	}

	return tx.Commit(txCtx)
}

// refundLocked marks the locked withdrawal failed, fails its debit entry
// and credits back exactly the gross amount. No fees were settled for a
// non-completed withdrawal, so the refund makes the wallet whole.
func (uc *WithdrawalUseCase) refundLocked(ctx context.Context, tx Transaction, withdrawal *domain.WithdrawalRequest, reason string) error {
	if !withdrawal.Refundable() {
		uc.logger.Info().
			Str("withdrawal_id", withdrawal.ID).
			Str("status", string(withdrawal.Status)).
			Msg("refund skipped, withdrawal already final")
		return domain.ErrWithdrawalAlreadyFinal
	}

	now := time.Now().UTC()
	if err := uc.withdrawalRepo.MarkFailed(ctx, tx, withdrawal.ID, reason, now); err != nil {
		return err
	}
	if err := uc.entryRepo.UpdateStatus(ctx, tx, withdrawal.LedgerEntryID, domain.EntryStatusFailed); err != nil {
		return err
	}

	if _, err := uc.ledger.CreditTx(ctx, tx, MutationInput{
		WalletID:    withdrawal.WalletID,
		Amount:      withdrawal.Amount,
		Type:        domain.EntryTypeRefund,
		Status:      domain.EntryStatusCompleted,
		Description: "refund for failed withdrawal " + withdrawal.ID,
	}); err != nil {
		return err
	}

	outbox := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   withdrawal.ID,
		AggregateType: domain.AggregateTypeWithdrawal,
		EventType:     domain.EventTypeWithdrawalFailed,
		Payload: map[string]any{
			"withdrawal_id": withdrawal.ID,
			"wallet_id":     withdrawal.WalletID,
			"amount":        withdrawal.Amount.String(),
			"reason":        reason,
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(ctx, tx, outbox); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.WithdrawalsFailed.Inc()
		uc.metrics.WithdrawalsRefunded.Inc()
	}

	uc.logger.Info().
		Str("withdrawal_id", withdrawal.ID).
		Str("reason", reason).
		Msg("withdrawal failed, gross amount refunded")

	return nil
}

// PollProcessing queries the rail for withdrawals stuck in processing
// longer than maxAge and applies any terminal status it finds. Covers
// lost status webhooks.
func (uc *WithdrawalUseCase) PollProcessing(ctx context.Context, maxAge time.Duration, limit int) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	stuck, err := uc.withdrawalRepo.ListProcessingOlderThan(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, w := range stuck {
		if w.TransferReference == nil {
			continue
		}
		status, err := uc.rail.GetTransferStatus(ctx, *w.TransferReference)
		if err != nil {
			uc.logger.Warn().Err(err).
				Str("withdrawal_id", w.ID).
				Msg("transfer status poll failed")
			continue
		}
		if status.Status != domain.TransferStatusSuccessful && status.Status != domain.TransferStatusFailed {
			continue
		}
		if err := uc.HandleTransferStatus(ctx, *status); err != nil {
			uc.logger.Error().Err(err).
				Str("withdrawal_id", w.ID).
				Msg("applying polled transfer status failed")
			continue
		}
		resolved++
	}

	return resolved, nil
}

// SweepStuckPending refunds withdrawals that stayed pending without a
// transfer reference past maxAge. These never reached the rail, or the
// rail's answer was lost before a reference was recorded; after checking
// the rail by customer reference finds nothing, the reservation is
// released.
func (uc *WithdrawalUseCase) SweepStuckPending(ctx context.Context, maxAge time.Duration, limit int) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	stuck, err := uc.withdrawalRepo.ListPendingUnsent(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, w := range stuck {
		// The customer reference is the withdrawal id, so the rail can be
		// asked whether the transfer ever existed.
		if status, err := uc.rail.GetTransferStatus(ctx, w.ID); err == nil && status.TransferReference != "" {
			if err := uc.markProcessing(ctx, w.ID, status.TransferReference); err != nil {
				uc.logger.Error().Err(err).
					Str("withdrawal_id", w.ID).
					Msg("recovering transfer reference failed")
			}
			continue
		}

		if err := uc.failAndRefund(ctx, w.ID, "stuck pending, never reached the rail"); err != nil {
			uc.logger.Error().Err(err).
				Str("withdrawal_id", w.ID).
				Msg("stuck withdrawal refund failed")
			continue
		}
		swept++
	}

	return swept, nil
}

// GetWithdrawal retrieves a withdrawal request by ID.
func (uc *WithdrawalUseCase) GetWithdrawal(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	return uc.withdrawalRepo.GetByID(ctx, id)
}
