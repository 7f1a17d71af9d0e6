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

// ReconciliationUseCase runs the periodic safety-net jobs: the balance
// audit, missed-deposit recovery against the rail's own history, the
// stuck-withdrawal sweep, and the operator-driven manual credit.
type ReconciliationUseCase struct {
	walletRepo   WalletRepository
	entryRepo    EntryRepository
	deposits     *DepositUseCase
	withdrawals  *WithdrawalUseCase
	feeConfig    *FeeConfigUseCase
	ledger       *LedgerUseCase
	rail         RailClient
	stuckAge     time.Duration
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	auditPage    int
	recoveryPage int
}

// ReconciliationUseCaseConfig holds dependencies for ReconciliationUseCase.
type ReconciliationUseCaseConfig struct {
	WalletRepo  WalletRepository
	EntryRepo   EntryRepository
	Deposits    *DepositUseCase
	Withdrawals *WithdrawalUseCase
	FeeConfig   *FeeConfigUseCase
	Ledger      *LedgerUseCase
	Rail        RailClient
	StuckAge    time.Duration
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(cfg ReconciliationUseCaseConfig) *ReconciliationUseCase {
	if cfg.StuckAge <= 0 {
		cfg.StuckAge = 30 * time.Minute
	}
	return &ReconciliationUseCase{
		walletRepo:   cfg.WalletRepo,
		entryRepo:    cfg.EntryRepo,
		deposits:     cfg.Deposits,
		withdrawals:  cfg.Withdrawals,
		feeConfig:    cfg.FeeConfig,
		ledger:       cfg.Ledger,
		rail:         cfg.Rail,
		stuckAge:     cfg.StuckAge,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		auditPage:    200,
		recoveryPage: 100,
	}
}

// BalanceMismatch is one wallet whose stored balance disagrees with its
// entry history.
type BalanceMismatch struct {
	WalletID string
	Stored   decimal.Decimal
	Computed decimal.Decimal
	Delta    decimal.Decimal
}

// AuditReport is the outcome of one balance audit run.
type AuditReport struct {
	WalletsChecked int
	Mismatches     []BalanceMismatch
	RanAt          time.Time
}

// AuditBalances recomputes every wallet's balance from its entry history
// and reports disagreements. It never repairs: a mismatch means an
// invariant was violated somewhere, and silently rewriting the balance
// would destroy the evidence.
func (uc *ReconciliationUseCase) AuditBalances(ctx context.Context) (*AuditReport, error) {
	report := &AuditReport{RanAt: time.Now().UTC()}

	offset := 0
	for {
		wallets, err := uc.walletRepo.List(ctx, uc.auditPage, offset)
		if err != nil {
			uc.countRun("balance_audit", "error")
			return nil, err
		}
		if len(wallets) == 0 {
			break
		}

		for _, w := range wallets {
			computed, err := uc.entryRepo.SumAppliedByWallet(ctx, w.ID)
			if err != nil {
				uc.countRun("balance_audit", "error")
				return nil, err
			}
			if !computed.Equal(w.Balance) {
				report.Mismatches = append(report.Mismatches, BalanceMismatch{
					WalletID: w.ID,
					Stored:   w.Balance,
					Computed: computed,
					Delta:    w.Balance.Sub(computed),
				})
				uc.logger.Error().
					Str("wallet_id", w.ID).
					Str("stored", w.Balance.String()).
					Str("computed", computed.String()).
					Msg("balance audit mismatch")
			}
			report.WalletsChecked++
		}

		offset += len(wallets)
	}

	if uc.metrics != nil {
		uc.metrics.ReconciliationMismatches.Set(float64(len(report.Mismatches)))
	}

	if len(report.Mismatches) > 0 {
		uc.countRun("balance_audit", "mismatch")
		return report, domain.ErrReconciliationMismatch
	}

	uc.countRun("balance_audit", "clean")
	return report, nil
}

// RecoveryReport is the outcome of one missed-deposit recovery run.
type RecoveryReport struct {
	WalletsScanned int
	Found          int
	Applied        int
	RanAt          time.Time
}

// RecoverMissedDeposits diffs the rail's transaction history against the
// ledger for the given window and re-applies credits the webhook path
// never delivered. apply=false reports without crediting. Re-application
// goes through the normal deposit path, so the external-reference dedup
// makes a concurrent late webhook harmless.
func (uc *ReconciliationUseCase) RecoverMissedDeposits(ctx context.Context, from, to time.Time, apply bool) (*RecoveryReport, error) {
	report := &RecoveryReport{RanAt: time.Now().UTC()}

	offset := 0
	for {
		wallets, err := uc.walletRepo.List(ctx, uc.recoveryPage, offset)
		if err != nil {
			uc.countRun("missed_deposits", "error")
			return nil, err
		}
		if len(wallets) == 0 {
			break
		}

		for _, w := range wallets {
			if w.Kind != domain.WalletKindUser || w.AccountNumber == "" {
				continue
			}
			if err := uc.recoverWallet(ctx, w, from, to, apply, report); err != nil {
				uc.logger.Error().Err(err).
					Str("wallet_id", w.ID).
					Msg("missed deposit recovery failed for wallet")
			}
			report.WalletsScanned++
		}

		offset += len(wallets)
	}

	uc.countRun("missed_deposits", "done")
	return report, nil
}

func (uc *ReconciliationUseCase) recoverWallet(ctx context.Context, w *domain.Wallet, from, to time.Time, apply bool, report *RecoveryReport) error {
	history, err := uc.rail.ListTransactions(ctx, w.AccountNumber, from, to)
	if err != nil {
		return err
	}

	for _, tx := range history {
		if tx.Type != "credit" {
			continue
		}

		_, err := uc.entryRepo.GetByExternalReference(ctx, tx.Reference)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrEntryNotFound) {
			return err
		}

		report.Found++
		if uc.metrics != nil {
			uc.metrics.MissedDepositsFound.Inc()
		}
		uc.logger.Warn().
			Str("wallet_id", w.ID).
			Str("reference", tx.Reference).
			Str("amount", tx.Amount.String()).
			Time("posted_at", tx.PostedAt).
			Msg("deposit present on rail but missing from ledger")

		if !apply {
			continue
		}

		result, err := uc.deposits.ProcessDeposit(ctx, domain.DepositNotification{
			AccountNumber: tx.AccountNumber,
			Reference:     tx.Reference,
			Amount:        tx.Amount,
			SenderName:    tx.SenderName,
			SenderBank:    tx.SenderBank,
			Narration:     tx.Narration,
		})
		if err != nil {
			uc.logger.Error().Err(err).
				Str("reference", tx.Reference).
				Msg("recovered deposit application failed")
			continue
		}
		if !result.Duplicate {
			report.Applied++
			if uc.metrics != nil {
				uc.metrics.MissedDepositsApplied.Inc()
			}
		}
	}

	return nil
}

// SweepStuckWithdrawals resolves withdrawals left in limbo: processing
// ones are polled for a terminal status, pending ones that never got a
// transfer reference are refunded.
func (uc *ReconciliationUseCase) SweepStuckWithdrawals(ctx context.Context) (polled, swept int, err error) {
	polled, err = uc.withdrawals.PollProcessing(ctx, uc.stuckAge, 100)
	if err != nil {
		uc.countRun("stuck_withdrawals", "error")
		return 0, 0, err
	}

	swept, err = uc.withdrawals.SweepStuckPending(ctx, uc.stuckAge, 100)
	if err != nil {
		uc.countRun("stuck_withdrawals", "error")
		return polled, 0, err
	}

	uc.countRun("stuck_withdrawals", "done")
	return polled, swept, nil
}

// ManualCreditInput represents an operator-initiated credit for a deposit
// the automated paths could not recover.
type ManualCreditInput struct {
	WalletID  string
	Amount    decimal.Decimal
	Reference string
	Narration string
	Operator  string
	// Confirm must be set explicitly; a manual credit moves real money.
	Confirm bool
}

// ManualCredit applies an operator-verified credit. The reference shares
// the external-reference dedup space with webhook deposits, so an
// operator cannot re-apply a deposit the webhook already delivered.
func (uc *ReconciliationUseCase) ManualCredit(ctx context.Context, input ManualCreditInput) (*domain.LedgerEntry, error) {
	if !input.Confirm {
		return nil, domain.ErrConfirmationRequired
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.Reference == "" {
		return nil, domain.ErrMalformedPayload
	}

	if existing, err := uc.entryRepo.GetByExternalReference(ctx, input.Reference); err == nil {
		uc.logger.Warn().
			Str("reference", input.Reference).
			Str("entry_id", existing.ID).
			Msg("manual credit reference already applied")
		return nil, domain.ErrDuplicateReference
	} else if !errors.Is(err, domain.ErrEntryNotFound) {
		return nil, err
	}

	cfg, err := uc.feeConfig.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	fees := cfg.DepositFees(input.Amount)

	reference := input.Reference
	entry, err := uc.ledger.Credit(ctx, MutationInput{
		WalletID:          input.WalletID,
		Amount:            input.Amount,
		Fees:              fees,
		Type:              domain.EntryTypeManual,
		Status:            domain.EntryStatusCompleted,
		Description:       input.Narration,
		CounterpartyName:  input.Operator,
		ExternalReference: &reference,
	})
	if err != nil {
		return nil, err
	}

	uc.countRun("manual_credit", "applied")
	uc.logger.Info().
		Str("wallet_id", input.WalletID).
		Str("entry_id", entry.ID).
		Str("reference", input.Reference).
		Str("operator", input.Operator).
		Msg("manual credit applied")

	return entry, nil
}

func (uc *ReconciliationUseCase) countRun(job, result string) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.ReconciliationRuns.WithLabelValues(job, result).Inc()
}
