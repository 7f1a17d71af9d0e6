package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/infrastructure/metrics"
)

// VerifyMode controls how an unverifiable webhook is handled.
type VerifyMode string

const (
	// VerifyModeEnforce rejects deliveries whose signature matches no
	// configured candidate strategy.
	VerifyModeEnforce VerifyMode = "enforce"
	// VerifyModeLog processes unverified deliveries but flags the stored
	// webhook event. Diagnostic use only.
	VerifyModeLog VerifyMode = "log"
)

// DepositUseCase ingests inbound deposit webhooks: verify, deduplicate,
// credit, match, notify. It is safely re-entrant; the sending rail may
// retry any delivery and the external-reference dedup guarantees at most
// one application.
type DepositUseCase struct {
	txManager   TransactionManager
	walletRepo  WalletRepository
	entryRepo   EntryRepository
	webhookRepo WebhookEventRepository
	outboxRepo  OutboxRepository
	ledger      *LedgerUseCase
	matcher     *MatcherUseCase
	feeConfig   *FeeConfigUseCase
	verifier    SignatureVerifier
	verifyMode  VerifyMode
	idGen       IDGenerator
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// DepositUseCaseConfig holds dependencies for DepositUseCase.
type DepositUseCaseConfig struct {
	TxManager   TransactionManager
	WalletRepo  WalletRepository
	EntryRepo   EntryRepository
	WebhookRepo WebhookEventRepository
	OutboxRepo  OutboxRepository
	Ledger      *LedgerUseCase
	Matcher     *MatcherUseCase
	FeeConfig   *FeeConfigUseCase
	Verifier    SignatureVerifier
	VerifyMode  VerifyMode
	IDGen       IDGenerator
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

// NewDepositUseCase creates a new DepositUseCase.
func NewDepositUseCase(cfg DepositUseCaseConfig) *DepositUseCase {
	if cfg.VerifyMode == "" {
		cfg.VerifyMode = VerifyModeEnforce
	}
	return &DepositUseCase{
		txManager:   cfg.TxManager,
		walletRepo:  cfg.WalletRepo,
		entryRepo:   cfg.EntryRepo,
		webhookRepo: cfg.WebhookRepo,
		outboxRepo:  cfg.OutboxRepo,
		ledger:      cfg.Ledger,
		matcher:     cfg.Matcher,
		feeConfig:   cfg.FeeConfig,
		verifier:    cfg.Verifier,
		verifyMode:  cfg.VerifyMode,
		idGen:       cfg.IDGen,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// DepositResult is the outcome of one webhook delivery.
type DepositResult struct {
	Entry     *domain.LedgerEntry
	Duplicate bool
	Verified  bool
	Strategy  string
}

// HandleWebhook runs the full ingestion state machine over the exact raw
// body as delivered. Duplicate deliveries return the original entry with
// Duplicate set, never an error, so the sender stops retrying.
func (uc *DepositUseCase) HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (*DepositResult, error) {
	event := &domain.WebhookEvent{
		ID:              uc.idGen.Generate(),
		Kind:            "deposit",
		RawBody:         rawBody,
		SignatureHeader: signatureHeader,
		ReceivedAt:      time.Now().UTC(),
	}

	strategy, ok := uc.verifier.Verify(rawBody, signatureHeader)
	event.Verified = ok
	event.VerifierStrategy = strategy

	if uc.metrics != nil {
		result := "ok"
		if !ok {
			result = "failed"
		}
		uc.metrics.WebhookVerifications.WithLabelValues(strategy, result).Inc()
	}

	if !ok {
		if uc.verifyMode == VerifyModeEnforce {
			uc.reject(ctx, event, domain.ErrAuthenticationFailed)
			return nil, domain.ErrAuthenticationFailed
		}
		uc.logger.Warn().
			Str("webhook_id", event.ID).
			Msg("processing unverified webhook in degraded mode")
	} else {
		uc.logger.Debug().
			Str("webhook_id", event.ID).
			Str("strategy", strategy).
			Msg("webhook signature verified")
	}

	var notification domain.DepositNotification
	if err := json.Unmarshal(rawBody, &notification); err != nil {
		uc.reject(ctx, event, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err))
		return nil, domain.ErrMalformedPayload
	}

	result, err := uc.ProcessDeposit(ctx, notification)
	if err != nil {
		uc.reject(ctx, event, err)
		return nil, err
	}

	result.Verified = ok
	result.Strategy = strategy

	event.Status = domain.WebhookEventStatusApplied
	event.LedgerEntryID = &result.Entry.ID
	uc.record(ctx, event)

	return result, nil
}

// ProcessDeposit applies a decoded deposit notification to the ledger.
// Also the entry point for reconciliation auto-apply and the manual
// credit tool, which bypass signature verification but share the same
// exactly-once external-reference guarantee.
func (uc *DepositUseCase) ProcessDeposit(ctx context.Context, n domain.DepositNotification) (*DepositResult, error) {
	if err := n.Validate(); err != nil {
		uc.countRejected(err)
		return nil, err
	}

	// Dedup: the delivery may have been applied by an earlier attempt.
	existing, err := uc.entryRepo.GetByExternalReference(ctx, n.Reference)
	if err == nil {
		uc.logger.Info().
			Str("reference", n.Reference).
			Str("entry_id", existing.ID).
			Msg("duplicate deposit delivery, returning original entry")
		if uc.metrics != nil {
			uc.metrics.DepositsDuplicate.Inc()
		}
		return &DepositResult{Entry: existing, Duplicate: true}, nil
	}
	if !errors.Is(err, domain.ErrEntryNotFound) {
		return nil, err
	}

	wallet, err := uc.walletRepo.GetByAccountNumber(ctx, n.AccountNumber)
	if err != nil {
		uc.countRejected(err)
		return nil, err
	}

	cfg, err := uc.feeConfig.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	fees := cfg.DepositFees(n.Amount)

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	reference := n.Reference
	entry, err := uc.ledger.CreditTx(txCtx, tx, MutationInput{
		WalletID:            wallet.ID,
		Amount:              n.Amount,
		Fees:                fees,
		Type:                domain.EntryTypeDeposit,
		Status:              domain.EntryStatusCompleted,
		Description:         n.Narration,
		CounterpartyName:    n.SenderName,
		CounterpartyAccount: n.SenderBank,
		ExternalReference:   &reference,
	})
	if err != nil {
		// A concurrent delivery of the same reference can win the insert
		// race; treat the unique violation as a duplicate success.
		if errors.Is(err, domain.ErrDuplicateReference) {
			_ = tx.Rollback(txCtx)
			if existing, lookupErr := uc.entryRepo.GetByExternalReference(ctx, n.Reference); lookupErr == nil {
				if uc.metrics != nil {
					uc.metrics.DepositsDuplicate.Inc()
				}
				return &DepositResult{Entry: existing, Duplicate: true}, nil
			}
		}
		return nil, err
	}

	outbox := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   wallet.ID,
		AggregateType: domain.AggregateTypeWallet,
		EventType:     domain.EventTypeDepositReceived,
		Payload: map[string]any{
			"wallet_id":   wallet.ID,
			"entry_id":    entry.ID,
			"amount":      entry.Amount.String(),
			"net_amount":  entry.NetAmount.String(),
			"sender_name": n.SenderName,
			"reference":   n.Reference,
		},
		CreatedAt: entry.CreatedAt,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, outbox); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.DepositsApplied.Inc()
		amt, _ := entry.Amount.Float64()
		uc.metrics.DepositAmount.Observe(amt)
	}

	uc.logger.Info().
		Str("wallet_id", wallet.ID).
		Str("entry_id", entry.ID).
		Str("reference", n.Reference).
		Str("amount", entry.Amount.String()).
		Msg("deposit applied")

	// The money is committed; matching is best-effort enrichment and must
	// never unwind the credit.
	if uc.matcher != nil {
		if _, err := uc.matcher.MatchDeposit(ctx, entry, wallet, n.Narration+" "+n.Reference); err != nil {
			if errors.Is(err, domain.ErrAmbiguousMatch) {
				uc.logger.Info().
					Str("entry_id", entry.ID).
					Msg("ambiguous contribution match, leaving deposit unmatched")
			} else {
				uc.logger.Error().Err(err).
					Str("entry_id", entry.ID).
					Msg("contribution matching failed")
			}
		}
	}

	return &DepositResult{Entry: entry}, nil
}

func (uc *DepositUseCase) reject(ctx context.Context, event *domain.WebhookEvent, reason error) {
	event.Status = domain.WebhookEventStatusRejected
	event.RejectReason = reason.Error()
	uc.record(ctx, event)
	uc.countRejected(reason)
	uc.logger.Warn().
		Str("webhook_id", event.ID).
		Err(reason).
		Msg("webhook rejected")
}

func (uc *DepositUseCase) record(ctx context.Context, event *domain.WebhookEvent) {
	if uc.webhookRepo == nil {
		return
	}
	if err := uc.webhookRepo.Create(ctx, event); err != nil {
		uc.logger.Error().Err(err).
			Str("webhook_id", event.ID).
			Msg("failed to persist webhook event")
	}
}

func (uc *DepositUseCase) countRejected(err error) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.DepositsRejected.WithLabelValues(err.Error()).Inc()
}
