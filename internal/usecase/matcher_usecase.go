package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/infrastructure/metrics"
)

// MatcherUseCase links incoming deposits to pending crowdfunding
// contributions. Forward matching resolves a structured link code carried
// in the narration; reverse matching infers the contribution from amount
// and recency. Ambiguity is never resolved automatically: when more than
// one candidate matches, the deposit stays a plain credit.
type MatcherUseCase struct {
	txManager   TransactionManager
	linkRepo    PaymentLinkRepository
	contribRepo ContributionRepository
	goalRepo    GoalRepository
	outboxRepo  OutboxRepository
	ledger      *LedgerUseCase
	feeConfig   *FeeConfigUseCase
	idGen       IDGenerator
	window      time.Duration
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewMatcherUseCase creates a new MatcherUseCase. window bounds how far
// back reverse matching considers pending contributions.
func NewMatcherUseCase(
	txManager TransactionManager,
	linkRepo PaymentLinkRepository,
	contribRepo ContributionRepository,
	goalRepo GoalRepository,
	outboxRepo OutboxRepository,
	ledger *LedgerUseCase,
	feeConfig *FeeConfigUseCase,
	idGen IDGenerator,
	window time.Duration,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *MatcherUseCase {
	if window <= 0 {
		window = DefaultMatchWindow
	}
	return &MatcherUseCase{
		txManager:   txManager,
		linkRepo:    linkRepo,
		contribRepo: contribRepo,
		goalRepo:    goalRepo,
		outboxRepo:  outboxRepo,
		ledger:      ledger,
		feeConfig:   feeConfig,
		idGen:       idGen,
		window:      window,
		logger:      logger,
		metrics:     m,
	}
}

// MatchDeposit attempts to link a committed deposit entry to a pending
// contribution. A nil contribution with a nil error means no candidate
// matched; the deposit stays an unmatched plain credit.
func (uc *MatcherUseCase) MatchDeposit(ctx context.Context, entry *domain.LedgerEntry, wallet *domain.Wallet, narration string) (*domain.Contribution, error) {
	now := time.Now().UTC()

	if code := domain.ExtractLinkCode(narration); code != "" {
		return uc.matchForward(ctx, entry, wallet, code, now)
	}

	return uc.matchReverse(ctx, entry, wallet, now)
}

// matchForward resolves a structured link code from the narration.
func (uc *MatcherUseCase) matchForward(ctx context.Context, entry *domain.LedgerEntry, wallet *domain.Wallet, code string, now time.Time) (*domain.Contribution, error) {
	link, err := uc.linkRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if link.WalletID != wallet.ID {
		return nil, domain.ErrLinkNotOwned
	}
	if err := link.ValidateUsable(now); err != nil {
		return nil, err
	}

	contribution, err := uc.contribRepo.GetPendingByLinkAndAmount(ctx, link.ID, entry.Amount)
	if err != nil {
		return nil, err
	}

	// A contributor may pay without registering first; create the
	// contribution at match time.
	if contribution == nil {
		contribution = &domain.Contribution{
			ID:              uc.idGen.Generate(),
			LinkID:          link.ID,
			ContributorName: entry.CounterpartyName,
			Amount:          entry.Amount,
			Status:          domain.ContributionStatusPending,
			CreatedAt:       now,
		}
		if err := uc.contribRepo.Create(ctx, contribution); err != nil {
			return nil, err
		}
	}

	if err := uc.complete(ctx, link, contribution, entry, now); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.MatchesCompleted.WithLabelValues("forward").Inc()
	}

	return contribution, nil
}

// matchReverse searches pending contributions by exact amount inside the
// recency window. Exactly one candidate completes; zero leaves the
// deposit unmatched; more than one is deliberately skipped.
func (uc *MatcherUseCase) matchReverse(ctx context.Context, entry *domain.LedgerEntry, wallet *domain.Wallet, now time.Time) (*domain.Contribution, error) {
	candidates, err := uc.contribRepo.ListPendingMatches(ctx, wallet.ID, entry.Amount, now.Add(-uc.window))
	if err != nil {
		return nil, err
	}

	switch len(candidates) {
	case 0:
		if uc.metrics != nil {
			uc.metrics.MatchesUnresolved.Inc()
		}
		return nil, nil
	case 1:
		// fall through
	default:
		if uc.metrics != nil {
			uc.metrics.MatchesAmbiguous.Inc()
		}
		uc.logger.Info().
			Str("entry_id", entry.ID).
			Int("candidates", len(candidates)).
			Msg("reverse match ambiguous, skipping")
		return nil, domain.ErrAmbiguousMatch
	}

	contribution := candidates[0]

	link, err := uc.linkRepo.GetByID(ctx, contribution.LinkID)
	if err != nil {
		return nil, err
	}
	if err := link.ValidateUsable(now); err != nil {
		return nil, err
	}

	if err := uc.complete(ctx, link, contribution, entry, now); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.MatchesCompleted.WithLabelValues("reverse").Inc()
	}

	return contribution, nil
}

// complete atomically marks the contribution completed, links it to the
// ledger entry, settles commission and VAT, routes the net amount to the
// linked goal when the link targets one, and consumes a single-use link.
func (uc *MatcherUseCase) complete(ctx context.Context, link *domain.PaymentLink, contribution *domain.Contribution, entry *domain.LedgerEntry, now time.Time) error {
	cfg, err := uc.feeConfig.GetActive(ctx)
	if err != nil {
		return err
	}
	fees := cfg.ContributionFees(contribution.Amount)

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Re-check the link under lock so a concurrent match of a single-use
	// link cannot complete twice.
	locked, err := uc.linkRepo.GetByCodeForUpdate(txCtx, tx, link.Code)
	if err != nil {
		return err
	}
	if err := locked.ValidateUsable(now); err != nil {
		return err
	}

	if err := uc.contribRepo.Complete(txCtx, tx, contribution.ID, entry.ID, now); err != nil {
		return err
	}

	if link.GoalID != nil {
		// Compensating debit, sized by what the deposit actually delivered:
		// the credit was net of EMTL, so the wallet holds entry.NetAmount,
		// not the gross contribution. Commission and VAT settle to the
		// platform; the remainder funds the goal.
		delivered := entry.NetAmount
		routed := delivered.Sub(fees.Total)
		if _, err := uc.ledger.DebitTx(txCtx, tx, MutationInput{
			WalletID:    link.WalletID,
			Amount:      delivered,
			Fees:        fees,
			Type:        domain.EntryTypeGoalRouting,
			Status:      domain.EntryStatusCompleted,
			Description: "contribution routed to goal " + *link.GoalID,
		}); err != nil {
			return err
		}

		goal, err := uc.goalRepo.GetByIDForUpdate(txCtx, tx, *link.GoalID)
		if err != nil {
			return err
		}
		if err := uc.goalRepo.UpdateBalance(txCtx, tx, goal.ID, goal.Balance.Add(routed), now); err != nil {
			return err
		}
	} else if fees.Total.IsPositive() {
		// No goal: funds stay in the wallet, only the commission and its
		// VAT leave it.
		if _, err := uc.ledger.DebitTx(txCtx, tx, MutationInput{
			WalletID:    link.WalletID,
			Amount:      fees.Total,
			Fees:        fees,
			Type:        domain.EntryTypeContribution,
			Status:      domain.EntryStatusCompleted,
			Description: "crowdfunding commission for link " + link.Code,
		}); err != nil {
			return err
		}
	}

	if link.SingleUse {
		if err := uc.linkRepo.MarkConsumed(txCtx, tx, link.ID); err != nil {
			return err
		}
	}

	outbox := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   contribution.ID,
		AggregateType: domain.AggregateTypeContribution,
		EventType:     domain.EventTypeContributionMatched,
		Payload: map[string]any{
			"contribution_id": contribution.ID,
			"link_code":       link.Code,
			"amount":          contribution.Amount.String(),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, outbox); err != nil {
		return err
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	contribution.Status = domain.ContributionStatusCompleted
	contribution.LedgerEntryID = &entry.ID
	contribution.CompletedAt = &now

	uc.logger.Info().
		Str("contribution_id", contribution.ID).
		Str("link_code", link.Code).
		Str("entry_id", entry.ID).
		Msg("contribution matched")

	return nil
}
