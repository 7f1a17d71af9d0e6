package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/domain"
)

// PaymentLinkUseCase manages crowdfunding payment links, their public
// views and contributor registrations.
type PaymentLinkUseCase struct {
	linkRepo    PaymentLinkRepository
	contribRepo ContributionRepository
	walletRepo  WalletRepository
	goalRepo    GoalRepository
	idGen       IDGenerator
}

// NewPaymentLinkUseCase creates a new PaymentLinkUseCase.
func NewPaymentLinkUseCase(
	linkRepo PaymentLinkRepository,
	contribRepo ContributionRepository,
	walletRepo WalletRepository,
	goalRepo GoalRepository,
	idGen IDGenerator,
) *PaymentLinkUseCase {
	return &PaymentLinkUseCase{
		linkRepo:    linkRepo,
		contribRepo: contribRepo,
		walletRepo:  walletRepo,
		goalRepo:    goalRepo,
		idGen:       idGen,
	}
}

// CreateLinkInput represents input for creating a payment link.
type CreateLinkInput struct {
	WalletID     string
	GoalID       *string
	Title        string
	TargetAmount *decimal.Decimal
	SingleUse    bool
	ExpiresAt    *time.Time
}

// CreateLink creates a shareable payment link for the wallet. The code is
// derived from a fresh ULID so contributors can carry it in a transfer
// narration without ambiguity.
func (uc *PaymentLinkUseCase) CreateLink(ctx context.Context, input CreateLinkInput) (*domain.PaymentLink, error) {
	if _, err := uc.walletRepo.GetByID(ctx, input.WalletID); err != nil {
		return nil, err
	}

	if input.GoalID != nil {
		goal, err := uc.goalRepo.GetByID(ctx, *input.GoalID)
		if err != nil {
			return nil, err
		}
		if goal.WalletID != input.WalletID {
			return nil, domain.ErrGoalNotFound
		}
	}

	if input.TargetAmount != nil {
		if err := domain.ValidateAmount(*input.TargetAmount); err != nil {
			return nil, err
		}
	}

	id := uc.idGen.Generate()
	link := &domain.PaymentLink{
		ID:           id,
		Code:         linkCodeFromID(id),
		WalletID:     input.WalletID,
		GoalID:       input.GoalID,
		Title:        strings.TrimSpace(input.Title),
		TargetAmount: input.TargetAmount,
		SingleUse:    input.SingleUse,
		Active:       true,
		ExpiresAt:    input.ExpiresAt,
		CreatedAt:    time.Now().UTC(),
	}

	if err := uc.linkRepo.Create(ctx, link); err != nil {
		return nil, err
	}

	return link, nil
}

// linkCodeFromID derives a short shareable code from a ULID. The ULID
// tail carries its randomness, so the last characters collide no more
// than the full id does in practice.
func linkCodeFromID(id string) string {
	const codeLen = 8
	if len(id) <= codeLen {
		return strings.ToUpper(id)
	}
	return strings.ToUpper(id[len(id)-codeLen:])
}

// GetLink retrieves a payment link by code for its owner.
func (uc *PaymentLinkUseCase) GetLink(ctx context.Context, code string) (*domain.PaymentLink, error) {
	return uc.linkRepo.GetByCode(ctx, code)
}

// GetView returns the public projection of a link: totals and state, no
// owner identifiers.
func (uc *PaymentLinkUseCase) GetView(ctx context.Context, code string) (*domain.LinkView, error) {
	return uc.linkRepo.GetView(ctx, code)
}

// RegisterContributionInput represents a contributor announcing an
// intended payment against a link.
type RegisterContributionInput struct {
	Code            string
	ContributorName string
	Amount          decimal.Decimal
}

// RegisterContribution records a pending contribution. The actual money
// arrives later as a bank transfer and is linked by the matcher.
func (uc *PaymentLinkUseCase) RegisterContribution(ctx context.Context, input RegisterContributionInput) (*domain.Contribution, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	link, err := uc.linkRepo.GetByCode(ctx, input.Code)
	if err != nil {
		return nil, err
	}
	if err := link.ValidateUsable(time.Now().UTC()); err != nil {
		return nil, err
	}

	contribution := &domain.Contribution{
		ID:              uc.idGen.Generate(),
		LinkID:          link.ID,
		ContributorName: strings.TrimSpace(input.ContributorName),
		Amount:          input.Amount,
		Status:          domain.ContributionStatusPending,
		CreatedAt:       time.Now().UTC(),
	}

	if err := uc.contribRepo.Create(ctx, contribution); err != nil {
		return nil, err
	}

	return contribution, nil
}

// DeactivateLink turns a link off so it stops accepting contributions.
func (uc *PaymentLinkUseCase) DeactivateLink(ctx context.Context, code, walletID string) error {
	link, err := uc.linkRepo.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if link.WalletID != walletID {
		return domain.ErrLinkNotOwned
	}
	return uc.linkRepo.Deactivate(ctx, link.ID)
}

// CreateGoalInput represents input for creating a savings goal.
type CreateGoalInput struct {
	WalletID string
	Name     string
}

// CreateGoal creates a named savings goal under the wallet.
func (uc *PaymentLinkUseCase) CreateGoal(ctx context.Context, input CreateGoalInput) (*domain.SavingsGoal, error) {
	if _, err := uc.walletRepo.GetByID(ctx, input.WalletID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	goal := &domain.SavingsGoal{
		ID:        uc.idGen.Generate(),
		WalletID:  input.WalletID,
		Name:      strings.TrimSpace(input.Name),
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.goalRepo.Create(ctx, goal); err != nil {
		return nil, err
	}

	return goal, nil
}

// GetGoal retrieves a savings goal by ID.
func (uc *PaymentLinkUseCase) GetGoal(ctx context.Context, id string) (*domain.SavingsGoal, error) {
	return uc.goalRepo.GetByID(ctx, id)
}
