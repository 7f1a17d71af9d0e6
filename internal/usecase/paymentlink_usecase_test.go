package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
	"github.com/kolobank/walletcore/internal/usecase/mocks"
)

func newLinkFixture(t *testing.T) (*usecase.PaymentLinkUseCase, *mocks.MockPaymentLinkRepository, *mocks.MockGoalRepository) {
	t.Helper()

	walletRepo := mocks.NewMockWalletRepository()
	linkRepo := mocks.NewMockPaymentLinkRepository()
	contribRepo := mocks.NewMockContributionRepository()
	goalRepo := mocks.NewMockGoalRepository()
	idGen := mocks.NewMockIDGenerator()

	_ = walletRepo.Create(context.Background(), &domain.Wallet{
		ID:            "wallet-1",
		Kind:          domain.WalletKindUser,
		Currency:      "NGN",
		Balance:       decimal.Zero,
		AccountNumber: "0123456789",
	})

	return usecase.NewPaymentLinkUseCase(linkRepo, contribRepo, walletRepo, goalRepo, idGen), linkRepo, goalRepo
}

func TestPaymentLinkUseCase_CreateLink(t *testing.T) {
	uc, _, goalRepo := newLinkFixture(t)
	ctx := context.Background()

	t.Run("creates an active link", func(t *testing.T) {
		link, err := uc.CreateLink(ctx, usecase.CreateLinkInput{
			WalletID: "wallet-1",
			Title:    "wedding support",
		})
		if err != nil {
			t.Fatalf("create link: %v", err)
		}
		if !link.Active {
			t.Error("new link not active")
		}
		if link.Code == "" {
			t.Error("link has no code")
		}
	})

	t.Run("unknown wallet", func(t *testing.T) {
		_, err := uc.CreateLink(ctx, usecase.CreateLinkInput{WalletID: "wallet-404"})
		if !errors.Is(err, domain.ErrWalletNotFound) {
			t.Fatalf("expected ErrWalletNotFound, got %v", err)
		}
	})

	t.Run("goal must belong to the wallet", func(t *testing.T) {
		_ = goalRepo.Create(ctx, &domain.SavingsGoal{ID: "goal-x", WalletID: "wallet-other"})
		goalID := "goal-x"

		_, err := uc.CreateLink(ctx, usecase.CreateLinkInput{WalletID: "wallet-1", GoalID: &goalID})
		if !errors.Is(err, domain.ErrGoalNotFound) {
			t.Fatalf("expected ErrGoalNotFound, got %v", err)
		}
	})

	t.Run("rejects non-positive target", func(t *testing.T) {
		target := decimal.Zero
		_, err := uc.CreateLink(ctx, usecase.CreateLinkInput{WalletID: "wallet-1", TargetAmount: &target})
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})
}

func TestPaymentLinkUseCase_RegisterContribution(t *testing.T) {
	uc, linkRepo, _ := newLinkFixture(t)
	ctx := context.Background()

	expired := time.Now().UTC().Add(-time.Hour)
	_ = linkRepo.Create(ctx, &domain.PaymentLink{ID: "link-live", Code: "LIVE01", WalletID: "wallet-1", Active: true})
	_ = linkRepo.Create(ctx, &domain.PaymentLink{ID: "link-off", Code: "OFF001", WalletID: "wallet-1", Active: false})
	_ = linkRepo.Create(ctx, &domain.PaymentLink{ID: "link-exp", Code: "EXP001", WalletID: "wallet-1", Active: true, ExpiresAt: &expired})

	tests := []struct {
		name    string
		code    string
		amount  string
		wantErr error
	}{
		{name: "active link accepts", code: "LIVE01", amount: "500"},
		{name: "inactive link rejects", code: "OFF001", amount: "500", wantErr: domain.ErrLinkInactive},
		{name: "expired link rejects", code: "EXP001", amount: "500", wantErr: domain.ErrLinkExpired},
		{name: "unknown code", code: "NOPE01", amount: "500", wantErr: domain.ErrLinkNotFound},
		{name: "non-positive amount", code: "LIVE01", amount: "0", wantErr: domain.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := uc.RegisterContribution(ctx, usecase.RegisterContributionInput{
				Code:            tt.code,
				ContributorName: "ADA OBI",
				Amount:          decimal.RequireFromString(tt.amount),
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != domain.ContributionStatusPending {
				t.Errorf("status = %s, want pending", got.Status)
			}
		})
	}
}

func TestPaymentLinkUseCase_DeactivateLink(t *testing.T) {
	uc, linkRepo, _ := newLinkFixture(t)
	ctx := context.Background()

	_ = linkRepo.Create(ctx, &domain.PaymentLink{ID: "link-1", Code: "LIVE01", WalletID: "wallet-1", Active: true})

	if err := uc.DeactivateLink(ctx, "LIVE01", "wallet-other"); !errors.Is(err, domain.ErrLinkNotOwned) {
		t.Fatalf("expected ErrLinkNotOwned, got %v", err)
	}

	if err := uc.DeactivateLink(ctx, "LIVE01", "wallet-1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	link, _ := linkRepo.GetByID(ctx, "link-1")
	if link.Active {
		t.Error("link still active")
	}
}
