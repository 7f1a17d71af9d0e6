package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
	"github.com/kolobank/walletcore/internal/usecase/mocks"
)

func TestFeeConfigUseCase_GetActive(t *testing.T) {
	t.Run("no active configuration", func(t *testing.T) {
		feeRepo := mocks.NewMockFeeConfigRepository(nil)
		uc := usecase.NewFeeConfigUseCase(mocks.NewMockTransactionManager(), feeRepo, nil, mocks.NewMockIDGenerator())

		_, err := uc.GetActive(context.Background())
		if !errors.Is(err, domain.ErrNoActiveFeeConfig) {
			t.Fatalf("expected ErrNoActiveFeeConfig, got %v", err)
		}
	})

	t.Run("serves from cache after first load", func(t *testing.T) {
		active := &domain.FeeConfiguration{ID: "fee-1", Tier1Fee: decimal.NewFromInt(10), Active: true}
		feeRepo := mocks.NewMockFeeConfigRepository(active)
		cache := mocks.NewMockCache()
		uc := usecase.NewFeeConfigUseCase(mocks.NewMockTransactionManager(), feeRepo, cache, mocks.NewMockIDGenerator())
		ctx := context.Background()

		repoCalls := 0
		feeRepo.GetActiveFunc = func(ctx context.Context) (*domain.FeeConfiguration, error) {
			repoCalls++
			return active, nil
		}

		for i := 0; i < 3; i++ {
			cfg, err := uc.GetActive(ctx)
			if err != nil {
				t.Fatalf("get active: %v", err)
			}
			if cfg.ID != "fee-1" {
				t.Errorf("got config %s, want fee-1", cfg.ID)
			}
		}
		if repoCalls != 1 {
			t.Errorf("repository hit %d times, want 1", repoCalls)
		}
	})
}

func TestFeeConfigUseCase_CreateVersion(t *testing.T) {
	active := &domain.FeeConfiguration{ID: "fee-old", Active: true}
	feeRepo := mocks.NewMockFeeConfigRepository(active)
	cache := mocks.NewMockCache()
	uc := usecase.NewFeeConfigUseCase(mocks.NewMockTransactionManager(), feeRepo, cache, mocks.NewMockIDGenerator())
	ctx := context.Background()

	// Warm the cache so the invalidation is observable.
	if _, err := uc.GetActive(ctx); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	created, err := uc.CreateVersion(ctx, usecase.CreateVersionInput{
		Tier1Threshold:     decimal.NewFromInt(10000),
		Tier1Fee:           decimal.NewFromInt(15),
		Tier2Threshold:     decimal.NewFromInt(50000),
		Tier2Fee:           decimal.NewFromInt(30),
		Tier3Fee:           decimal.NewFromInt(60),
		VATRate:            decimal.RequireFromString("0.075"),
		StampDutyThreshold: decimal.NewFromInt(10000),
		StampDutyAmount:    decimal.NewFromInt(50),
		CommissionRate:     decimal.RequireFromString("0.025"),
	})
	if err != nil {
		t.Fatalf("create version: %v", err)
	}
	if !created.Active {
		t.Error("new version not active")
	}

	if active.Active {
		t.Error("previous version still active")
	}

	current, err := uc.GetActive(ctx)
	if err != nil {
		t.Fatalf("get active after version bump: %v", err)
	}
	if current.ID != created.ID {
		t.Errorf("active config = %s, want %s", current.ID, created.ID)
	}
	if !current.Tier1Fee.Equal(decimal.NewFromInt(15)) {
		t.Errorf("stale cache served after invalidation: tier1 fee = %s", current.Tier1Fee)
	}
}
