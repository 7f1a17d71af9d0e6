package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/domain"
)

// FeeConfigUseCase manages the versioned fee schedule. A new version is
// inserted and the previous one deactivated in the same transaction;
// configurations are never edited in place, so historical fee
// computations stay reproducible for audit.
type FeeConfigUseCase struct {
	txManager TransactionManager
	feeRepo   FeeConfigRepository
	cache     Cache
	idGen     IDGenerator
}

// NewFeeConfigUseCase creates a new FeeConfigUseCase.
func NewFeeConfigUseCase(txManager TransactionManager, feeRepo FeeConfigRepository, cache Cache, idGen IDGenerator) *FeeConfigUseCase {
	return &FeeConfigUseCase{
		txManager: txManager,
		feeRepo:   feeRepo,
		cache:     cache,
		idGen:     idGen,
	}
}

// GetActive returns the single active fee configuration, preferring the
// cache. Cache failures fall through to the database.
func (uc *FeeConfigUseCase) GetActive(ctx context.Context) (*domain.FeeConfiguration, error) {
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, feeConfigCacheKey); err == nil && cached != "" {
			var cfg domain.FeeConfiguration
			if err := json.Unmarshal([]byte(cached), &cfg); err == nil {
				return &cfg, nil
			}
		}
	}

	cfg, err := uc.feeRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(cfg); err == nil {
			_ = uc.cache.Set(ctx, feeConfigCacheKey, string(data), feeConfigCacheTTL)
		}
	}

	return cfg, nil
}

// CreateVersionInput represents a new fee schedule version.
type CreateVersionInput struct {
	Tier1Threshold     decimal.Decimal
	Tier1Fee           decimal.Decimal
	Tier2Threshold     decimal.Decimal
	Tier2Fee           decimal.Decimal
	Tier3Fee           decimal.Decimal
	VATRate            decimal.Decimal
	StampDutyThreshold decimal.Decimal
	StampDutyAmount    decimal.Decimal
	CommissionRate     decimal.Decimal
}

// CreateVersion inserts a new active configuration and deactivates the
// current one atomically.
func (uc *FeeConfigUseCase) CreateVersion(ctx context.Context, input CreateVersionInput) (*domain.FeeConfiguration, error) {
	now := time.Now().UTC()

	cfg := &domain.FeeConfiguration{
		ID:                 uc.idGen.Generate(),
		Tier1Threshold:     input.Tier1Threshold,
		Tier1Fee:           input.Tier1Fee,
		Tier2Threshold:     input.Tier2Threshold,
		Tier2Fee:           input.Tier2Fee,
		Tier3Fee:           input.Tier3Fee,
		VATRate:            input.VATRate,
		StampDutyThreshold: input.StampDutyThreshold,
		StampDutyAmount:    input.StampDutyAmount,
		CommissionRate:     input.CommissionRate,
		Active:             true,
		CreatedAt:          now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := uc.feeRepo.GetActive(ctx)
	if err == nil {
		if err := uc.feeRepo.Deactivate(ctx, tx, current.ID, now); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, domain.ErrNoActiveFeeConfig) {
		return nil, err
	}

	if err := uc.feeRepo.Create(ctx, tx, cfg); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, feeConfigCacheKey)
	}

	return cfg, nil
}
