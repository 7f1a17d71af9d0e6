package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
)

// FeeConfigRepository implements usecase.FeeConfigRepository.
type FeeConfigRepository struct {
	pool *pgxpool.Pool
}

// NewFeeConfigRepository creates a new FeeConfigRepository.
func NewFeeConfigRepository(pool *pgxpool.Pool) *FeeConfigRepository {
	return &FeeConfigRepository{pool: pool}
}

const feeConfigColumns = `id, tier1_threshold, tier1_fee, tier2_threshold, tier2_fee, tier3_fee,
	vat_rate, stamp_duty_threshold, stamp_duty_amount, commission_rate, active, created_at, deactivated_at`

// GetActive returns the single active fee configuration.
func (r *FeeConfigRepository) GetActive(ctx context.Context) (*domain.FeeConfiguration, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+feeConfigColumns+` FROM fee_configurations WHERE active ORDER BY created_at DESC LIMIT 1`)
	return scanFeeConfig(row)
}

// Create inserts a new fee configuration version.
func (r *FeeConfigRepository) Create(ctx context.Context, tx usecase.Transaction, cfg *domain.FeeConfiguration) error {
	_, err := inTx(tx).Exec(ctx, `
		INSERT INTO fee_configurations (`+feeConfigColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		cfg.ID,
		decimalToNumeric(cfg.Tier1Threshold),
		decimalToNumeric(cfg.Tier1Fee),
		decimalToNumeric(cfg.Tier2Threshold),
		decimalToNumeric(cfg.Tier2Fee),
		decimalToNumeric(cfg.Tier3Fee),
		decimalToNumeric(cfg.VATRate),
		decimalToNumeric(cfg.StampDutyThreshold),
		decimalToNumeric(cfg.StampDutyAmount),
		decimalToNumeric(cfg.CommissionRate),
		cfg.Active,
		timeToPgTimestamptz(cfg.CreatedAt),
		timePtrToPgTimestamptz(cfg.DeactivatedAt),
	)
	return err
}

// Deactivate marks a fee configuration inactive, preserving the row for
// historical fee reproduction.
func (r *FeeConfigRepository) Deactivate(ctx context.Context, tx usecase.Transaction, id string, at time.Time) error {
	tag, err := inTx(tx).Exec(ctx,
		`UPDATE fee_configurations SET active = false, deactivated_at = $2 WHERE id = $1`,
		id, timeToPgTimestamptz(at))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoActiveFeeConfig
	}
	return nil
}

func scanFeeConfig(row pgx.Row) (*domain.FeeConfiguration, error) {
	var (
		cfg                domain.FeeConfiguration
		tier1Threshold     = decimalToNumeric(decimal.Zero)
		tier1Fee           = decimalToNumeric(decimal.Zero)
		tier2Threshold     = decimalToNumeric(decimal.Zero)
		tier2Fee           = decimalToNumeric(decimal.Zero)
		tier3Fee           = decimalToNumeric(decimal.Zero)
		vatRate            = decimalToNumeric(decimal.Zero)
		stampDutyThreshold = decimalToNumeric(decimal.Zero)
		stampDutyAmount    = decimalToNumeric(decimal.Zero)
		commissionRate     = decimalToNumeric(decimal.Zero)
		createdAt          = timeToPgTimestamptz(time.Time{})
		deactivatedAt      = timePtrToPgTimestamptz(nil)
	)

	err := row.Scan(
		&cfg.ID, &tier1Threshold, &tier1Fee, &tier2Threshold, &tier2Fee, &tier3Fee,
		&vatRate, &stampDutyThreshold, &stampDutyAmount, &commissionRate,
		&cfg.Active, &createdAt, &deactivatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoActiveFeeConfig
		}
		return nil, err
	}

	cfg.Tier1Threshold = numericToDecimal(tier1Threshold)
	cfg.Tier1Fee = numericToDecimal(tier1Fee)
	cfg.Tier2Threshold = numericToDecimal(tier2Threshold)
	cfg.Tier2Fee = numericToDecimal(tier2Fee)
	cfg.Tier3Fee = numericToDecimal(tier3Fee)
	cfg.VATRate = numericToDecimal(vatRate)
	cfg.StampDutyThreshold = numericToDecimal(stampDutyThreshold)
	cfg.StampDutyAmount = numericToDecimal(stampDutyAmount)
	cfg.CommissionRate = numericToDecimal(commissionRate)
	cfg.CreatedAt = createdAt.Time
	cfg.DeactivatedAt = pgTimestamptzToTimePtr(deactivatedAt)

	return &cfg, nil
}
