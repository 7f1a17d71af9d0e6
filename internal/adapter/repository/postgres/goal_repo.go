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

// GoalRepository implements usecase.GoalRepository.
type GoalRepository struct {
	pool *pgxpool.Pool
}

// NewGoalRepository creates a new GoalRepository.
func NewGoalRepository(pool *pgxpool.Pool) *GoalRepository {
	return &GoalRepository{pool: pool}
}

const goalColumns = `id, wallet_id, name, balance, created_at, updated_at`

// Create inserts a savings goal balance record.
func (r *GoalRepository) Create(ctx context.Context, goal *domain.SavingsGoal) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO savings_goals (`+goalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		goal.ID,
		goal.WalletID,
		goal.Name,
		decimalToNumeric(goal.Balance),
		timeToPgTimestamptz(goal.CreatedAt),
		timeToPgTimestamptz(goal.UpdatedAt),
	)
	return err
}

// GetByID retrieves a savings goal by ID.
func (r *GoalRepository) GetByID(ctx context.Context, id string) (*domain.SavingsGoal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+goalColumns+` FROM savings_goals WHERE id = $1`, id)
	return scanGoal(row)
}

// GetByIDForUpdate retrieves a savings goal with a FOR UPDATE lock.
func (r *GoalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.SavingsGoal, error) {
	row := inTx(tx).QueryRow(ctx, `SELECT `+goalColumns+` FROM savings_goals WHERE id = $1 FOR UPDATE`, id)
	return scanGoal(row)
}

// UpdateBalance updates the goal's balance.
func (r *GoalRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	tag, err := inTx(tx).Exec(ctx,
		`UPDATE savings_goals SET balance = $2, updated_at = $3 WHERE id = $1`,
		id, decimalToNumeric(balance), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGoalNotFound
	}
	return nil
}

func scanGoal(row pgx.Row) (*domain.SavingsGoal, error) {
	var (
		g         domain.SavingsGoal
		balance   = decimalToNumeric(decimal.Zero)
		createdAt = timeToPgTimestamptz(time.Time{})
		updatedAt = timeToPgTimestamptz(time.Time{})
	)

	err := row.Scan(&g.ID, &g.WalletID, &g.Name, &balance, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, err
	}

	g.Balance = numericToDecimal(balance)
	g.CreatedAt = createdAt.Time
	g.UpdatedAt = updatedAt.Time

	return &g, nil
}
