package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
)

// PaymentLinkRepository implements usecase.PaymentLinkRepository.
type PaymentLinkRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentLinkRepository creates a new PaymentLinkRepository.
func NewPaymentLinkRepository(pool *pgxpool.Pool) *PaymentLinkRepository {
	return &PaymentLinkRepository{pool: pool}
}

const linkColumns = `id, code, wallet_id, goal_id, title, target_amount, single_use, consumed, active, expires_at, created_at`

// Create inserts a payment link.
func (r *PaymentLinkRepository) Create(ctx context.Context, link *domain.PaymentLink) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payment_links (`+linkColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		link.ID,
		link.Code,
		link.WalletID,
		stringPtrToText(link.GoalID),
		link.Title,
		decimalPtrToNumeric(link.TargetAmount),
		link.SingleUse,
		link.Consumed,
		link.Active,
		timePtrToPgTimestamptz(link.ExpiresAt),
		timeToPgTimestamptz(link.CreatedAt),
	)
	return err
}

// GetByCode retrieves a payment link by its share code.
func (r *PaymentLinkRepository) GetByCode(ctx context.Context, code string) (*domain.PaymentLink, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM payment_links WHERE code = $1`, code)
	return scanPaymentLink(row)
}

// GetByID retrieves a payment link by ID.
func (r *PaymentLinkRepository) GetByID(ctx context.Context, id string) (*domain.PaymentLink, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM payment_links WHERE id = $1`, id)
	return scanPaymentLink(row)
}

// GetByCodeForUpdate retrieves a payment link with a FOR UPDATE lock. The
// matcher re-checks usability under this lock before consuming single-use
// links.
func (r *PaymentLinkRepository) GetByCodeForUpdate(ctx context.Context, tx usecase.Transaction, code string) (*domain.PaymentLink, error) {
	row := inTx(tx).QueryRow(ctx, `SELECT `+linkColumns+` FROM payment_links WHERE code = $1 FOR UPDATE`, code)
	return scanPaymentLink(row)
}

// MarkConsumed consumes a single-use link.
func (r *PaymentLinkRepository) MarkConsumed(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := inTx(tx).Exec(ctx, `UPDATE payment_links SET consumed = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLinkNotFound
	}
	return nil
}

// Deactivate turns a link off. Pending contributions on the link stay
// matchable only until the matcher re-checks usability under lock.
func (r *PaymentLinkRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE payment_links SET active = false WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLinkNotFound
	}
	return nil
}

// GetView builds the public projection of a link, aggregating completed
// contributions.
func (r *PaymentLinkRepository) GetView(ctx context.Context, code string) (*domain.LinkView, error) {
	var (
		view         domain.LinkView
		targetAmount pgtype.Numeric
		amountRaised = decimalToNumeric(decimal.Zero)
		expiresAt    = timePtrToPgTimestamptz(nil)
	)

	err := r.pool.QueryRow(ctx, `
		SELECT l.code, l.title, l.target_amount, l.active, l.expires_at,
		       COALESCE(SUM(c.amount) FILTER (WHERE c.status = 'completed'), 0),
		       COUNT(c.id) FILTER (WHERE c.status = 'completed')
		FROM payment_links l
		LEFT JOIN contributions c ON c.link_id = l.id
		WHERE l.code = $1
		GROUP BY l.id`, code).Scan(
		&view.Code, &view.Title, &targetAmount, &view.Active, &expiresAt,
		&amountRaised, &view.ContributorCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, err
	}

	view.TargetAmount = numericToDecimalPtr(targetAmount)
	view.AmountRaised = numericToDecimal(amountRaised)
	view.ExpiresAt = pgTimestamptzToTimePtr(expiresAt)

	return &view, nil
}

func scanPaymentLink(row pgx.Row) (*domain.PaymentLink, error) {
	var (
		l            domain.PaymentLink
		goalID       = stringPtrToText(nil)
		targetAmount pgtype.Numeric
		expiresAt    = timePtrToPgTimestamptz(nil)
		createdAt    = timeToPgTimestamptz(time.Time{})
	)

	err := row.Scan(
		&l.ID, &l.Code, &l.WalletID, &goalID, &l.Title, &targetAmount,
		&l.SingleUse, &l.Consumed, &l.Active, &expiresAt, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, err
	}

	l.GoalID = textToStringPtr(goalID)
	l.TargetAmount = numericToDecimalPtr(targetAmount)
	l.ExpiresAt = pgTimestamptzToTimePtr(expiresAt)
	l.CreatedAt = createdAt.Time

	return &l, nil
}
