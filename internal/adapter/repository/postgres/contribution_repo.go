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

// ContributionRepository implements usecase.ContributionRepository.
type ContributionRepository struct {
	pool *pgxpool.Pool
}

// NewContributionRepository creates a new ContributionRepository.
func NewContributionRepository(pool *pgxpool.Pool) *ContributionRepository {
	return &ContributionRepository{pool: pool}
}

const contributionColumns = `id, link_id, contributor_name, amount, status, ledger_entry_id, created_at, completed_at`

const insertContributionSQL = `
	INSERT INTO contributions (` + contributionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Create inserts a contribution.
func (r *ContributionRepository) Create(ctx context.Context, contribution *domain.Contribution) error {
	return r.create(ctx, r.pool, contribution)
}

// CreateTx inserts a contribution inside the caller's transaction.
func (r *ContributionRepository) CreateTx(ctx context.Context, tx usecase.Transaction, contribution *domain.Contribution) error {
	return r.create(ctx, inTx(tx), contribution)
}

func (r *ContributionRepository) create(ctx context.Context, q querier, contribution *domain.Contribution) error {
	_, err := q.Exec(ctx, insertContributionSQL,
		contribution.ID,
		contribution.LinkID,
		contribution.ContributorName,
		decimalToNumeric(contribution.Amount),
		string(contribution.Status),
		stringPtrToText(contribution.LedgerEntryID),
		timeToPgTimestamptz(contribution.CreatedAt),
		timePtrToPgTimestamptz(contribution.CompletedAt),
	)
	return err
}

// GetByID retrieves a contribution by ID.
func (r *ContributionRepository) GetByID(ctx context.Context, id string) (*domain.Contribution, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+contributionColumns+` FROM contributions WHERE id = $1`, id)
	return scanContribution(row)
}

// GetPendingByLinkAndAmount returns the oldest pending contribution on the
// link with exactly the given amount, or (nil, nil) when none exists.
func (r *ContributionRepository) GetPendingByLinkAndAmount(ctx context.Context, linkID string, amount decimal.Decimal) (*domain.Contribution, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+contributionColumns+` FROM contributions
		WHERE link_id = $1 AND status = 'pending' AND amount = $2
		ORDER BY created_at ASC LIMIT 1`,
		linkID, decimalToNumeric(amount))

	c, err := scanContribution(row)
	if errors.Is(err, domain.ErrContributionNotFound) {
		return nil, nil
	}
	return c, err
}

// ListPendingMatches returns pending contributions with exactly the given
// amount on active links owned by the wallet, created after since. More
// than one result means reverse matching is ambiguous.
func (r *ContributionRepository) ListPendingMatches(ctx context.Context, walletID string, amount decimal.Decimal, since time.Time) ([]*domain.Contribution, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+prefixedContributionColumns+` FROM contributions c
		JOIN payment_links l ON l.id = c.link_id
		WHERE l.wallet_id = $1 AND l.active
		  AND c.status = 'pending' AND c.amount = $2 AND c.created_at >= $3
		ORDER BY c.created_at ASC`,
		walletID, decimalToNumeric(amount), timeToPgTimestamptz(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contributions []*domain.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

const prefixedContributionColumns = `c.id, c.link_id, c.contributor_name, c.amount, c.status, c.ledger_entry_id, c.created_at, c.completed_at`

// Complete marks a pending contribution matched to a ledger entry. An
// already completed contribution refuses the second match.
func (r *ContributionRepository) Complete(ctx context.Context, tx usecase.Transaction, id, entryID string, at time.Time) error {
	tag, err := inTx(tx).Exec(ctx, `
		UPDATE contributions
		SET status = 'completed', ledger_entry_id = $2, completed_at = $3
		WHERE id = $1 AND status = 'pending'`,
		id, entryID, timeToPgTimestamptz(at))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrContributionDone
	}
	return nil
}

func scanContribution(row pgx.Row) (*domain.Contribution, error) {
	var (
		c             domain.Contribution
		status        string
		amount        = decimalToNumeric(decimal.Zero)
		ledgerEntryID = stringPtrToText(nil)
		createdAt     = timeToPgTimestamptz(time.Time{})
		completedAt   = timePtrToPgTimestamptz(nil)
	)

	err := row.Scan(
		&c.ID, &c.LinkID, &c.ContributorName, &amount, &status,
		&ledgerEntryID, &createdAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContributionNotFound
		}
		return nil, err
	}

	c.Status = domain.ContributionStatus(status)
	c.Amount = numericToDecimal(amount)
	c.LedgerEntryID = textToStringPtr(ledgerEntryID)
	c.CreatedAt = createdAt.Time
	c.CompletedAt = pgTimestamptzToTimePtr(completedAt)

	return &c, nil
}
