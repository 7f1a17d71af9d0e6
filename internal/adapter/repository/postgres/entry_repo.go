package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

const entryColumns = `id, wallet_id, direction, type, amount, fee, vat, stamp_duty, commission,
	net_amount, description, counterparty_name, counterparty_account, external_reference,
	status, balance_before, balance_after, wallet_version, created_at`

const insertEntrySQL = `
	INSERT INTO ledger_entries (` + entryColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

// Create inserts a ledger entry. A unique-index hit on external_reference
// maps to ErrDuplicateReference so the caller can treat the race as a
// duplicate delivery.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	_, err := inTx(tx).Exec(ctx, insertEntrySQL,
		entry.ID,
		entry.WalletID,
		string(entry.Direction),
		string(entry.Type),
		decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.Fee),
		decimalToNumeric(entry.VAT),
		decimalToNumeric(entry.StampDuty),
		decimalToNumeric(entry.Commission),
		decimalToNumeric(entry.NetAmount),
		entry.Description,
		entry.CounterpartyName,
		entry.CounterpartyAccount,
		stringPtrToText(entry.ExternalReference),
		string(entry.Status),
		decimalToNumeric(entry.BalanceBefore),
		decimalToNumeric(entry.BalanceAfter),
		entry.WalletVersion,
		timeToPgTimestamptz(entry.CreatedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrDuplicateReference
		}
		return err
	}
	return nil
}

// GetByID retrieves a ledger entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = $1`, id)
	return scanEntry(row)
}

// GetByExternalReference retrieves a ledger entry by its external reference.
func (r *EntryRepository) GetByExternalReference(ctx context.Context, reference string) (*domain.LedgerEntry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE external_reference = $1`, reference)
	return scanEntry(row)
}

// UpdateStatus transitions a pending entry to its terminal status.
func (r *EntryRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.EntryStatus) error {
	tag, err := inTx(tx).Exec(ctx,
		`UPDATE ledger_entries SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// GetByWallet lists a wallet's entries, newest first.
func (r *EntryRepository) GetByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE wallet_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SumAppliedByWallet recomputes the wallet balance from its entries.
// Completed credits add their net amount; completed and pending debits
// subtract their gross amount, because a pending withdrawal has already
// reserved its funds.
func (r *EntryRepository) SumAppliedByWallet(ctx context.Context, walletID string) (decimal.Decimal, error) {
	var sum pgtype.Numeric

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(
			CASE
				WHEN direction = 'credit' AND status = 'completed' THEN net_amount
				WHEN direction = 'debit' AND status IN ('completed', 'pending') THEN -amount
				ELSE 0
			END
		), 0)
		FROM ledger_entries
		WHERE wallet_id = $1`, walletID).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// ListExternalReferences returns external references of entries created for
// a wallet inside the window, for deposit recovery comparisons.
func (r *EntryRepository) ListExternalReferences(ctx context.Context, walletID string, from, to time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT external_reference FROM ledger_entries
		WHERE wallet_id = $1
		  AND external_reference IS NOT NULL
		  AND created_at >= $2 AND created_at < $3`,
		walletID, timeToPgTimestamptz(from), timeToPgTimestamptz(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// GetBalanceAtTime replays the wallet's entries up to the instant and
// returns the balance they produce. Pending debits created before the
// instant count as reserved.
func (r *EntryRepository) GetBalanceAtTime(ctx context.Context, walletID string, at time.Time) (decimal.Decimal, error) {
	var sum pgtype.Numeric

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(
			CASE
				WHEN direction = 'credit' AND status = 'completed' THEN net_amount
				WHEN direction = 'debit' AND status IN ('completed', 'pending') THEN -amount
				ELSE 0
			END
		), 0)
		FROM ledger_entries
		WHERE wallet_id = $1 AND created_at <= $2`,
		walletID, timeToPgTimestamptz(at)).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

func scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		e                 domain.LedgerEntry
		direction, typ    string
		status            string
		externalReference = stringPtrToText(nil)
		amount            = decimalToNumeric(decimal.Zero)
		fee               = decimalToNumeric(decimal.Zero)
		vat               = decimalToNumeric(decimal.Zero)
		stampDuty         = decimalToNumeric(decimal.Zero)
		commission        = decimalToNumeric(decimal.Zero)
		netAmount         = decimalToNumeric(decimal.Zero)
		balanceBefore     = decimalToNumeric(decimal.Zero)
		balanceAfter      = decimalToNumeric(decimal.Zero)
		createdAt         = timeToPgTimestamptz(time.Time{})
	)

	err := row.Scan(
		&e.ID, &e.WalletID, &direction, &typ,
		&amount, &fee, &vat, &stampDuty, &commission, &netAmount,
		&e.Description, &e.CounterpartyName, &e.CounterpartyAccount,
		&externalReference, &status,
		&balanceBefore, &balanceAfter, &e.WalletVersion, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}

	e.Direction = domain.EntryDirection(direction)
	e.Type = domain.EntryType(typ)
	e.Status = domain.EntryStatus(status)
	e.Amount = numericToDecimal(amount)
	e.Fee = numericToDecimal(fee)
	e.VAT = numericToDecimal(vat)
	e.StampDuty = numericToDecimal(stampDuty)
	e.Commission = numericToDecimal(commission)
	e.NetAmount = numericToDecimal(netAmount)
	e.ExternalReference = textToStringPtr(externalReference)
	e.BalanceBefore = numericToDecimal(balanceBefore)
	e.BalanceAfter = numericToDecimal(balanceAfter)
	e.CreatedAt = createdAt.Time

	return &e, nil
}
