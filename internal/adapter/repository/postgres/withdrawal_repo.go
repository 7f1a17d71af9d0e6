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

// WithdrawalRepository implements usecase.WithdrawalRepository.
type WithdrawalRepository struct {
	pool *pgxpool.Pool
}

// NewWithdrawalRepository creates a new WithdrawalRepository.
func NewWithdrawalRepository(pool *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{pool: pool}
}

const withdrawalColumns = `id, wallet_id, ledger_entry_id, amount, fee, vat, stamp_duty, net_amount,
	destination_account, destination_bank, destination_name, narration, status,
	transfer_reference, failure_reason, created_at, updated_at`

// Create inserts a withdrawal request in the same transaction as the
// pending debit that reserves its funds.
func (r *WithdrawalRepository) Create(ctx context.Context, tx usecase.Transaction, withdrawal *domain.WithdrawalRequest) error {
	_, err := inTx(tx).Exec(ctx, `
		INSERT INTO withdrawal_requests (`+withdrawalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		withdrawal.ID,
		withdrawal.WalletID,
		withdrawal.LedgerEntryID,
		decimalToNumeric(withdrawal.Amount),
		decimalToNumeric(withdrawal.Fees.Fee),
		decimalToNumeric(withdrawal.Fees.VAT),
		decimalToNumeric(withdrawal.Fees.StampDuty),
		decimalToNumeric(withdrawal.Fees.Net),
		withdrawal.DestinationAccount,
		withdrawal.DestinationBank,
		withdrawal.DestinationName,
		withdrawal.Narration,
		string(withdrawal.Status),
		stringPtrToText(withdrawal.TransferReference),
		stringPtrToText(withdrawal.FailureReason),
		timeToPgTimestamptz(withdrawal.CreatedAt),
		timeToPgTimestamptz(withdrawal.UpdatedAt),
	)
	return err
}

// GetByID retrieves a withdrawal request by ID.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1`, id)
	return scanWithdrawal(row)
}

// GetByIDForUpdate retrieves a withdrawal request with a FOR UPDATE lock.
func (r *WithdrawalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.WithdrawalRequest, error) {
	row := inTx(tx).QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, id)
	return scanWithdrawal(row)
}

// GetByTransferRefForUpdate retrieves a withdrawal request by its rail
// transfer reference with a FOR UPDATE lock. Status notifications resolve
// the withdrawal through this lookup.
func (r *WithdrawalRepository) GetByTransferRefForUpdate(ctx context.Context, tx usecase.Transaction, reference string) (*domain.WithdrawalRequest, error) {
	row := inTx(tx).QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE transfer_reference = $1 FOR UPDATE`, reference)
	return scanWithdrawal(row)
}

// MarkProcessing records the rail's acceptance of the transfer.
func (r *WithdrawalRepository) MarkProcessing(ctx context.Context, tx usecase.Transaction, id, transferRef string, at time.Time) error {
	return r.mark(ctx, tx, `
		UPDATE withdrawal_requests
		SET status = 'processing', transfer_reference = $2, updated_at = $3
		WHERE id = $1`, id, transferRef, timeToPgTimestamptz(at))
}

// MarkCompleted records a confirmed successful transfer.
func (r *WithdrawalRepository) MarkCompleted(ctx context.Context, tx usecase.Transaction, id string, at time.Time) error {
	return r.mark(ctx, tx, `
		UPDATE withdrawal_requests
		SET status = 'completed', updated_at = $2
		WHERE id = $1`, id, timeToPgTimestamptz(at))
}

// MarkFailed records a confirmed failed transfer.
func (r *WithdrawalRepository) MarkFailed(ctx context.Context, tx usecase.Transaction, id, reason string, at time.Time) error {
	return r.mark(ctx, tx, `
		UPDATE withdrawal_requests
		SET status = 'failed', failure_reason = $2, updated_at = $3
		WHERE id = $1`, id, reason, timeToPgTimestamptz(at))
}

func (r *WithdrawalRepository) mark(ctx context.Context, tx usecase.Transaction, sql string, args ...any) error {
	tag, err := inTx(tx).Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWithdrawalNotFound
	}
	return nil
}

// ListProcessingOlderThan returns processing withdrawals whose last update
// is older than the cutoff, for the status poller.
func (r *WithdrawalRepository) ListProcessingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*domain.WithdrawalRequest, error) {
	return r.list(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests
		WHERE status = 'processing' AND updated_at < $1
		ORDER BY updated_at ASC LIMIT $2`, timeToPgTimestamptz(cutoff), limit)
}

// ListPendingUnsent returns pending withdrawals that never received a
// transfer reference, for the stuck-withdrawal sweep.
func (r *WithdrawalRepository) ListPendingUnsent(ctx context.Context, cutoff time.Time, limit int) ([]*domain.WithdrawalRequest, error) {
	return r.list(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests
		WHERE status = 'pending' AND transfer_reference IS NULL AND created_at < $1
		ORDER BY created_at ASC LIMIT $2`, timeToPgTimestamptz(cutoff), limit)
}

func (r *WithdrawalRepository) list(ctx context.Context, sql string, args ...any) ([]*domain.WithdrawalRequest, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var withdrawals []*domain.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, rows.Err()
}

func scanWithdrawal(row pgx.Row) (*domain.WithdrawalRequest, error) {
	var (
		w           domain.WithdrawalRequest
		status      string
		amount      = decimalToNumeric(decimal.Zero)
		fee         = decimalToNumeric(decimal.Zero)
		vat         = decimalToNumeric(decimal.Zero)
		stampDuty   = decimalToNumeric(decimal.Zero)
		netAmount   = decimalToNumeric(decimal.Zero)
		transferRef = stringPtrToText(nil)
		failure     = stringPtrToText(nil)
		createdAt   = timeToPgTimestamptz(time.Time{})
		updatedAt   = timeToPgTimestamptz(time.Time{})
	)

	err := row.Scan(
		&w.ID, &w.WalletID, &w.LedgerEntryID,
		&amount, &fee, &vat, &stampDuty, &netAmount,
		&w.DestinationAccount, &w.DestinationBank, &w.DestinationName, &w.Narration,
		&status, &transferRef, &failure, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWithdrawalNotFound
		}
		return nil, err
	}

	w.Status = domain.WithdrawalStatus(status)
	w.Amount = numericToDecimal(amount)
	w.Fees = domain.FeeBreakdown{
		Gross:     w.Amount,
		Fee:       numericToDecimal(fee),
		VAT:       numericToDecimal(vat),
		StampDuty: numericToDecimal(stampDuty),
		Net:       numericToDecimal(netAmount),
	}
	w.Fees.Total = w.Fees.Fee.Add(w.Fees.VAT).Add(w.Fees.StampDuty)
	w.TransferReference = textToStringPtr(transferRef)
	w.FailureReason = textToStringPtr(failure)
	w.CreatedAt = createdAt.Time
	w.UpdatedAt = updatedAt.Time

	return &w, nil
}
