package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kolobank/walletcore/internal/domain"
)

// WebhookEventRepository implements usecase.WebhookEventRepository.
type WebhookEventRepository struct {
	pool *pgxpool.Pool
}

// NewWebhookEventRepository creates a new WebhookEventRepository.
func NewWebhookEventRepository(pool *pgxpool.Pool) *WebhookEventRepository {
	return &WebhookEventRepository{pool: pool}
}

const webhookEventColumns = `id, kind, raw_body, signature_header, verified, verifier_strategy,
	status, reject_reason, ledger_entry_id, received_at`

// Create records an inbound webhook delivery. The raw body is stored
// byte-exact for audit and signature re-verification.
func (r *WebhookEventRepository) Create(ctx context.Context, event *domain.WebhookEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO webhook_events (`+webhookEventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		event.ID,
		event.Kind,
		event.RawBody,
		event.SignatureHeader,
		event.Verified,
		event.VerifierStrategy,
		string(event.Status),
		event.RejectReason,
		stringPtrToText(event.LedgerEntryID),
		timeToPgTimestamptz(event.ReceivedAt),
	)
	return err
}

// GetByID retrieves a captured webhook event by ID.
func (r *WebhookEventRepository) GetByID(ctx context.Context, id string) (*domain.WebhookEvent, error) {
	var (
		e             domain.WebhookEvent
		status        string
		ledgerEntryID = stringPtrToText(nil)
		receivedAt    = timeToPgTimestamptz(time.Time{})
	)

	err := r.pool.QueryRow(ctx,
		`SELECT `+webhookEventColumns+` FROM webhook_events WHERE id = $1`, id).Scan(
		&e.ID, &e.Kind, &e.RawBody, &e.SignatureHeader, &e.Verified, &e.VerifierStrategy,
		&status, &e.RejectReason, &ledgerEntryID, &receivedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}

	e.Status = domain.WebhookEventStatus(status)
	e.LedgerEntryID = textToStringPtr(ledgerEntryID)
	e.ReceivedAt = receivedAt.Time

	return &e, nil
}
