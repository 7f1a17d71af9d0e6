package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
)

// Notifier delivers a domain event to the downstream notification system.
// Delivery is best-effort relative to the committed ledger state.
type Notifier interface {
	Notify(ctx context.Context, event *domain.OutboxEvent) error
}

// OutboxDrainer polls the outbox and hands events to the notifier.
type OutboxDrainer struct {
	outboxRepo usecase.OutboxRepository
	notifier   Notifier
	logger     zerolog.Logger
	batchSize  int
	interval   time.Duration
	retention  time.Duration
}

// OutboxDrainerConfig holds dependencies for the OutboxDrainer.
type OutboxDrainerConfig struct {
	OutboxRepo usecase.OutboxRepository
	Notifier   Notifier
	Logger     zerolog.Logger
	BatchSize  int
	Interval   time.Duration
	// Retention bounds how long published events stay queryable before
	// the drainer prunes them. Zero disables pruning.
	Retention time.Duration
}

// NewOutboxDrainer creates a new OutboxDrainer.
func NewOutboxDrainer(cfg OutboxDrainerConfig) *OutboxDrainer {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}

	return &OutboxDrainer{
		outboxRepo: cfg.OutboxRepo,
		notifier:   cfg.Notifier,
		logger:     cfg.Logger,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
	}
}

// Start runs the drain loop until the context is cancelled.
func (d *OutboxDrainer) Start(ctx context.Context) error {
	d.logger.Info().
		Int("batch_size", d.batchSize).
		Dur("interval", d.interval).
		Msg("outbox drainer started")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	if err := d.drain(ctx); err != nil {
		d.logger.Error().Err(err).Msg("outbox drain failed on start")
	}

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("outbox drainer shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := d.drain(ctx); err != nil {
				d.logger.Error().Err(err).Msg("outbox drain failed")
			}
		}
	}
}

// drain fetches and delivers one batch of unpublished events.
func (d *OutboxDrainer) drain(ctx context.Context) error {
	events, err := d.outboxRepo.GetUnpublished(ctx, d.batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		d.prune(ctx)
		return nil
	}

	for _, event := range events {
		if err := d.notifier.Notify(ctx, event); err != nil {
			d.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("failed to deliver event")
			// A failed event stays unpublished and retries next tick.
			continue
		}

		if err := d.outboxRepo.MarkPublished(ctx, event.ID, time.Now().UTC()); err != nil {
			d.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Msg("failed to mark event published")
		}
	}

	d.prune(ctx)
	return nil
}

func (d *OutboxDrainer) prune(ctx context.Context) {
	if d.retention <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-d.retention)
	if err := d.outboxRepo.DeletePublished(ctx, cutoff); err != nil {
		d.logger.Warn().Err(err).Msg("failed to prune published events")
	}
}

// LogNotifier logs events instead of delivering them. The actual push and
// SMS fan-out lives in a separate notification service.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the event.
func (n *LogNotifier) Notify(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	n.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", payload).
		Msg("event published")

	return nil
}
