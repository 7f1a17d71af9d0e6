package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
)

// ReconciliationRunner is the subset of the reconciliation use case the
// scheduler drives.
type ReconciliationRunner interface {
	AuditBalances(ctx context.Context) (*usecase.AuditReport, error)
	SweepStuckWithdrawals(ctx context.Context) (polled, swept int, err error)
}

// Reconciler runs the scheduled reconciliation jobs: the balance audit
// and the stuck-withdrawal sweep. Missed-deposit recovery stays manual
// because it needs an operator-chosen window.
type Reconciler struct {
	runner   ReconciliationRunner
	logger   zerolog.Logger
	interval time.Duration
}

// ReconcilerConfig holds dependencies for the Reconciler.
type ReconcilerConfig struct {
	Runner   ReconciliationRunner
	Logger   zerolog.Logger
	Interval time.Duration
}

// NewReconciler creates a new Reconciler.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}

	return &Reconciler{
		runner:   cfg.Runner,
		logger:   cfg.Logger,
		interval: cfg.Interval,
	}
}

// Start runs the reconciliation loop until the context is cancelled.
func (r *Reconciler) Start(ctx context.Context) error {
	r.logger.Info().Dur("interval", r.interval).Msg("reconciler started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("reconciler shutting down")
			return ctx.Err()
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Reconciler) runOnce(ctx context.Context) {
	report, err := r.runner.AuditBalances(ctx)
	switch {
	case errors.Is(err, domain.ErrReconciliationMismatch):
		// The audit already logged each mismatch; this is the page-worthy
		// summary line.
		r.logger.Error().
			Int("mismatches", len(report.Mismatches)).
			Int("wallets_checked", report.WalletsChecked).
			Msg("scheduled balance audit found mismatches")
	case err != nil:
		r.logger.Error().Err(err).Msg("scheduled balance audit failed")
	default:
		r.logger.Info().
			Int("wallets_checked", report.WalletsChecked).
			Msg("scheduled balance audit clean")
	}

	polled, swept, err := r.runner.SweepStuckWithdrawals(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("stuck withdrawal sweep failed")
		return
	}
	if polled > 0 || swept > 0 {
		r.logger.Info().
			Int("polled", polled).
			Int("swept", swept).
			Msg("stuck withdrawal sweep resolved transfers")
	}
}
