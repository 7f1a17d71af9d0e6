package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// WithdrawalResolver is the subset of the withdrawal use case the poller
// drives.
type WithdrawalResolver interface {
	PollProcessing(ctx context.Context, maxAge time.Duration, limit int) (int, error)
}

// WithdrawalPoller periodically queries the rail for withdrawals stuck in
// processing. It backstops the transfer-status webhook: a lost callback
// resolves here instead of leaving funds reserved forever.
type WithdrawalPoller struct {
	resolver WithdrawalResolver
	logger   zerolog.Logger
	interval time.Duration
	maxAge   time.Duration
	limit    int
}

// WithdrawalPollerConfig holds dependencies for the WithdrawalPoller.
type WithdrawalPollerConfig struct {
	Resolver WithdrawalResolver
	Logger   zerolog.Logger
	Interval time.Duration
	// MaxAge is how long a processing withdrawal may sit untouched before
	// the poller asks the rail about it.
	MaxAge time.Duration
	Limit  int
}

// NewWithdrawalPoller creates a new WithdrawalPoller.
func NewWithdrawalPoller(cfg WithdrawalPollerConfig) *WithdrawalPoller {
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 5 * time.Minute
	}
	if cfg.Limit == 0 {
		cfg.Limit = 100
	}

	return &WithdrawalPoller{
		resolver: cfg.Resolver,
		logger:   cfg.Logger,
		interval: cfg.Interval,
		maxAge:   cfg.MaxAge,
		limit:    cfg.Limit,
	}
}

// Start runs the polling loop until the context is cancelled.
func (p *WithdrawalPoller) Start(ctx context.Context) error {
	p.logger.Info().
		Dur("interval", p.interval).
		Dur("max_age", p.maxAge).
		Msg("withdrawal poller started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("withdrawal poller shutting down")
			return ctx.Err()
		case <-ticker.C:
			resolved, err := p.resolver.PollProcessing(ctx, p.maxAge, p.limit)
			if err != nil {
				p.logger.Error().Err(err).Msg("withdrawal poll failed")
				continue
			}
			if resolved > 0 {
				p.logger.Info().Int("resolved", resolved).Msg("withdrawal poll resolved transfers")
			}
		}
	}
}
