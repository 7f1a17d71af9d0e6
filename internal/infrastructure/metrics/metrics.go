package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Deposit webhook metrics
	DepositsApplied      prometheus.Counter
	DepositsDuplicate    prometheus.Counter
	DepositsRejected     *prometheus.CounterVec
	DepositAmount        prometheus.Histogram
	WebhookVerifications *prometheus.CounterVec

	// Ledger metrics
	EntriesCreated *prometheus.CounterVec
	FeesSettled    prometheus.Counter
	LedgerErrors   *prometheus.CounterVec

	// Contribution matching metrics
	MatchesCompleted  *prometheus.CounterVec
	MatchesAmbiguous  prometheus.Counter
	MatchesUnresolved prometheus.Counter

	// Withdrawal metrics
	WithdrawalsRequested prometheus.Counter
	WithdrawalsCompleted prometheus.Counter
	WithdrawalsFailed    prometheus.Counter
	WithdrawalsRefunded  prometheus.Counter

	// Reconciliation metrics
	ReconciliationRuns       *prometheus.CounterVec
	ReconciliationMismatches prometheus.Gauge
	MissedDepositsFound      prometheus.Counter
	MissedDepositsApplied    prometheus.Counter

	// Provider rail metrics
	RailRequests *prometheus.CounterVec
	RailDuration *prometheus.HistogramVec

	// Database metrics
	DBErrors *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		DepositsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_deposits_applied_total",
			Help: "Total number of deposit webhooks applied to the ledger",
		}),
		DepositsDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_deposits_duplicate_total",
			Help: "Total number of deduplicated deposit deliveries",
		}),
		DepositsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletcore_deposits_rejected_total",
				Help: "Total number of rejected deposit webhooks by reason",
			},
			[]string{"reason"},
		),
		DepositAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletcore_deposit_amount",
			Help:    "Deposit amounts",
			Buckets: []float64{100, 1000, 10000, 50000, 100000, 1000000},
		}),
		WebhookVerifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletcore_webhook_verifications_total",
				Help: "Webhook signature verifications by matched strategy",
			},
			[]string{"strategy", "result"},
		),

		EntriesCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletcore_ledger_entries_total",
				Help: "Ledger entries created by type and direction",
			},
			[]string{"type", "direction"},
		),
		FeesSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_fee_settlements_total",
			Help: "Fee settlement entries credited to the platform wallet",
		}),
		LedgerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletcore_ledger_errors_total",
				Help: "Ledger mutation errors by type",
			},
			[]string{"error_type"},
		),

		MatchesCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletcore_matches_completed_total",
				Help: "Contribution matches completed by mode",
			},
			[]string{"mode"},
		),
		MatchesAmbiguous: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_matches_ambiguous_total",
			Help: "Deposits skipped because more than one contribution matched",
		}),
		MatchesUnresolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_matches_unresolved_total",
			Help: "Deposits left as plain credits with no matching contribution",
		}),

		WithdrawalsRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_withdrawals_requested_total",
			Help: "Withdrawal requests created",
		}),
		WithdrawalsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_withdrawals_completed_total",
			Help: "Withdrawals confirmed successful",
		}),
		WithdrawalsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_withdrawals_failed_total",
			Help: "Withdrawals confirmed failed",
		}),
		WithdrawalsRefunded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_withdrawals_refunded_total",
			Help: "Withdrawal refunds credited back",
		}),

		ReconciliationRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletcore_reconciliation_runs_total",
				Help: "Reconciliation job runs by job and result",
			},
			[]string{"job", "result"},
		),
		ReconciliationMismatches: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "walletcore_reconciliation_mismatches",
			Help: "Wallets with a balance mismatch in the last audit",
		}),
		MissedDepositsFound: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_missed_deposits_found_total",
			Help: "Provider-side credits with no local ledger entry",
		}),
		MissedDepositsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_missed_deposits_applied_total",
			Help: "Missed deposits auto-applied through the credit path",
		}),

		RailRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletcore_rail_requests_total",
				Help: "Outbound rail requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		RailDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletcore_rail_duration_seconds",
				Help:    "Outbound rail request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletcore_db_errors_total",
				Help: "Database errors by operation",
			},
			[]string{"operation"},
		),
	}
}
