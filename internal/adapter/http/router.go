package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/kolobank/walletcore/internal/adapter/http/handler"
	"github.com/kolobank/walletcore/internal/adapter/http/middleware"
	"github.com/kolobank/walletcore/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	WalletHandler         *handler.WalletHandler
	WithdrawalHandler     *handler.WithdrawalHandler
	PaymentLinkHandler    *handler.PaymentLinkHandler
	FeeConfigHandler      *handler.FeeConfigHandler
	ReconciliationHandler *handler.ReconciliationHandler
	WebhookHandler        *handler.WebhookHandler
	HealthHandler         *handler.HealthHandler
	IdempotencyStore      usecase.IdempotencyStore
	Logger                zerolog.Logger
}

// NewRouter creates a new HTTP router. Webhook routes sit outside /api/v1
// and outside the idempotency middleware: their handlers need the raw
// body untouched, and their dedup is the ledger's external reference.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Provider webhooks
	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/deposit", cfg.WebhookHandler.Deposit)
		r.Post("/transfer-status", cfg.WebhookHandler.TransferStatus)
	})

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Wallets
		r.Route("/wallets", func(r chi.Router) {
			r.Post("/", cfg.WalletHandler.Create)
			r.Get("/{id}", cfg.WalletHandler.Get)
			r.Get("/{id}/entries", cfg.WalletHandler.ListEntries)
			r.Get("/{id}/balance/history", cfg.WalletHandler.BalanceHistory)
		})

		// Withdrawals
		r.Route("/withdrawals", func(r chi.Router) {
			r.Post("/", cfg.WithdrawalHandler.Create)
			r.Get("/{id}", cfg.WithdrawalHandler.Get)
		})

		// Payment links
		r.Route("/payment-links", func(r chi.Router) {
			r.Post("/", cfg.PaymentLinkHandler.Create)
			r.Get("/{code}", cfg.PaymentLinkHandler.GetView)
			r.Post("/{code}/contributions", cfg.PaymentLinkHandler.RegisterContribution)
			r.Post("/{code}/deactivate", cfg.PaymentLinkHandler.Deactivate)
		})

		// Savings goals
		r.Route("/goals", func(r chi.Router) {
			r.Post("/", cfg.PaymentLinkHandler.CreateGoal)
			r.Get("/{id}", cfg.PaymentLinkHandler.GetGoal)
		})

		// Fee configuration
		r.Route("/fee-config", func(r chi.Router) {
			r.Get("/", cfg.FeeConfigHandler.GetActive)
			r.Post("/", cfg.FeeConfigHandler.Create)
		})

		// Reconciliation
		r.Route("/reconciliation", func(r chi.Router) {
			r.Post("/balance-audit", cfg.ReconciliationHandler.BalanceAudit)
			r.Post("/recover-deposits", cfg.ReconciliationHandler.RecoverDeposits)
			r.Post("/manual-credit", cfg.ReconciliationHandler.ManualCredit)
		})
	})

	return r
}
