package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kolobank/walletcore/internal/adapter/http/dto"
	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
)

// ReconciliationService defines the behavior needed by
// ReconciliationHandler.
type ReconciliationService interface {
	AuditBalances(ctx context.Context) (*usecase.AuditReport, error)
	RecoverMissedDeposits(ctx context.Context, from, to time.Time, apply bool) (*usecase.RecoveryReport, error)
	ManualCredit(ctx context.Context, input usecase.ManualCreditInput) (*domain.LedgerEntry, error)
}

// ReconciliationHandler handles operator reconciliation requests.
type ReconciliationHandler struct {
	reconUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconUC: reconUC}
}

// BalanceAudit runs a full balance audit. Mismatches report with 409 so a
// calling script fails loudly; the audit never repairs anything.
func (h *ReconciliationHandler) BalanceAudit(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconUC.AuditBalances(r.Context())
	if err != nil && !errors.Is(err, domain.ErrReconciliationMismatch) {
		writeError(w, mapDomainError(err), "balance audit failed", err.Error())
		return
	}

	status := http.StatusOK
	if len(report.Mismatches) > 0 {
		status = http.StatusConflict
	}
	writeJSON(w, status, dto.AuditReportFromUseCase(report))
}

// RecoverDeposits diffs the provider's transaction history against the
// ledger and optionally re-applies missed credits.
func (h *ReconciliationHandler) RecoverDeposits(w http.ResponseWriter, r *http.Request) {
	var req dto.RecoverDepositsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.From.IsZero() || req.To.IsZero() || !req.From.Before(req.To) {
		writeError(w, http.StatusBadRequest, "invalid window", "from must precede to")
		return
	}

	report, err := h.reconUC.RecoverMissedDeposits(r.Context(), req.From, req.To, req.Apply)
	if err != nil {
		writeError(w, mapDomainError(err), "deposit recovery failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RecoveryReportFromUseCase(report))
}

// ManualCredit applies an operator-verified credit.
func (h *ReconciliationHandler) ManualCredit(w http.ResponseWriter, r *http.Request) {
	var req dto.ManualCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.reconUC.ManualCredit(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "manual credit rejected", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}
