package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kolobank/walletcore/internal/adapter/http/dto"
	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
)

// PaymentLinkService defines the behavior needed by PaymentLinkHandler.
type PaymentLinkService interface {
	CreateLink(ctx context.Context, input usecase.CreateLinkInput) (*domain.PaymentLink, error)
	GetView(ctx context.Context, code string) (*domain.LinkView, error)
	RegisterContribution(ctx context.Context, input usecase.RegisterContributionInput) (*domain.Contribution, error)
	DeactivateLink(ctx context.Context, code, walletID string) error
	CreateGoal(ctx context.Context, input usecase.CreateGoalInput) (*domain.SavingsGoal, error)
	GetGoal(ctx context.Context, id string) (*domain.SavingsGoal, error)
}

// PaymentLinkHandler handles payment link and savings goal HTTP requests.
type PaymentLinkHandler struct {
	linkUC PaymentLinkService
}

// NewPaymentLinkHandler creates a new PaymentLinkHandler.
func NewPaymentLinkHandler(linkUC PaymentLinkService) *PaymentLinkHandler {
	return &PaymentLinkHandler{linkUC: linkUC}
}

// Create creates a payment link.
func (h *PaymentLinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	link, err := h.linkUC.CreateLink(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create payment link", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.LinkFromDomain(link))
}

// GetView returns the public projection of a link. This is the page a
// contributor sees, so it never exposes the owner's wallet.
func (h *PaymentLinkHandler) GetView(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing link code", "")
		return
	}

	view, err := h.linkUC.GetView(r.Context(), code)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get payment link", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LinkViewFromDomain(view))
}

// RegisterContribution records a contributor's intent to pay.
func (h *PaymentLinkHandler) RegisterContribution(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing link code", "")
		return
	}

	var req dto.RegisterContributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	contribution, err := h.linkUC.RegisterContribution(r.Context(), usecase.RegisterContributionInput{
		Code:            code,
		ContributorName: req.ContributorName,
		Amount:          req.Amount,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to register contribution", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.ContributionFromDomain(contribution))
}

// Deactivate turns a payment link off.
func (h *PaymentLinkHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing link code", "")
		return
	}

	var req dto.DeactivateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.linkUC.DeactivateLink(r.Context(), code, req.WalletID); err != nil {
		writeError(w, mapDomainError(err), "failed to deactivate payment link", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// CreateGoal creates a savings goal.
func (h *PaymentLinkHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	goal, err := h.linkUC.CreateGoal(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create goal", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.GoalFromDomain(goal))
}

// GetGoal retrieves a savings goal by ID.
func (h *PaymentLinkHandler) GetGoal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing goal ID", "")
		return
	}

	goal, err := h.linkUC.GetGoal(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get goal", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.GoalFromDomain(goal))
}
