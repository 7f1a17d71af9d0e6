package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kolobank/walletcore/internal/adapter/http/dto"
	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
)

// FeeConfigService defines the behavior needed by FeeConfigHandler.
type FeeConfigService interface {
	GetActive(ctx context.Context) (*domain.FeeConfiguration, error)
	CreateVersion(ctx context.Context, input usecase.CreateVersionInput) (*domain.FeeConfiguration, error)
}

// FeeConfigHandler handles fee configuration HTTP requests.
type FeeConfigHandler struct {
	feeUC FeeConfigService
}

// NewFeeConfigHandler creates a new FeeConfigHandler.
func NewFeeConfigHandler(feeUC FeeConfigService) *FeeConfigHandler {
	return &FeeConfigHandler{feeUC: feeUC}
}

// GetActive returns the current fee schedule.
func (h *FeeConfigHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.feeUC.GetActive(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get fee configuration", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.FeeConfigFromDomain(cfg))
}

// Create inserts a new fee schedule version and deactivates the current
// one.
func (h *FeeConfigHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateFeeConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	cfg, err := h.feeUC.CreateVersion(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create fee configuration", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.FeeConfigFromDomain(cfg))
}
