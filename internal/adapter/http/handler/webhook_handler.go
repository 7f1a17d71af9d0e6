package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/kolobank/walletcore/internal/adapter/http/dto"
	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
)

// maxWebhookBody caps an inbound webhook payload at 1 MiB.
const maxWebhookBody = 1 << 20

// SignatureHeader is the header the provider signs payloads under.
const SignatureHeader = "X-Signature"

// DepositService defines the behavior needed for deposit webhooks.
type DepositService interface {
	HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (*usecase.DepositResult, error)
}

// TransferStatusService defines the behavior needed for transfer status
// webhooks.
type TransferStatusService interface {
	HandleTransferStatus(ctx context.Context, n domain.TransferStatusNotification) error
}

// WebhookHandler handles inbound provider notifications. The body is read
// raw before any decoding because signatures cover the exact wire bytes.
type WebhookHandler struct {
	deposits  DepositService
	transfers TransferStatusService
	verifier  usecase.SignatureVerifier
	enforce   bool
	logger    zerolog.Logger
}

// WebhookHandlerConfig holds dependencies for the WebhookHandler.
type WebhookHandlerConfig struct {
	Deposits  DepositService
	Transfers TransferStatusService
	Verifier  usecase.SignatureVerifier
	Enforce   bool
	Logger    zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(cfg WebhookHandlerConfig) *WebhookHandler {
	return &WebhookHandler{
		deposits:  cfg.Deposits,
		transfers: cfg.Transfers,
		verifier:  cfg.Verifier,
		enforce:   cfg.Enforce,
		logger:    cfg.Logger,
	}
}

// Deposit ingests a deposit notification. Duplicates acknowledge with 200
// so the provider stops retrying.
func (h *WebhookHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body", err.Error())
		return
	}

	result, err := h.deposits.HandleWebhook(r.Context(), body, r.Header.Get(SignatureHeader))
	if err != nil {
		writeError(w, mapDomainError(err), "deposit webhook rejected", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WebhookAckResponse{
		Status:    "ok",
		Duplicate: result.Duplicate,
	})
}

// TransferStatus ingests a withdrawal terminal-status notification.
func (h *WebhookHandler) TransferStatus(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body", err.Error())
		return
	}

	strategy, verified := h.verifier.Verify(body, r.Header.Get(SignatureHeader))
	if !verified && h.enforce {
		writeError(w, http.StatusUnauthorized, "signature verification failed", "")
		return
	}
	if !verified {
		h.logger.Warn().Msg("unverified transfer status webhook accepted in log mode")
	} else {
		h.logger.Debug().Str("strategy", strategy).Msg("transfer status webhook verified")
	}

	var n domain.TransferStatusNotification
	if err := json.Unmarshal(body, &n); err != nil {
		writeError(w, http.StatusBadRequest, "malformed payload", err.Error())
		return
	}

	if err := h.transfers.HandleTransferStatus(r.Context(), n); err != nil {
		// An unknown reference usually means the notification raced the
		// withdrawal insert; the provider retries and the poller backstops.
		if errors.Is(err, domain.ErrWithdrawalNotFound) {
			writeError(w, http.StatusNotFound, "unknown transfer reference", n.TransferReference)
			return
		}
		writeError(w, mapDomainError(err), "transfer status rejected", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WebhookAckResponse{Status: "ok"})
}
