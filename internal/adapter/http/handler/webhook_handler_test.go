package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kolobank/walletcore/internal/adapter/http/dto"
	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
)

type depositServiceStub struct {
	handleFn func(ctx context.Context, rawBody []byte, signatureHeader string) (*usecase.DepositResult, error)
}

func (s *depositServiceStub) HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (*usecase.DepositResult, error) {
	return s.handleFn(ctx, rawBody, signatureHeader)
}

type transferStatusServiceStub struct {
	handleFn func(ctx context.Context, n domain.TransferStatusNotification) error
}

func (s *transferStatusServiceStub) HandleTransferStatus(ctx context.Context, n domain.TransferStatusNotification) error {
	return s.handleFn(ctx, n)
}

type verifierStub struct {
	strategy string
	ok       bool
}

func (v *verifierStub) Verify(body []byte, signatureHeader string) (string, bool) {
	return v.strategy, v.ok
}

func TestWebhookHandler_Deposit_PassesRawBodyAndSignature(t *testing.T) {
	rawBody := []byte(`{"accountNumber":"0123456789","reference":"DEP-001","amount":"10000"}`)
	var gotBody []byte
	var gotSignature string

	h := NewWebhookHandler(WebhookHandlerConfig{
		Deposits: &depositServiceStub{
			handleFn: func(ctx context.Context, body []byte, sig string) (*usecase.DepositResult, error) {
				gotBody = body
				gotSignature = sig
				return &usecase.DepositResult{Entry: &domain.LedgerEntry{ID: "entry-1"}}, nil
			},
		},
		Logger: zerolog.Nop(),
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/deposit", bytes.NewReader(rawBody))
	req.Header.Set(SignatureHeader, "abc123")
	rec := httptest.NewRecorder()

	h.Deposit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !bytes.Equal(gotBody, rawBody) {
		t.Error("handler must pass the body byte-exact")
	}
	if gotSignature != "abc123" {
		t.Errorf("signature = %q, want abc123", gotSignature)
	}
}

func TestWebhookHandler_Deposit_DuplicateAcknowledged(t *testing.T) {
	h := NewWebhookHandler(WebhookHandlerConfig{
		Deposits: &depositServiceStub{
			handleFn: func(ctx context.Context, body []byte, sig string) (*usecase.DepositResult, error) {
				return &usecase.DepositResult{Duplicate: true}, nil
			},
		},
		Logger: zerolog.Nop(),
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/deposit", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	h.Deposit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate delivery must acknowledge with 200, got %d", rec.Code)
	}

	var resp dto.WebhookAckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Duplicate {
		t.Error("expected duplicate flag in acknowledgement")
	}
}

func TestWebhookHandler_Deposit_RejectionStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad signature", domain.ErrAuthenticationFailed, http.StatusUnauthorized},
		{"malformed payload", domain.ErrMalformedPayload, http.StatusBadRequest},
		{"unknown account", domain.ErrWalletNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewWebhookHandler(WebhookHandlerConfig{
				Deposits: &depositServiceStub{
					handleFn: func(ctx context.Context, body []byte, sig string) (*usecase.DepositResult, error) {
						return nil, tt.err
					},
				},
				Logger: zerolog.Nop(),
			})

			req := httptest.NewRequest(http.MethodPost, "/webhooks/deposit", bytes.NewReader([]byte(`{}`)))
			rec := httptest.NewRecorder()

			h.Deposit(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestWebhookHandler_TransferStatus_Verified(t *testing.T) {
	var got domain.TransferStatusNotification

	h := NewWebhookHandler(WebhookHandlerConfig{
		Transfers: &transferStatusServiceStub{
			handleFn: func(ctx context.Context, n domain.TransferStatusNotification) error {
				got = n
				return nil
			},
		},
		Verifier: &verifierStub{strategy: "hmac-sha512", ok: true},
		Enforce:  true,
		Logger:   zerolog.Nop(),
	})

	body, _ := json.Marshal(domain.TransferStatusNotification{
		TransferReference: "TRF-001",
		Status:            domain.TransferStatusSuccessful,
	})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/transfer-status", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.TransferStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.TransferReference != "TRF-001" || got.Status != domain.TransferStatusSuccessful {
		t.Errorf("unexpected notification %+v", got)
	}
}

func TestWebhookHandler_TransferStatus_UnverifiedEnforced(t *testing.T) {
	h := NewWebhookHandler(WebhookHandlerConfig{
		Transfers: &transferStatusServiceStub{
			handleFn: func(ctx context.Context, n domain.TransferStatusNotification) error {
				t.Error("unverified notification must not reach the use case in enforce mode")
				return nil
			},
		},
		Verifier: &verifierStub{ok: false},
		Enforce:  true,
		Logger:   zerolog.Nop(),
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/transfer-status", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	h.TransferStatus(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestWebhookHandler_TransferStatus_UnverifiedLogMode(t *testing.T) {
	applied := false

	h := NewWebhookHandler(WebhookHandlerConfig{
		Transfers: &transferStatusServiceStub{
			handleFn: func(ctx context.Context, n domain.TransferStatusNotification) error {
				applied = true
				return nil
			},
		},
		Verifier: &verifierStub{ok: false},
		Enforce:  false,
		Logger:   zerolog.Nop(),
	})

	body, _ := json.Marshal(domain.TransferStatusNotification{
		TransferReference: "TRF-002",
		Status:            domain.TransferStatusFailed,
	})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/transfer-status", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.TransferStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 in log mode, got %d", rec.Code)
	}
	if !applied {
		t.Error("log mode must still apply the notification")
	}
}

func TestWebhookHandler_TransferStatus_UnknownReference(t *testing.T) {
	h := NewWebhookHandler(WebhookHandlerConfig{
		Transfers: &transferStatusServiceStub{
			handleFn: func(ctx context.Context, n domain.TransferStatusNotification) error {
				return domain.ErrWithdrawalNotFound
			},
		},
		Verifier: &verifierStub{ok: true},
		Enforce:  true,
		Logger:   zerolog.Nop(),
	})

	body, _ := json.Marshal(domain.TransferStatusNotification{TransferReference: "TRF-GONE"})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/transfer-status", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.TransferStatus(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 so the provider retries, got %d", rec.Code)
	}
}
