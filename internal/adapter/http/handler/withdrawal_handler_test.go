package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/adapter/http/dto"
	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
)

type withdrawalServiceStub struct {
	requestFn func(ctx context.Context, input usecase.RequestWithdrawalInput) (*domain.WithdrawalRequest, error)
	getFn     func(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
}

func (s *withdrawalServiceStub) RequestWithdrawal(ctx context.Context, input usecase.RequestWithdrawalInput) (*domain.WithdrawalRequest, error) {
	return s.requestFn(ctx, input)
}

func (s *withdrawalServiceStub) GetWithdrawal(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	return s.getFn(ctx, id)
}

func TestWithdrawalHandler_Create_Accepted(t *testing.T) {
	withdrawal := &domain.WithdrawalRequest{
		ID:       "wd-1",
		WalletID: "wallet-1",
		Amount:   decimal.RequireFromString("5000"),
		Status:   domain.WithdrawalStatusProcessing,
	}
	var captured usecase.RequestWithdrawalInput

	h := NewWithdrawalHandler(&withdrawalServiceStub{
		requestFn: func(ctx context.Context, input usecase.RequestWithdrawalInput) (*domain.WithdrawalRequest, error) {
			captured = input
			return withdrawal, nil
		},
	})

	body, _ := json.Marshal(dto.RequestWithdrawalRequest{
		WalletID:           "wallet-1",
		Amount:             decimal.RequireFromString("5000"),
		DestinationAccount: "9876543210",
		DestinationBank:    "058",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.WalletID != "wallet-1" || !captured.Amount.Equal(decimal.RequireFromString("5000")) {
		t.Fatalf("unexpected input %+v", captured)
	}

	var resp dto.WithdrawalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != string(domain.WithdrawalStatusProcessing) {
		t.Errorf("status = %q, want processing", resp.Status)
	}
}

func TestWithdrawalHandler_Create_InsufficientFunds(t *testing.T) {
	h := NewWithdrawalHandler(&withdrawalServiceStub{
		requestFn: func(ctx context.Context, input usecase.RequestWithdrawalInput) (*domain.WithdrawalRequest, error) {
			return nil, domain.ErrInsufficientFunds
		},
	})

	body, _ := json.Marshal(dto.RequestWithdrawalRequest{WalletID: "wallet-1", Amount: decimal.NewFromInt(1)})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestWithdrawalHandler_Create_ProviderUnavailableStillAccepted(t *testing.T) {
	// An unreachable rail leaves the reservation standing, so the handler
	// still reports the pending withdrawal.
	h := NewWithdrawalHandler(&withdrawalServiceStub{
		requestFn: func(ctx context.Context, input usecase.RequestWithdrawalInput) (*domain.WithdrawalRequest, error) {
			return &domain.WithdrawalRequest{ID: "wd-2", Status: domain.WithdrawalStatusPending}, nil
		},
	})

	body, _ := json.Marshal(dto.RequestWithdrawalRequest{WalletID: "wallet-1", Amount: decimal.NewFromInt(100)})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}

	var resp dto.WithdrawalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != string(domain.WithdrawalStatusPending) {
		t.Errorf("status = %q, want pending", resp.Status)
	}
}

func TestWithdrawalHandler_Get(t *testing.T) {
	h := NewWithdrawalHandler(&withdrawalServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
			if id != "wd-1" {
				t.Errorf("id = %q, want wd-1", id)
			}
			return &domain.WithdrawalRequest{ID: "wd-1", Status: domain.WithdrawalStatusCompleted}, nil
		},
	})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/withdrawals/wd-1", nil), "id", "wd-1")
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
