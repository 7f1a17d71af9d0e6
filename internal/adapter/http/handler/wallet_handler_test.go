package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/adapter/http/dto"
	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
)

type walletServiceStub struct {
	createFn    func(ctx context.Context, input usecase.CreateWalletInput) (*domain.Wallet, error)
	getFn       func(ctx context.Context, id string) (*domain.Wallet, error)
	listFn      func(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.LedgerEntry, error)
	balanceAtFn func(ctx context.Context, walletID string, at time.Time) (decimal.Decimal, error)
}

func (s *walletServiceStub) CreateWallet(ctx context.Context, input usecase.CreateWalletInput) (*domain.Wallet, error) {
	return s.createFn(ctx, input)
}

func (s *walletServiceStub) GetWallet(ctx context.Context, id string) (*domain.Wallet, error) {
	return s.getFn(ctx, id)
}

func (s *walletServiceStub) ListEntries(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.LedgerEntry, error) {
	return s.listFn(ctx, input)
}

func (s *walletServiceStub) BalanceAt(ctx context.Context, walletID string, at time.Time) (decimal.Decimal, error) {
	return s.balanceAtFn(ctx, walletID, at)
}

// withURLParam injects a chi route parameter into the request context.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestWalletHandler_Create_Success(t *testing.T) {
	wallet := &domain.Wallet{
		ID:            "wallet-1",
		UserID:        "user-1",
		Kind:          domain.WalletKindUser,
		Currency:      "NGN",
		Balance:       decimal.Zero,
		AccountNumber: "0123456789",
	}
	var captured usecase.CreateWalletInput

	h := NewWalletHandler(&walletServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateWalletInput) (*domain.Wallet, error) {
			captured = input
			return wallet, nil
		},
	})

	body, _ := json.Marshal(dto.CreateWalletRequest{
		UserID:        "user-1",
		Currency:      "NGN",
		AccountNumber: "0123456789",
		BankCode:      "999",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.UserID != "user-1" || captured.AccountNumber != "0123456789" {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.WalletResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "wallet-1" {
		t.Errorf("ID = %q, want wallet-1", resp.ID)
	}
}

func TestWalletHandler_Create_InvalidAccountNumber(t *testing.T) {
	h := NewWalletHandler(&walletServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateWalletInput) (*domain.Wallet, error) {
			return nil, domain.ErrInvalidAccountNumber
		},
	})

	body, _ := json.Marshal(dto.CreateWalletRequest{UserID: "user-1", Currency: "NGN", AccountNumber: "12"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWalletHandler_Get_NotFound(t *testing.T) {
	h := NewWalletHandler(&walletServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Wallet, error) {
			return nil, domain.ErrWalletNotFound
		},
	})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/wallets/missing", nil), "id", "missing")
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestWalletHandler_ListEntries_Pagination(t *testing.T) {
	var captured usecase.ListEntriesInput

	h := NewWalletHandler(&walletServiceStub{
		listFn: func(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.LedgerEntry, error) {
			captured = input
			return []*domain.LedgerEntry{{ID: "entry-1", WalletID: input.WalletID}}, nil
		},
	})

	req := withURLParam(
		httptest.NewRequest(http.MethodGet, "/api/v1/wallets/wallet-1/entries?limit=10&offset=20", nil),
		"id", "wallet-1")
	rec := httptest.NewRecorder()

	h.ListEntries(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.WalletID != "wallet-1" || captured.Limit != 10 || captured.Offset != 20 {
		t.Fatalf("unexpected input %+v", captured)
	}
}

func TestWalletHandler_BalanceHistory(t *testing.T) {
	at := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	var gotAt time.Time

	h := NewWalletHandler(&walletServiceStub{
		balanceAtFn: func(ctx context.Context, walletID string, when time.Time) (decimal.Decimal, error) {
			gotAt = when
			return decimal.RequireFromString("1234.56"), nil
		},
	})

	req := withURLParam(
		httptest.NewRequest(http.MethodGet,
			"/api/v1/wallets/wallet-1/balance/history?at="+at.Format(time.RFC3339), nil),
		"id", "wallet-1")
	rec := httptest.NewRecorder()

	h.BalanceHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !gotAt.Equal(at) {
		t.Errorf("at = %s, want %s", gotAt, at)
	}

	var resp dto.BalanceAtResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Balance.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("balance = %s, want 1234.56", resp.Balance)
	}
}

func TestWalletHandler_BalanceHistory_BadTimestamp(t *testing.T) {
	h := NewWalletHandler(&walletServiceStub{})

	req := withURLParam(
		httptest.NewRequest(http.MethodGet, "/api/v1/wallets/wallet-1/balance/history?at=yesterday", nil),
		"id", "wallet-1")
	rec := httptest.NewRecorder()

	h.BalanceHistory(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
