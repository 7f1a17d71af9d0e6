package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/infrastructure/metrics"
)

var testMetrics = metrics.New()

func newTestClient(baseURL string) *Client {
	c := NewClient(Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
		Logger:  zerolog.Nop(),
		Metrics: testMetrics,
	})
	c.maxRetries = 1
	return c
}

func TestClient_InitiateTransfer(t *testing.T) {
	var gotAuth string
	var gotBody domain.RailTransferRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/transfers" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(domain.RailTransferResult{
			TransferReference: "TRF-12345",
			Status:            "processing",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	result, err := client.InitiateTransfer(context.Background(), domain.RailTransferRequest{
		DestinationAccount: "9876543210",
		DestinationBank:    "058",
		Amount:             decimal.RequireFromString("4989.25"),
		CustomerReference:  "wd-001",
	})
	if err != nil {
		t.Fatalf("InitiateTransfer() error = %v", err)
	}

	if result.TransferReference != "TRF-12345" {
		t.Errorf("TransferReference = %q, want TRF-12345", result.TransferReference)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody.CustomerReference != "wd-001" {
		t.Errorf("CustomerReference = %q, want wd-001", gotBody.CustomerReference)
	}
	if !gotBody.Amount.Equal(decimal.RequireFromString("4989.25")) {
		t.Errorf("Amount = %s, want 4989.25", gotBody.Amount)
	}
}

func TestClient_InitiateTransfer_MissingReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.RailTransferResult{Status: "processing"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).InitiateTransfer(context.Background(), domain.RailTransferRequest{
		CustomerReference: "wd-002",
	})
	if !errors.Is(err, domain.ErrTransferReferenceMissing) {
		t.Errorf("error = %v, want ErrTransferReferenceMissing", err)
	}
}

func TestClient_ServerErrorRetriesThenUnavailable(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetTransferStatus(context.Background(), "TRF-1")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("error = %v, want ErrProviderUnavailable", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (one retry)", calls.Load())
	}
}

func TestClient_ClientErrorNeverRetries(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"message": "invalid account"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).InitiateTransfer(context.Background(), domain.RailTransferRequest{
		CustomerReference: "wd-003",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("4xx must not map to ErrProviderUnavailable, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 4xx)", calls.Load())
	}
}

func TestClient_ConnectionRefusedIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv.URL).GetTransferStatus(context.Background(), "TRF-1")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("error = %v, want ErrProviderUnavailable", err)
	}
}

func TestClient_NilMetricsIsOptional(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.RailTransferResult{
			TransferReference: "TRF-1",
			Status:            "completed",
		})
	}))
	defer srv.Close()

	c := NewClient(Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
		Logger:  zerolog.Nop(),
	})

	result, err := c.GetTransferStatus(context.Background(), "TRF-1")
	if err != nil {
		t.Fatalf("GetTransferStatus() error = %v", err)
	}
	if result.Status != "completed" {
		t.Errorf("Status = %q, want completed", result.Status)
	}
}

func TestClient_ListTransactions(t *testing.T) {
	posted := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts/0123456789/transactions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("from") == "" || r.URL.Query().Get("to") == "" {
			t.Error("missing from/to query parameters")
		}
		json.NewEncoder(w).Encode(listTransactionsResponse{
			Transactions: []domain.RailTransaction{
				{
					Reference:     "DEP-001",
					Type:          "credit",
					Amount:        decimal.RequireFromString("2000"),
					AccountNumber: "0123456789",
					PostedAt:      posted,
				},
			},
		})
	}))
	defer srv.Close()

	txns, err := newTestClient(srv.URL).ListTransactions(context.Background(), "0123456789",
		posted.Add(-time.Hour), posted.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("len = %d, want 1", len(txns))
	}
	if txns[0].Reference != "DEP-001" || txns[0].Type != "credit" {
		t.Errorf("unexpected transaction %+v", txns[0])
	}
}
