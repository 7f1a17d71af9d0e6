package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
	"github.com/kolobank/walletcore/internal/usecase/mocks"
)

const testPlatformWalletID = "wallet-platform"

func newTestLedger(t *testing.T) (*usecase.LedgerUseCase, *mocks.MockWalletRepository, *mocks.MockEntryRepository) {
	t.Helper()

	walletRepo := mocks.NewMockWalletRepository()
	entryRepo := mocks.NewMockEntryRepository()
	txMgr := mocks.NewMockTransactionManager()
	idGen := mocks.NewMockIDGenerator()

	now := time.Now().UTC()
	_ = walletRepo.Create(context.Background(), &domain.Wallet{
		ID:        testPlatformWalletID,
		Kind:      domain.WalletKindPlatform,
		Currency:  "NGN",
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	})

	uc := usecase.NewLedgerUseCase(txMgr, walletRepo, entryRepo, idGen, testPlatformWalletID, nil)
	return uc, walletRepo, entryRepo
}

func seedWallet(t *testing.T, repo *mocks.MockWalletRepository, id, balance string) *domain.Wallet {
	t.Helper()
	w := &domain.Wallet{
		ID:            id,
		Kind:          domain.WalletKindUser,
		Currency:      "NGN",
		Balance:       decimal.RequireFromString(balance),
		AccountNumber: "0123456789",
	}
	if err := repo.Create(context.Background(), w); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	return w
}

func TestLedgerUseCase_Credit(t *testing.T) {
	tests := []struct {
		name            string
		startBalance    string
		input           usecase.MutationInput
		wantErr         error
		wantBalance     string
		wantPlatform    string
		wantNet         string
		wantEntryStatus domain.EntryStatus
	}{
		{
			name:         "completed credit applies net and settles fees",
			startBalance: "0",
			input: usecase.MutationInput{
				WalletID: "wallet-1",
				Amount:   decimal.NewFromInt(10000),
				Fees: domain.FeeBreakdown{
					Gross:     decimal.NewFromInt(10000),
					StampDuty: decimal.NewFromInt(50),
					Total:     decimal.NewFromInt(50),
					Net:       decimal.NewFromInt(9950),
				},
				Type:   domain.EntryTypeDeposit,
				Status: domain.EntryStatusCompleted,
			},
			wantBalance:     "9950",
			wantPlatform:    "50",
			wantNet:         "9950",
			wantEntryStatus: domain.EntryStatusCompleted,
		},
		{
			name:         "credit without fees applies gross",
			startBalance: "100",
			input: usecase.MutationInput{
				WalletID: "wallet-1",
				Amount:   decimal.NewFromInt(500),
				Type:     domain.EntryTypeRefund,
				Status:   domain.EntryStatusCompleted,
			},
			wantBalance:     "600",
			wantPlatform:    "0",
			wantNet:         "500",
			wantEntryStatus: domain.EntryStatusCompleted,
		},
		{
			name:         "zero amount rejected",
			startBalance: "100",
			input: usecase.MutationInput{
				WalletID: "wallet-1",
				Amount:   decimal.Zero,
				Type:     domain.EntryTypeDeposit,
				Status:   domain.EntryStatusCompleted,
			},
			wantErr:     domain.ErrInvalidAmount,
			wantBalance: "100",
		},
		{
			name:         "unknown wallet",
			startBalance: "0",
			input: usecase.MutationInput{
				WalletID: "wallet-missing",
				Amount:   decimal.NewFromInt(10),
				Type:     domain.EntryTypeDeposit,
				Status:   domain.EntryStatusCompleted,
			},
			wantErr: domain.ErrWalletNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, walletRepo, _ := newTestLedger(t)
			seedWallet(t, walletRepo, "wallet-1", tt.startBalance)

			entry, err := uc.Credit(context.Background(), tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !entry.NetAmount.Equal(decimal.RequireFromString(tt.wantNet)) {
				t.Errorf("entry net = %s, want %s", entry.NetAmount, tt.wantNet)
			}
			if entry.Status != tt.wantEntryStatus {
				t.Errorf("entry status = %s, want %s", entry.Status, tt.wantEntryStatus)
			}

			wallet, _ := walletRepo.GetByID(context.Background(), "wallet-1")
			if !wallet.Balance.Equal(decimal.RequireFromString(tt.wantBalance)) {
				t.Errorf("wallet balance = %s, want %s", wallet.Balance, tt.wantBalance)
			}

			platform, _ := walletRepo.GetByID(context.Background(), testPlatformWalletID)
			if !platform.Balance.Equal(decimal.RequireFromString(tt.wantPlatform)) {
				t.Errorf("platform balance = %s, want %s", platform.Balance, tt.wantPlatform)
			}
		})
	}
}

func TestLedgerUseCase_Debit(t *testing.T) {
	tests := []struct {
		name         string
		startBalance string
		input        usecase.MutationInput
		wantErr      error
		wantBalance  string
		wantPlatform string
	}{
		{
			name:         "completed debit applies gross and settles fees",
			startBalance: "10000",
			input: usecase.MutationInput{
				WalletID: "wallet-1",
				Amount:   decimal.NewFromInt(5000),
				Fees: domain.FeeBreakdown{
					Fee:   decimal.NewFromInt(10),
					VAT:   decimal.RequireFromString("0.75"),
					Total: decimal.RequireFromString("10.75"),
					Net:   decimal.RequireFromString("4989.25"),
				},
				Type:   domain.EntryTypeContribution,
				Status: domain.EntryStatusCompleted,
			},
			wantBalance:  "5000",
			wantPlatform: "10.75",
		},
		{
			name:         "pending debit reserves gross without settling fees",
			startBalance: "10000",
			input: usecase.MutationInput{
				WalletID: "wallet-1",
				Amount:   decimal.NewFromInt(5000),
				Fees: domain.FeeBreakdown{
					Fee:   decimal.NewFromInt(10),
					VAT:   decimal.RequireFromString("0.75"),
					Total: decimal.RequireFromString("10.75"),
				},
				Type:   domain.EntryTypeWithdrawal,
				Status: domain.EntryStatusPending,
			},
			wantBalance:  "5000",
			wantPlatform: "0",
		},
		{
			name:         "insufficient funds leaves state untouched",
			startBalance: "100",
			input: usecase.MutationInput{
				WalletID: "wallet-1",
				Amount:   decimal.NewFromInt(101),
				Type:     domain.EntryTypeWithdrawal,
				Status:   domain.EntryStatusCompleted,
			},
			wantErr:      domain.ErrInsufficientFunds,
			wantBalance:  "100",
			wantPlatform: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, walletRepo, _ := newTestLedger(t)
			seedWallet(t, walletRepo, "wallet-1", tt.startBalance)

			_, err := uc.Debit(context.Background(), tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			wallet, _ := walletRepo.GetByID(context.Background(), "wallet-1")
			if !wallet.Balance.Equal(decimal.RequireFromString(tt.wantBalance)) {
				t.Errorf("wallet balance = %s, want %s", wallet.Balance, tt.wantBalance)
			}

			platform, _ := walletRepo.GetByID(context.Background(), testPlatformWalletID)
			if !platform.Balance.Equal(decimal.RequireFromString(tt.wantPlatform)) {
				t.Errorf("platform balance = %s, want %s", platform.Balance, tt.wantPlatform)
			}
		})
	}
}

func TestLedgerUseCase_BalanceMatchesEntryHistory(t *testing.T) {
	uc, walletRepo, entryRepo := newTestLedger(t)
	seedWallet(t, walletRepo, "wallet-1", "0")
	ctx := context.Background()

	if _, err := uc.Credit(ctx, usecase.MutationInput{
		WalletID: "wallet-1",
		Amount:   decimal.NewFromInt(10000),
		Fees: domain.FeeBreakdown{
			StampDuty: decimal.NewFromInt(50),
			Total:     decimal.NewFromInt(50),
			Net:       decimal.NewFromInt(9950),
		},
		Type:   domain.EntryTypeDeposit,
		Status: domain.EntryStatusCompleted,
	}); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if _, err := uc.Debit(ctx, usecase.MutationInput{
		WalletID: "wallet-1",
		Amount:   decimal.NewFromInt(3000),
		Type:     domain.EntryTypeWithdrawal,
		Status:   domain.EntryStatusPending,
	}); err != nil {
		t.Fatalf("debit: %v", err)
	}

	for _, id := range []string{"wallet-1", testPlatformWalletID} {
		wallet, _ := walletRepo.GetByID(ctx, id)
		computed, err := entryRepo.SumAppliedByWallet(ctx, id)
		if err != nil {
			t.Fatalf("sum entries: %v", err)
		}
		if !computed.Equal(wallet.Balance) {
			t.Errorf("wallet %s: entry history sums to %s, stored balance is %s", id, computed, wallet.Balance)
		}
	}
}

func TestLedgerUseCase_ConcurrentCredits(t *testing.T) {
	uc, walletRepo, _ := newTestLedger(t)
	seedWallet(t, walletRepo, "wallet-1", "0")

	const n = 20
	amount := decimal.NewFromInt(100)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Credit(context.Background(), usecase.MutationInput{
				WalletID: "wallet-1",
				Amount:   amount,
				Type:     domain.EntryTypeDeposit,
				Status:   domain.EntryStatusCompleted,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent credit failed: %v", err)
		}
	}

	wallet, _ := walletRepo.GetByID(context.Background(), "wallet-1")
	want := amount.Mul(decimal.NewFromInt(n))
	if !wallet.Balance.Equal(want) {
		t.Errorf("balance after %d concurrent credits = %s, want %s", n, wallet.Balance, want)
	}
	if wallet.Version != n {
		t.Errorf("wallet version = %d, want %d", wallet.Version, n)
	}
}
