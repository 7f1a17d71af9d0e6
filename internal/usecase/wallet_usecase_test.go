package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
	"github.com/kolobank/walletcore/internal/usecase/mocks"
)

func newWalletUseCase(walletRepo *mocks.MockWalletRepository, entryRepo *mocks.MockEntryRepository, outboxRepo *mocks.MockOutboxRepository) *usecase.WalletUseCase {
	return usecase.NewWalletUseCase(
		mocks.NewMockTransactionManager(),
		walletRepo,
		entryRepo,
		outboxRepo,
		mocks.NewMockIDGenerator(),
	)
}

func TestWalletUseCase_CreateWallet(t *testing.T) {
	walletRepo := mocks.NewMockWalletRepository()
	outboxRepo := mocks.NewMockOutboxRepository()
	uc := newWalletUseCase(walletRepo, mocks.NewMockEntryRepository(), outboxRepo)

	wallet, err := uc.CreateWallet(context.Background(), usecase.CreateWalletInput{
		UserID:        "user-1",
		Currency:      "ngn ",
		AccountNumber: " 0123456789",
		BankCode:      "999",
		BankName:      "Test Bank",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, wallet.ID)
	assert.Equal(t, domain.WalletKindUser, wallet.Kind)
	assert.Equal(t, "NGN", wallet.Currency)
	assert.Equal(t, "0123456789", wallet.AccountNumber)
	assert.True(t, wallet.Balance.IsZero())
	assert.EqualValues(t, 0, wallet.Version)

	stored, err := walletRepo.GetByID(context.Background(), wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, wallet.ID, stored.ID)

	events := outboxRepo.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTypeWalletCreated, events[0].EventType)
	assert.Equal(t, wallet.ID, events[0].AggregateID)
}

func TestWalletUseCase_CreateWallet_Validation(t *testing.T) {
	uc := newWalletUseCase(mocks.NewMockWalletRepository(), mocks.NewMockEntryRepository(), mocks.NewMockOutboxRepository())

	tests := []struct {
		name    string
		input   usecase.CreateWalletInput
		wantErr error
	}{
		{
			name:    "unsupported currency",
			input:   usecase.CreateWalletInput{UserID: "user-1", Currency: "XOF", AccountNumber: "0123456789"},
			wantErr: domain.ErrInvalidCurrency,
		},
		{
			name:    "short account number",
			input:   usecase.CreateWalletInput{UserID: "user-1", Currency: "NGN", AccountNumber: "12345"},
			wantErr: domain.ErrInvalidAccountNumber,
		},
		{
			name:    "non-numeric account number",
			input:   usecase.CreateWalletInput{UserID: "user-1", Currency: "NGN", AccountNumber: "01234abcde"},
			wantErr: domain.ErrInvalidAccountNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.CreateWallet(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWalletUseCase_GetWallet_NotFound(t *testing.T) {
	uc := newWalletUseCase(mocks.NewMockWalletRepository(), mocks.NewMockEntryRepository(), mocks.NewMockOutboxRepository())

	_, err := uc.GetWallet(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)
}

func TestWalletUseCase_ListEntries_ClampsPagination(t *testing.T) {
	entryRepo := mocks.NewMockEntryRepository()
	var gotLimit, gotOffset int
	entryRepo.GetByWalletFunc = func(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error) {
		gotLimit, gotOffset = limit, offset
		return nil, nil
	}

	uc := newWalletUseCase(mocks.NewMockWalletRepository(), entryRepo, mocks.NewMockOutboxRepository())

	_, err := uc.ListEntries(context.Background(), usecase.ListEntriesInput{
		WalletID: "wallet-1",
		Limit:    -5,
		Offset:   -1,
	})
	require.NoError(t, err)
	assert.Positive(t, gotLimit)
	assert.Equal(t, 0, gotOffset)
}

func TestWalletUseCase_BalanceAt(t *testing.T) {
	walletRepo := mocks.NewMockWalletRepository()
	wallet := &domain.Wallet{ID: "wallet-1", Currency: "NGN"}
	require.NoError(t, walletRepo.Create(context.Background(), wallet))

	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	entryRepo := mocks.NewMockEntryRepository()
	entryRepo.GetBalanceAtTimeFunc = func(ctx context.Context, walletID string, when time.Time) (decimal.Decimal, error) {
		assert.Equal(t, "wallet-1", walletID)
		assert.True(t, when.Equal(at))
		return decimal.RequireFromString("500.00"), nil
	}

	uc := newWalletUseCase(walletRepo, entryRepo, mocks.NewMockOutboxRepository())

	balance, err := uc.BalanceAt(context.Background(), "wallet-1", at)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("500.00")))
}

func TestWalletUseCase_BalanceAt_UnknownWallet(t *testing.T) {
	uc := newWalletUseCase(mocks.NewMockWalletRepository(), mocks.NewMockEntryRepository(), mocks.NewMockOutboxRepository())

	_, err := uc.BalanceAt(context.Background(), "missing", time.Now())
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)
}
