package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
	"github.com/kolobank/walletcore/internal/usecase/mocks"
)

type withdrawalFixture struct {
	uc             *usecase.WithdrawalUseCase
	walletRepo     *mocks.MockWalletRepository
	entryRepo      *mocks.MockEntryRepository
	withdrawalRepo *mocks.MockWithdrawalRepository
	outboxRepo     *mocks.MockOutboxRepository
	rail           *mocks.MockRailClient
}

func newWithdrawalFixture(t *testing.T) *withdrawalFixture {
	t.Helper()

	walletRepo := mocks.NewMockWalletRepository()
	entryRepo := mocks.NewMockEntryRepository()
	withdrawalRepo := mocks.NewMockWithdrawalRepository()
	outboxRepo := mocks.NewMockOutboxRepository()
	txMgr := mocks.NewMockTransactionManager()
	idGen := mocks.NewMockIDGenerator()
	rail := mocks.NewMockRailClient()
	feeRepo := mocks.NewMockFeeConfigRepository(&domain.FeeConfiguration{
		ID:                 "fee-1",
		Tier1Threshold:     decimal.NewFromInt(10000),
		Tier1Fee:           decimal.NewFromInt(10),
		Tier2Threshold:     decimal.NewFromInt(50000),
		Tier2Fee:           decimal.NewFromInt(25),
		Tier3Fee:           decimal.NewFromInt(50),
		VATRate:            decimal.RequireFromString("0.075"),
		StampDutyThreshold: decimal.NewFromInt(10000),
		StampDutyAmount:    decimal.NewFromInt(50),
		CommissionRate:     decimal.RequireFromString("0.02"),
		Active:             true,
	})

	_ = walletRepo.Create(context.Background(), &domain.Wallet{
		ID:       testPlatformWalletID,
		Kind:     domain.WalletKindPlatform,
		Currency: "NGN",
		Balance:  decimal.Zero,
	})
	_ = walletRepo.Create(context.Background(), &domain.Wallet{
		ID:            "wallet-1",
		Kind:          domain.WalletKindUser,
		Currency:      "NGN",
		Balance:       decimal.NewFromInt(10000),
		AccountNumber: "0123456789",
	})

	ledger := usecase.NewLedgerUseCase(txMgr, walletRepo, entryRepo, idGen, testPlatformWalletID, nil)
	feeConfig := usecase.NewFeeConfigUseCase(txMgr, feeRepo, nil, idGen)

	uc := usecase.NewWithdrawalUseCase(usecase.WithdrawalUseCaseConfig{
		TxManager:      txMgr,
		WalletRepo:     walletRepo,
		EntryRepo:      entryRepo,
		WithdrawalRepo: withdrawalRepo,
		OutboxRepo:     outboxRepo,
		Ledger:         ledger,
		FeeConfig:      feeConfig,
		Rail:           rail,
		IDGen:          idGen,
		CallbackURL:    "https://api.example.test/webhooks/transfers",
		Logger:         zerolog.Nop(),
	})

	return &withdrawalFixture{
		uc:             uc,
		walletRepo:     walletRepo,
		entryRepo:      entryRepo,
		withdrawalRepo: withdrawalRepo,
		outboxRepo:     outboxRepo,
		rail:           rail,
	}
}

func withdrawalInput(amount string) usecase.RequestWithdrawalInput {
	return usecase.RequestWithdrawalInput{
		WalletID:           "wallet-1",
		Amount:             decimal.RequireFromString(amount),
		DestinationAccount: "9876543210",
		DestinationBank:    "058",
		DestinationName:    "ADA OBI",
		Narration:          "rent",
	}
}

func TestWithdrawalUseCase_RequestWithdrawal(t *testing.T) {
	f := newWithdrawalFixture(t)
	ctx := context.Background()

	var sentAmount decimal.Decimal
	f.rail.InitiateTransferFunc = func(ctx context.Context, req domain.RailTransferRequest) (*domain.RailTransferResult, error) {
		sentAmount = req.Amount
		return &domain.RailTransferResult{TransferReference: "TRF-001", Status: "accepted"}, nil
	}

	w, err := f.uc.RequestWithdrawal(ctx, withdrawalInput("5000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w.Status != domain.WithdrawalStatusProcessing {
		t.Errorf("status = %s, want processing", w.Status)
	}
	if w.TransferReference == nil || *w.TransferReference != "TRF-001" {
		t.Error("transfer reference not recorded")
	}

	// Gross reserved up front: 10000 - 5000. Fee 10 + VAT 0.75 leave
	// 4989.25 for the destination; fees settle only on completion.
	wallet, _ := f.walletRepo.GetByID(ctx, "wallet-1")
	if !wallet.Balance.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("wallet balance = %s, want 5000", wallet.Balance)
	}
	if !sentAmount.Equal(decimal.RequireFromString("4989.25")) {
		t.Errorf("rail amount = %s, want 4989.25", sentAmount)
	}
	platform, _ := f.walletRepo.GetByID(ctx, testPlatformWalletID)
	if !platform.Balance.IsZero() {
		t.Errorf("fees settled before completion: platform balance = %s", platform.Balance)
	}

	entry, err := f.entryRepo.GetByID(ctx, w.LedgerEntryID)
	if err != nil {
		t.Fatalf("reservation entry missing: %v", err)
	}
	if entry.Status != domain.EntryStatusPending {
		t.Errorf("entry status = %s, want pending", entry.Status)
	}
}

func TestWithdrawalUseCase_InsufficientFunds(t *testing.T) {
	f := newWithdrawalFixture(t)

	_, err := f.uc.RequestWithdrawal(context.Background(), withdrawalInput("10000.01"))
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	wallet, _ := f.walletRepo.GetByID(context.Background(), "wallet-1")
	if !wallet.Balance.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("wallet balance changed: %s", wallet.Balance)
	}
}

func TestWithdrawalUseCase_SynchronousRejectionRefunds(t *testing.T) {
	f := newWithdrawalFixture(t)
	ctx := context.Background()

	f.rail.InitiateTransferFunc = func(ctx context.Context, req domain.RailTransferRequest) (*domain.RailTransferResult, error) {
		return nil, errors.New("invalid destination account")
	}

	_, err := f.uc.RequestWithdrawal(ctx, withdrawalInput("5000"))
	if err == nil {
		t.Fatal("expected error from rail rejection")
	}

	wallet, _ := f.walletRepo.GetByID(ctx, "wallet-1")
	if !wallet.Balance.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("refund incomplete: balance = %s, want 10000", wallet.Balance)
	}
}

func TestWithdrawalUseCase_ProviderUnavailableKeepsReservation(t *testing.T) {
	f := newWithdrawalFixture(t)
	ctx := context.Background()

	f.rail.InitiateTransferFunc = func(ctx context.Context, req domain.RailTransferRequest) (*domain.RailTransferResult, error) {
		return nil, domain.ErrProviderUnavailable
	}

	w, err := f.uc.RequestWithdrawal(ctx, withdrawalInput("5000"))
	if err != nil {
		t.Fatalf("unknown outcome must not error: %v", err)
	}
	if w.Status != domain.WithdrawalStatusPending {
		t.Errorf("status = %s, want pending", w.Status)
	}

	// The transfer may still be in flight, so the reservation stands.
	wallet, _ := f.walletRepo.GetByID(ctx, "wallet-1")
	if !wallet.Balance.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("balance = %s, want 5000", wallet.Balance)
	}
}

func TestWithdrawalUseCase_CompletionSettlesFees(t *testing.T) {
	f := newWithdrawalFixture(t)
	ctx := context.Background()

	w, err := f.uc.RequestWithdrawal(ctx, withdrawalInput("5000"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if err := f.uc.HandleTransferStatus(ctx, domain.TransferStatusNotification{
		TransferReference: *w.TransferReference,
		Status:            domain.TransferStatusSuccessful,
	}); err != nil {
		t.Fatalf("completion: %v", err)
	}

	stored, _ := f.withdrawalRepo.GetByID(ctx, w.ID)
	if stored.Status != domain.WithdrawalStatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}

	entry, _ := f.entryRepo.GetByID(ctx, w.LedgerEntryID)
	if entry.Status != domain.EntryStatusCompleted {
		t.Errorf("entry status = %s, want completed", entry.Status)
	}

	platform, _ := f.walletRepo.GetByID(ctx, testPlatformWalletID)
	if !platform.Balance.Equal(decimal.RequireFromString("10.75")) {
		t.Errorf("platform balance = %s, want 10.75", platform.Balance)
	}

	var completedEvent bool
	for _, e := range f.outboxRepo.Events() {
		if e.EventType == domain.EventTypeWithdrawalCompleted {
			completedEvent = true
		}
	}
	if !completedEvent {
		t.Error("withdrawal.completed outbox event not written")
	}
}

func TestWithdrawalUseCase_FailureRefundsExactlyOnce(t *testing.T) {
	f := newWithdrawalFixture(t)
	ctx := context.Background()

	w, err := f.uc.RequestWithdrawal(ctx, withdrawalInput("5000"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	failure := domain.TransferStatusNotification{
		TransferReference: *w.TransferReference,
		Status:            domain.TransferStatusFailed,
		Message:           "beneficiary bank timeout",
	}

	if err := f.uc.HandleTransferStatus(ctx, failure); err != nil {
		t.Fatalf("first failure notification: %v", err)
	}

	wallet, _ := f.walletRepo.GetByID(ctx, "wallet-1")
	if !wallet.Balance.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("balance after refund = %s, want 10000", wallet.Balance)
	}

	// The rail may retry the failure webhook; the terminal state must
	// swallow it without a second refund.
	if err := f.uc.HandleTransferStatus(ctx, failure); err != nil {
		t.Fatalf("repeated failure notification must be a no-op: %v", err)
	}

	wallet, _ = f.walletRepo.GetByID(ctx, "wallet-1")
	if !wallet.Balance.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("double refund: balance = %s, want 10000", wallet.Balance)
	}

	entry, _ := f.entryRepo.GetByID(ctx, w.LedgerEntryID)
	if entry.Status != domain.EntryStatusFailed {
		t.Errorf("entry status = %s, want failed", entry.Status)
	}

	platform, _ := f.walletRepo.GetByID(ctx, testPlatformWalletID)
	if !platform.Balance.IsZero() {
		t.Errorf("fees settled for failed withdrawal: %s", platform.Balance)
	}
}

func TestWithdrawalUseCase_SuccessAfterCompletionIsNoOp(t *testing.T) {
	f := newWithdrawalFixture(t)
	ctx := context.Background()

	w, _ := f.uc.RequestWithdrawal(ctx, withdrawalInput("5000"))
	notification := domain.TransferStatusNotification{
		TransferReference: *w.TransferReference,
		Status:            domain.TransferStatusSuccessful,
	}

	if err := f.uc.HandleTransferStatus(ctx, notification); err != nil {
		t.Fatalf("completion: %v", err)
	}
	if err := f.uc.HandleTransferStatus(ctx, notification); err != nil {
		t.Fatalf("duplicate completion must be a no-op: %v", err)
	}

	platform, _ := f.walletRepo.GetByID(ctx, testPlatformWalletID)
	if !platform.Balance.Equal(decimal.RequireFromString("10.75")) {
		t.Errorf("fees settled twice: platform balance = %s", platform.Balance)
	}
}

func TestWithdrawalUseCase_PollProcessing(t *testing.T) {
	f := newWithdrawalFixture(t)
	ctx := context.Background()

	w, _ := f.uc.RequestWithdrawal(ctx, withdrawalInput("5000"))

	// Age the record past the cutoff.
	_ = f.withdrawalRepo.MarkProcessing(ctx, nil, w.ID, *w.TransferReference, time.Now().UTC().Add(-time.Hour))

	f.rail.GetTransferStatusFunc = func(ctx context.Context, ref string) (*domain.TransferStatusNotification, error) {
		return &domain.TransferStatusNotification{
			TransferReference: ref,
			Status:            domain.TransferStatusSuccessful,
		}, nil
	}

	resolved, err := f.uc.PollProcessing(ctx, 30*time.Minute, 10)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if resolved != 1 {
		t.Errorf("resolved = %d, want 1", resolved)
	}

	stored, _ := f.withdrawalRepo.GetByID(ctx, w.ID)
	if stored.Status != domain.WithdrawalStatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}
}

func TestWithdrawalUseCase_SweepStuckPending(t *testing.T) {
	f := newWithdrawalFixture(t)
	ctx := context.Background()

	f.rail.InitiateTransferFunc = func(ctx context.Context, req domain.RailTransferRequest) (*domain.RailTransferResult, error) {
		return nil, domain.ErrProviderUnavailable
	}

	w, err := f.uc.RequestWithdrawal(ctx, withdrawalInput("5000"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	// Age the pending record.
	f.withdrawalRepo.ListPendingUnsentFunc = func(ctx context.Context, cutoff time.Time, limit int) ([]*domain.WithdrawalRequest, error) {
		stored, _ := f.withdrawalRepo.GetByID(ctx, w.ID)
		if stored.Status == domain.WithdrawalStatusPending {
			return []*domain.WithdrawalRequest{stored}, nil
		}
		return nil, nil
	}

	swept, err := f.uc.SweepStuckPending(ctx, 30*time.Minute, 10)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept != 1 {
		t.Errorf("swept = %d, want 1", swept)
	}

	wallet, _ := f.walletRepo.GetByID(ctx, "wallet-1")
	if !wallet.Balance.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("stuck reservation not released: balance = %s", wallet.Balance)
	}

	stored, _ := f.withdrawalRepo.GetByID(ctx, w.ID)
	if stored.Status != domain.WithdrawalStatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
}
