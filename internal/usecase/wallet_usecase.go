package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/domain"
)

// WalletUseCase handles wallet lifecycle and read paths. Wallet creation
// is an explicit operation invoked once identity verification has
// succeeded upstream; it emits a wallet.created event in the same
// transaction so downstream provisioning is auditable and retryable.
type WalletUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	entryRepo  EntryRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
}

// NewWalletUseCase creates a new WalletUseCase.
func NewWalletUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
) *WalletUseCase {
	return &WalletUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		entryRepo:  entryRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
	}
}

// CreateWalletInput represents input for creating a wallet.
type CreateWalletInput struct {
	UserID        string
	Currency      string
	AccountNumber string
	BankCode      string
	BankName      string
}

// CreateWallet creates a new user wallet with a zero balance.
func (uc *WalletUseCase) CreateWallet(ctx context.Context, input CreateWalletInput) (*domain.Wallet, error) {
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}
	if err := domain.ValidateAccountNumber(input.AccountNumber); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:            uc.idGen.Generate(),
		UserID:        input.UserID,
		Kind:          domain.WalletKindUser,
		Currency:      strings.ToUpper(strings.TrimSpace(input.Currency)),
		Balance:       decimal.Zero,
		AccountNumber: strings.TrimSpace(input.AccountNumber),
		BankCode:      input.BankCode,
		BankName:      input.BankName,
		Version:       0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := uc.walletRepo.CreateTx(ctx, tx, wallet); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   wallet.ID,
		AggregateType: domain.AggregateTypeWallet,
		EventType:     domain.EventTypeWalletCreated,
		Payload: map[string]any{
			"wallet_id":      wallet.ID,
			"user_id":        wallet.UserID,
			"currency":       wallet.Currency,
			"account_number": wallet.AccountNumber,
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return wallet, nil
}

// GetWallet retrieves a wallet by ID.
func (uc *WalletUseCase) GetWallet(ctx context.Context, id string) (*domain.Wallet, error) {
	return uc.walletRepo.GetByID(ctx, id)
}

// GetWalletByAccountNumber retrieves a wallet by provider account number.
func (uc *WalletUseCase) GetWalletByAccountNumber(ctx context.Context, accountNumber string) (*domain.Wallet, error) {
	return uc.walletRepo.GetByAccountNumber(ctx, accountNumber)
}

// ListEntriesInput represents input for listing a wallet's entries.
type ListEntriesInput struct {
	WalletID string
	Limit    int
	Offset   int
}

// ListEntries lists ledger entries for a wallet, newest first.
func (uc *WalletUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.LedgerEntry, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.entryRepo.GetByWallet(ctx, input.WalletID, limit, offset)
}

// BalanceAt returns the wallet balance implied by completed entries up to
// the given instant.
func (uc *WalletUseCase) BalanceAt(ctx context.Context, walletID string, at time.Time) (decimal.Decimal, error) {
	if _, err := uc.walletRepo.GetByID(ctx, walletID); err != nil {
		return decimal.Zero, err
	}
	return uc.entryRepo.GetBalanceAtTime(ctx, walletID, at)
}
