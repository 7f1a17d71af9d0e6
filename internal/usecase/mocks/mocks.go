package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/usecase"
)

// MockWalletRepository is a mock implementation of WalletRepository.
type MockWalletRepository struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet

	CreateFunc             func(ctx context.Context, wallet *domain.Wallet) error
	CreateTxFunc           func(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error
	GetByIDFunc            func(ctx context.Context, id string) (*domain.Wallet, error)
	GetByAccountNumberFunc func(ctx context.Context, accountNumber string) (*domain.Wallet, error)
	GetByIDForUpdateFunc   func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error)
	GetByIDsForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error)
	UpdateBalanceFunc      func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	ListFunc               func(ctx context.Context, limit, offset int) ([]*domain.Wallet, error)
}

func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		wallets: make(map[string]*domain.Wallet),
	}
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, wallet)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[wallet.ID] = wallet
	return nil
}

func (m *MockWalletRepository) CreateTx(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, wallet)
	}
	return m.Create(ctx, wallet)
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if w, ok := m.wallets[id]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, domain.ErrWalletNotFound
}

func (m *MockWalletRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Wallet, error) {
	if m.GetByAccountNumberFunc != nil {
		return m.GetByAccountNumberFunc(ctx, accountNumber)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.wallets {
		if w.AccountNumber == accountNumber {
			cp := *w
			return &cp, nil
		}
	}
	return nil, domain.ErrWalletNotFound
}

func (m *MockWalletRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockWalletRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var wallets []*domain.Wallet
	for _, id := range ids {
		if w, ok := m.wallets[id]; ok {
			cp := *w
			wallets = append(wallets, &cp)
		}
	}
	return wallets, nil
}

func (m *MockWalletRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.wallets[id]; ok {
		w.Balance = balance
		w.Version++
		w.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockWalletRepository) List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var wallets []*domain.Wallet
	for _, w := range m.wallets {
		wallets = append(wallets, w)
	}
	if offset >= len(wallets) {
		return nil, nil
	}
	end := offset + limit
	if end > len(wallets) {
		end = len(wallets)
	}
	return wallets[offset:end], nil
}

// MockEntryRepository is a mock implementation of EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.LedgerEntry

	CreateFunc                 func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	GetByIDFunc                func(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetByExternalReferenceFunc func(ctx context.Context, reference string) (*domain.LedgerEntry, error)
	UpdateStatusFunc           func(ctx context.Context, tx usecase.Transaction, id string, status domain.EntryStatus) error
	GetByWalletFunc            func(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error)
	SumAppliedByWalletFunc     func(ctx context.Context, walletID string) (decimal.Decimal, error)
	ListExternalReferencesFunc func(ctx context.Context, walletID string, from, to time.Time) ([]string, error)
	GetBalanceAtTimeFunc       func(ctx context.Context, walletID string, at time.Time) (decimal.Decimal, error)
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{
		entries: make(map[string]*domain.LedgerEntry),
	}
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ExternalReference != nil {
		for _, e := range m.entries {
			if e.ExternalReference != nil && *e.ExternalReference == *entry.ExternalReference {
				return domain.ErrDuplicateReference
			}
		}
	}
	m.entries[entry.ID] = entry
	return nil
}

func (m *MockEntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockEntryRepository) GetByExternalReference(ctx context.Context, reference string) (*domain.LedgerEntry, error) {
	if m.GetByExternalReferenceFunc != nil {
		return m.GetByExternalReferenceFunc(ctx, reference)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.ExternalReference != nil && *e.ExternalReference == reference {
			return e, nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockEntryRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.EntryStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.Status = status
		return nil
	}
	return domain.ErrEntryNotFound
}

func (m *MockEntryRepository) GetByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	if m.GetByWalletFunc != nil {
		return m.GetByWalletFunc(ctx, walletID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.WalletID == walletID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (m *MockEntryRepository) SumAppliedByWallet(ctx context.Context, walletID string) (decimal.Decimal, error) {
	if m.SumAppliedByWalletFunc != nil {
		return m.SumAppliedByWalletFunc(ctx, walletID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range m.entries {
		if e.WalletID != walletID {
			continue
		}
		switch e.Direction {
		case domain.EntryDirectionCredit:
			if e.Status == domain.EntryStatusCompleted {
				sum = sum.Add(e.NetAmount)
			}
		case domain.EntryDirectionDebit:
			if e.Status == domain.EntryStatusCompleted || e.Status == domain.EntryStatusPending {
				sum = sum.Sub(e.Amount)
			}
		}
	}
	return sum, nil
}

func (m *MockEntryRepository) ListExternalReferences(ctx context.Context, walletID string, from, to time.Time) ([]string, error) {
	if m.ListExternalReferencesFunc != nil {
		return m.ListExternalReferencesFunc(ctx, walletID, from, to)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var refs []string
	for _, e := range m.entries {
		if e.WalletID == walletID && e.ExternalReference != nil &&
			!e.CreatedAt.Before(from) && !e.CreatedAt.After(to) {
			refs = append(refs, *e.ExternalReference)
		}
	}
	return refs, nil
}

func (m *MockEntryRepository) GetBalanceAtTime(ctx context.Context, walletID string, at time.Time) (decimal.Decimal, error) {
	if m.GetBalanceAtTimeFunc != nil {
		return m.GetBalanceAtTimeFunc(ctx, walletID, at)
	}
	return decimal.Zero, nil
}

// MockFeeConfigRepository is a mock implementation of FeeConfigRepository.
type MockFeeConfigRepository struct {
	mu     sync.RWMutex
	active *domain.FeeConfiguration

	GetActiveFunc  func(ctx context.Context) (*domain.FeeConfiguration, error)
	CreateFunc     func(ctx context.Context, tx usecase.Transaction, cfg *domain.FeeConfiguration) error
	DeactivateFunc func(ctx context.Context, tx usecase.Transaction, id string, at time.Time) error
}

func NewMockFeeConfigRepository(active *domain.FeeConfiguration) *MockFeeConfigRepository {
	return &MockFeeConfigRepository{active: active}
}

func (m *MockFeeConfigRepository) GetActive(ctx context.Context) (*domain.FeeConfiguration, error) {
	if m.GetActiveFunc != nil {
		return m.GetActiveFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return nil, domain.ErrNoActiveFeeConfig
	}
	return m.active, nil
}

func (m *MockFeeConfigRepository) Create(ctx context.Context, tx usecase.Transaction, cfg *domain.FeeConfiguration) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, cfg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = cfg
	return nil
}

func (m *MockFeeConfigRepository) Deactivate(ctx context.Context, tx usecase.Transaction, id string, at time.Time) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, tx, id, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil && m.active.ID == id {
		m.active.Active = false
		m.active.DeactivatedAt = &at
		m.active = nil
	}
	return nil
}

// MockPaymentLinkRepository is a mock implementation of PaymentLinkRepository.
type MockPaymentLinkRepository struct {
	mu    sync.RWMutex
	links map[string]*domain.PaymentLink

	CreateFunc             func(ctx context.Context, link *domain.PaymentLink) error
	GetByCodeFunc          func(ctx context.Context, code string) (*domain.PaymentLink, error)
	GetByIDFunc            func(ctx context.Context, id string) (*domain.PaymentLink, error)
	GetByCodeForUpdateFunc func(ctx context.Context, tx usecase.Transaction, code string) (*domain.PaymentLink, error)
	MarkConsumedFunc       func(ctx context.Context, tx usecase.Transaction, id string) error
	DeactivateFunc         func(ctx context.Context, id string) error
	GetViewFunc            func(ctx context.Context, code string) (*domain.LinkView, error)
}

func NewMockPaymentLinkRepository() *MockPaymentLinkRepository {
	return &MockPaymentLinkRepository{
		links: make(map[string]*domain.PaymentLink),
	}
}

func (m *MockPaymentLinkRepository) Create(ctx context.Context, link *domain.PaymentLink) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, link)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[link.ID] = link
	return nil
}

func (m *MockPaymentLinkRepository) GetByCode(ctx context.Context, code string) (*domain.PaymentLink, error) {
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.links {
		if l.Code == code {
			return l, nil
		}
	}
	return nil, domain.ErrLinkNotFound
}

func (m *MockPaymentLinkRepository) GetByID(ctx context.Context, id string) (*domain.PaymentLink, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.links[id]; ok {
		return l, nil
	}
	return nil, domain.ErrLinkNotFound
}

func (m *MockPaymentLinkRepository) GetByCodeForUpdate(ctx context.Context, tx usecase.Transaction, code string) (*domain.PaymentLink, error) {
	if m.GetByCodeForUpdateFunc != nil {
		return m.GetByCodeForUpdateFunc(ctx, tx, code)
	}
	return m.GetByCode(ctx, code)
}

func (m *MockPaymentLinkRepository) MarkConsumed(ctx context.Context, tx usecase.Transaction, id string) error {
	if m.MarkConsumedFunc != nil {
		return m.MarkConsumedFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.links[id]; ok {
		l.Consumed = true
		return nil
	}
	return domain.ErrLinkNotFound
}

func (m *MockPaymentLinkRepository) Deactivate(ctx context.Context, id string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.links[id]; ok {
		l.Active = false
		return nil
	}
	return domain.ErrLinkNotFound
}

func (m *MockPaymentLinkRepository) GetView(ctx context.Context, code string) (*domain.LinkView, error) {
	if m.GetViewFunc != nil {
		return m.GetViewFunc(ctx, code)
	}
	link, err := m.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return &domain.LinkView{
		Code:         link.Code,
		Title:        link.Title,
		TargetAmount: link.TargetAmount,
		AmountRaised: decimal.Zero,
		Active:       link.Active,
		ExpiresAt:    link.ExpiresAt,
	}, nil
}

// MockContributionRepository is a mock implementation of ContributionRepository.
type MockContributionRepository struct {
	mu            sync.RWMutex
	contributions map[string]*domain.Contribution

	CreateFunc                    func(ctx context.Context, contribution *domain.Contribution) error
	CreateTxFunc                  func(ctx context.Context, tx usecase.Transaction, contribution *domain.Contribution) error
	GetByIDFunc                   func(ctx context.Context, id string) (*domain.Contribution, error)
	GetPendingByLinkAndAmountFunc func(ctx context.Context, linkID string, amount decimal.Decimal) (*domain.Contribution, error)
	ListPendingMatchesFunc        func(ctx context.Context, walletID string, amount decimal.Decimal, since time.Time) ([]*domain.Contribution, error)
	CompleteFunc                  func(ctx context.Context, tx usecase.Transaction, id, entryID string, at time.Time) error
}

func NewMockContributionRepository() *MockContributionRepository {
	return &MockContributionRepository{
		contributions: make(map[string]*domain.Contribution),
	}
}

func (m *MockContributionRepository) Create(ctx context.Context, contribution *domain.Contribution) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, contribution)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contributions[contribution.ID] = contribution
	return nil
}

func (m *MockContributionRepository) CreateTx(ctx context.Context, tx usecase.Transaction, contribution *domain.Contribution) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, contribution)
	}
	return m.Create(ctx, contribution)
}

func (m *MockContributionRepository) GetByID(ctx context.Context, id string) (*domain.Contribution, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.contributions[id]; ok {
		return c, nil
	}
	return nil, domain.ErrContributionNotFound
}

func (m *MockContributionRepository) GetPendingByLinkAndAmount(ctx context.Context, linkID string, amount decimal.Decimal) (*domain.Contribution, error) {
	if m.GetPendingByLinkAndAmountFunc != nil {
		return m.GetPendingByLinkAndAmountFunc(ctx, linkID, amount)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var oldest *domain.Contribution
	for _, c := range m.contributions {
		if c.LinkID == linkID && c.Status == domain.ContributionStatusPending && c.Amount.Equal(amount) {
			if oldest == nil || c.CreatedAt.Before(oldest.CreatedAt) {
				oldest = c
			}
		}
	}
	return oldest, nil
}

func (m *MockContributionRepository) ListPendingMatches(ctx context.Context, walletID string, amount decimal.Decimal, since time.Time) ([]*domain.Contribution, error) {
	if m.ListPendingMatchesFunc != nil {
		return m.ListPendingMatchesFunc(ctx, walletID, amount, since)
	}
	return nil, nil
}

func (m *MockContributionRepository) Complete(ctx context.Context, tx usecase.Transaction, id, entryID string, at time.Time) error {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, tx, id, entryID, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contributions[id]
	if !ok {
		return domain.ErrContributionDone
	}
	if c.Status == domain.ContributionStatusCompleted {
		return domain.ErrContributionDone
	}
	c.Status = domain.ContributionStatusCompleted
	c.LedgerEntryID = &entryID
	c.CompletedAt = &at
	return nil
}

// MockWithdrawalRepository is a mock implementation of WithdrawalRepository.
type MockWithdrawalRepository struct {
	mu          sync.RWMutex
	withdrawals map[string]*domain.WithdrawalRequest

	CreateFunc                    func(ctx context.Context, tx usecase.Transaction, withdrawal *domain.WithdrawalRequest) error
	GetByIDFunc                   func(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
	GetByIDForUpdateFunc          func(ctx context.Context, tx usecase.Transaction, id string) (*domain.WithdrawalRequest, error)
	GetByTransferRefForUpdateFunc func(ctx context.Context, tx usecase.Transaction, reference string) (*domain.WithdrawalRequest, error)
	MarkProcessingFunc            func(ctx context.Context, tx usecase.Transaction, id, transferRef string, at time.Time) error
	MarkCompletedFunc             func(ctx context.Context, tx usecase.Transaction, id string, at time.Time) error
	MarkFailedFunc                func(ctx context.Context, tx usecase.Transaction, id, reason string, at time.Time) error
	ListProcessingOlderThanFunc   func(ctx context.Context, cutoff time.Time, limit int) ([]*domain.WithdrawalRequest, error)
	ListPendingUnsentFunc         func(ctx context.Context, cutoff time.Time, limit int) ([]*domain.WithdrawalRequest, error)
}

func NewMockWithdrawalRepository() *MockWithdrawalRepository {
	return &MockWithdrawalRepository{
		withdrawals: make(map[string]*domain.WithdrawalRequest),
	}
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, tx usecase.Transaction, withdrawal *domain.WithdrawalRequest) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, withdrawal)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.withdrawals[withdrawal.ID] = withdrawal
	return nil
}

func (m *MockWithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if w, ok := m.withdrawals[id]; ok {
		return w, nil
	}
	return nil, domain.ErrWithdrawalNotFound
}

func (m *MockWithdrawalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.WithdrawalRequest, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockWithdrawalRepository) GetByTransferRefForUpdate(ctx context.Context, tx usecase.Transaction, reference string) (*domain.WithdrawalRequest, error) {
	if m.GetByTransferRefForUpdateFunc != nil {
		return m.GetByTransferRefForUpdateFunc(ctx, tx, reference)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.withdrawals {
		if w.TransferReference != nil && *w.TransferReference == reference {
			return w, nil
		}
	}
	return nil, domain.ErrWithdrawalNotFound
}

func (m *MockWithdrawalRepository) MarkProcessing(ctx context.Context, tx usecase.Transaction, id, transferRef string, at time.Time) error {
	if m.MarkProcessingFunc != nil {
		return m.MarkProcessingFunc(ctx, tx, id, transferRef, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.withdrawals[id]; ok {
		w.Status = domain.WithdrawalStatusProcessing
		w.TransferReference = &transferRef
		w.UpdatedAt = at
		return nil
	}
	return domain.ErrWithdrawalNotFound
}

func (m *MockWithdrawalRepository) MarkCompleted(ctx context.Context, tx usecase.Transaction, id string, at time.Time) error {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(ctx, tx, id, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.withdrawals[id]; ok {
		w.Status = domain.WithdrawalStatusCompleted
		w.UpdatedAt = at
		return nil
	}
	return domain.ErrWithdrawalNotFound
}

func (m *MockWithdrawalRepository) MarkFailed(ctx context.Context, tx usecase.Transaction, id, reason string, at time.Time) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, tx, id, reason, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.withdrawals[id]; ok {
		w.Status = domain.WithdrawalStatusFailed
		w.FailureReason = &reason
		w.UpdatedAt = at
		return nil
	}
	return domain.ErrWithdrawalNotFound
}

func (m *MockWithdrawalRepository) ListProcessingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*domain.WithdrawalRequest, error) {
	if m.ListProcessingOlderThanFunc != nil {
		return m.ListProcessingOlderThanFunc(ctx, cutoff, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.WithdrawalRequest
	for _, w := range m.withdrawals {
		if w.Status == domain.WithdrawalStatusProcessing && w.UpdatedAt.Before(cutoff) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *MockWithdrawalRepository) ListPendingUnsent(ctx context.Context, cutoff time.Time, limit int) ([]*domain.WithdrawalRequest, error) {
	if m.ListPendingUnsentFunc != nil {
		return m.ListPendingUnsentFunc(ctx, cutoff, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.WithdrawalRequest
	for _, w := range m.withdrawals {
		if w.Status == domain.WithdrawalStatusPending && w.TransferReference == nil && w.CreatedAt.Before(cutoff) {
			out = append(out, w)
		}
	}
	return out, nil
}

// MockGoalRepository is a mock implementation of GoalRepository.
type MockGoalRepository struct {
	mu    sync.RWMutex
	goals map[string]*domain.SavingsGoal

	CreateFunc           func(ctx context.Context, goal *domain.SavingsGoal) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.SavingsGoal, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.SavingsGoal, error)
	UpdateBalanceFunc    func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
}

func NewMockGoalRepository() *MockGoalRepository {
	return &MockGoalRepository{
		goals: make(map[string]*domain.SavingsGoal),
	}
}

func (m *MockGoalRepository) Create(ctx context.Context, goal *domain.SavingsGoal) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, goal)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals[goal.ID] = goal
	return nil
}

func (m *MockGoalRepository) GetByID(ctx context.Context, id string) (*domain.SavingsGoal, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.goals[id]; ok {
		return g, nil
	}
	return nil, domain.ErrGoalNotFound
}

func (m *MockGoalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.SavingsGoal, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockGoalRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.goals[id]; ok {
		g.Balance = balance
		g.UpdatedAt = updatedAt
		return nil
	}
	return domain.ErrGoalNotFound
}

// MockWebhookEventRepository is a mock implementation of WebhookEventRepository.
type MockWebhookEventRepository struct {
	mu     sync.RWMutex
	events map[string]*domain.WebhookEvent

	CreateFunc  func(ctx context.Context, event *domain.WebhookEvent) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.WebhookEvent, error)
}

func NewMockWebhookEventRepository() *MockWebhookEventRepository {
	return &MockWebhookEventRepository{
		events: make(map[string]*domain.WebhookEvent),
	}
}

func (m *MockWebhookEventRepository) Create(ctx context.Context, event *domain.WebhookEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = event
	return nil
}

func (m *MockWebhookEventRepository) GetByID(ctx context.Context, id string) (*domain.WebhookEvent, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.events[id]; ok {
		return e, nil
	}
	return nil, domain.ErrEntryNotFound
}

// Events returns all recorded webhook events.
func (m *MockWebhookEventRepository) Events() []*domain.WebhookEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.WebhookEvent
	for _, e := range m.events {
		out = append(out, e)
	}
	return out
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublishedFunc func(ctx context.Context, before time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// Events returns all recorded outbox events.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.OutboxEvent, len(m.events))
	copy(out, m.events)
	return out
}

// MockRailClient is a mock implementation of RailClient.
type MockRailClient struct {
	InitiateTransferFunc  func(ctx context.Context, req domain.RailTransferRequest) (*domain.RailTransferResult, error)
	GetTransferStatusFunc func(ctx context.Context, transferRef string) (*domain.TransferStatusNotification, error)
	ListTransactionsFunc  func(ctx context.Context, accountNumber string, from, to time.Time) ([]domain.RailTransaction, error)
}

func NewMockRailClient() *MockRailClient {
	return &MockRailClient{}
}

func (m *MockRailClient) InitiateTransfer(ctx context.Context, req domain.RailTransferRequest) (*domain.RailTransferResult, error) {
	if m.InitiateTransferFunc != nil {
		return m.InitiateTransferFunc(ctx, req)
	}
	return &domain.RailTransferResult{TransferReference: "TRF-" + req.CustomerReference, Status: "accepted"}, nil
}

func (m *MockRailClient) GetTransferStatus(ctx context.Context, transferRef string) (*domain.TransferStatusNotification, error) {
	if m.GetTransferStatusFunc != nil {
		return m.GetTransferStatusFunc(ctx, transferRef)
	}
	return nil, domain.ErrProviderUnavailable
}

func (m *MockRailClient) ListTransactions(ctx context.Context, accountNumber string, from, to time.Time) ([]domain.RailTransaction, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx, accountNumber, from, to)
	}
	return nil, nil
}

// MockSignatureVerifier is a mock implementation of SignatureVerifier.
type MockSignatureVerifier struct {
	VerifyFunc func(body []byte, signatureHeader string) (string, bool)
}

func NewMockSignatureVerifier() *MockSignatureVerifier {
	return &MockSignatureVerifier{}
}

func (m *MockSignatureVerifier) Verify(body []byte, signatureHeader string) (string, bool) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(body, signatureHeader)
	}
	return "hmac-sha512", true
}

// MockTransactionManager is a mock implementation of TransactionManager.
// Begin takes a process-wide lock that is released on Commit or Rollback,
// standing in for the row locks the real transaction would hold, so
// concurrent mutations through the mock serialize the way they would
// against the database.
type MockTransactionManager struct {
	mu sync.Mutex

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	return &MockTransaction{release: m.mu.Unlock}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	once    sync.Once
	release func()
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.done()
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	m.done()
	return nil
}

func (m *MockTransaction) done() {
	if m.release == nil {
		return
	}
	m.once.Do(m.release)
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockCache is a mock implementation of Cache.
type MockCache struct {
	mu   sync.RWMutex
	data map[string]string

	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key, value string, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string]string),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}
