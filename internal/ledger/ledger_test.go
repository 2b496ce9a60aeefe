package ledger

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/opsfort/opsledger/internal/models"
	"github.com/opsfort/opsledger/internal/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. InTx
// serializes callers the way the row lock does in production, so the engine
// semantics under concurrent Apply calls match the real store.
type fakeStore struct {
	txMu sync.Mutex // serializes InTx sections
	mu   sync.Mutex // guards the maps below

	wallets map[string]*models.Wallet
	txns    []models.WalletTransaction
	limits  map[string]*models.RiskLimit
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		wallets: make(map[string]*models.Wallet),
		limits:  make(map[string]*models.RiskLimit),
	}
}

func (s *fakeStore) addWallet(userID, role string, balance decimal.Decimal) *models.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallet := &models.Wallet{
		ID:        uuid.NewString(),
		UserID:    userID,
		OwnerRole: role,
		Balance:   balance,
		Currency:  "NGN",
		Status:    models.WalletActiveStatus,
		CreatedAt: time.Now(),
	}
	s.wallets[wallet.ID] = wallet
	return wallet
}

func (s *fakeStore) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	return fn(nil)
}

// WalletRepository

func (s *fakeStore) Insert(wallet *models.Wallet, tx *sqlx.Tx) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallet.ID = uuid.NewString()
	s.wallets[wallet.ID] = wallet
	return wallet.ID, nil
}

func (s *fakeStore) GetOne(id string) (*models.Wallet, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallet, ok := s.wallets[id]
	if !ok {
		return nil, false, nil
	}
	copied := *wallet
	return &copied, true, nil
}

func (s *fakeStore) GetByUserID(userID string) (*models.Wallet, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, wallet := range s.wallets {
		if wallet.UserID == userID {
			copied := *wallet
			return &copied, true, nil
		}
	}
	return nil, false, nil
}

func (s *fakeStore) GetForUpdate(tx *sqlx.Tx, id string) (*models.Wallet, bool, error) {
	return s.GetOne(id)
}

func (s *fakeStore) UpdateBalance(tx *sqlx.Tx, id string, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wallets[id].Balance = balance
	return nil
}

func (s *fakeStore) SetStatus(id string, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wallets[id].Status = status
	return nil
}

// TransactionRepository

func (s *fakeStore) InsertTransaction(txn *models.WalletTransaction, tx *sqlx.Tx) (*models.WalletTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn.CreatedAt = time.Now()
	s.txns = append(s.txns, *txn)
	copied := *txn
	return &copied, nil
}

func (s *fakeStore) GetOneTransaction(id string) (*models.WalletTransaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.txns {
		if s.txns[i].ID == id {
			copied := s.txns[i]
			return &copied, true, nil
		}
	}
	return nil, false, nil
}

func (s *fakeStore) FindCompletedByTicketID(tx *sqlx.Tx, ticketID string) (*models.WalletTransaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.txns {
		if s.txns[i].TicketID.Valid && s.txns[i].TicketID.String == ticketID && s.txns[i].Status == models.TransactionStatusCompleted {
			copied := s.txns[i]
			return &copied, true, nil
		}
	}
	return nil, false, nil
}

func (s *fakeStore) SumWithdrawalsSince(tx *sqlx.Tx, walletID string, since time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for i := range s.txns {
		txn := &s.txns[i]
		if txn.WalletID == walletID &&
			txn.Type == models.TransactionTypeWithdrawal &&
			txn.Status == models.TransactionStatusCompleted &&
			!txn.CreatedAt.Before(since) {
			total = total.Add(txn.Amount.Abs())
		}
	}
	return total, nil
}

func (s *fakeStore) ListByWallet(walletID string, filter *repository.TransactionFilter) ([]models.WalletTransaction, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.WalletTransaction
	for i := range s.txns {
		if s.txns[i].WalletID == walletID {
			out = append(out, s.txns[i])
		}
	}
	return out, len(out), nil
}

// RiskLimitRepository

func (s *fakeStore) GetLimitByUserID(userID string) (*models.RiskLimit, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit, ok := s.limits[userID]
	if !ok {
		return nil, false, nil
	}
	copied := *limit
	return &copied, true, nil
}

func (s *fakeStore) UpsertLimit(limit *models.RiskLimit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.limits[limit.UserID] = limit
	return nil
}

// Interface adapters. The repositories share one backing store but the
// engine takes them as separate dependencies, mirroring production wiring.

type fakeWalletRepo struct{ *fakeStore }

type fakeTransactionRepo struct{ *fakeStore }

func (r fakeTransactionRepo) Insert(txn *models.WalletTransaction, tx *sqlx.Tx) (*models.WalletTransaction, error) {
	return r.InsertTransaction(txn, tx)
}

func (r fakeTransactionRepo) GetOne(id string) (*models.WalletTransaction, bool, error) {
	return r.GetOneTransaction(id)
}

type fakeLimitRepo struct{ *fakeStore }

func (r fakeLimitRepo) GetByUserID(userID string) (*models.RiskLimit, bool, error) {
	return r.GetLimitByUserID(userID)
}

func (r fakeLimitRepo) Upsert(limit *models.RiskLimit) error {
	return r.UpsertLimit(limit)
}

func newTestEngine(store *fakeStore) *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limits := NewLimitStore(fakeLimitRepo{store}, DefaultRoleLimits)

	return NewEngine(store, fakeWalletRepo{store}, fakeTransactionRepo{store}, limits, nil, nil, logger)
}
