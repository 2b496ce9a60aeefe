package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opsfort/opsledger/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type TransactionFilter struct {
	Status    string
	Type      string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

type TransactionRepository interface {
	Insert(txn *models.WalletTransaction, tx *sqlx.Tx) (*models.WalletTransaction, error)
	GetOne(id string) (*models.WalletTransaction, bool, error)
	FindCompletedByTicketID(tx *sqlx.Tx, ticketID string) (*models.WalletTransaction, bool, error)
	SumWithdrawalsSince(tx *sqlx.Tx, walletID string, since time.Time) (decimal.Decimal, error)
	ListByWallet(walletID string, filter *TransactionFilter) ([]models.WalletTransaction, int, error)
}

type TransactionRepositoryImpl struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

// Insert appends one ledger entry. The ledger is append-only; there is
// deliberately no update or delete on this repository.
func (repo *TransactionRepositoryImpl) Insert(txn *models.WalletTransaction, tx *sqlx.Tx) (*models.WalletTransaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var out models.WalletTransaction

	query := `
		INSERT INTO wallet_transactions (id, wallet_id, type, amount, requested_amount, balance_after, description, status, ticket_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, wallet_id, type, amount, requested_amount, balance_after, description, status, ticket_id, created_at`

	args := []any{
		txn.ID,
		txn.WalletID,
		txn.Type,
		txn.Amount,
		txn.RequestedAmount,
		txn.BalanceAfter,
		txn.Description,
		txn.Status,
		txn.TicketID,
	}

	if tx != nil {
		err := tx.GetContext(ctx, &out, query, args...)
		if err != nil {
			return nil, err
		}
	} else {
		err := repo.db.GetContext(ctx, &out, query, args...)
		if err != nil {
			return nil, err
		}
	}

	return &out, nil
}

func (repo *TransactionRepositoryImpl) GetOne(id string) (*models.WalletTransaction, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var txn models.WalletTransaction

	query := `
        SELECT id, wallet_id, type, amount, requested_amount, balance_after, description, status, ticket_id, created_at
        FROM wallet_transactions WHERE id=$1`

	err := repo.db.GetContext(ctx, &txn, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &txn, true, nil
}

// FindCompletedByTicketID is the idempotency lookup: a completed entry
// already linked to the ticket means the approval was applied before.
func (repo *TransactionRepositoryImpl) FindCompletedByTicketID(tx *sqlx.Tx, ticketID string) (*models.WalletTransaction, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var txn models.WalletTransaction

	query := `
        SELECT id, wallet_id, type, amount, requested_amount, balance_after, description, status, ticket_id, created_at
        FROM wallet_transactions WHERE ticket_id=$1 AND status=$2`

	var err error
	if tx != nil {
		err = tx.GetContext(ctx, &txn, query, ticketID, models.TransactionStatusCompleted)
	} else {
		err = repo.db.GetContext(ctx, &txn, query, ticketID, models.TransactionStatusCompleted)
	}

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &txn, true, nil
}

// SumWithdrawalsSince totals completed withdrawal magnitudes for the wallet
// in the trailing window [since, now]. Withdrawal amounts are stored signed
// (negative), hence the ABS.
func (repo *TransactionRepositoryImpl) SumWithdrawalsSince(tx *sqlx.Tx, walletID string, since time.Time) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var total decimal.Decimal

	query := `
        SELECT COALESCE(SUM(ABS(amount)), 0)
        FROM wallet_transactions
        WHERE wallet_id=$1 AND type=$2 AND status=$3 AND created_at >= $4`

	var err error
	if tx != nil {
		err = tx.GetContext(ctx, &total, query, walletID, models.TransactionTypeWithdrawal, models.TransactionStatusCompleted, since)
	} else {
		err = repo.db.GetContext(ctx, &total, query, walletID, models.TransactionTypeWithdrawal, models.TransactionStatusCompleted, since)
	}

	if err != nil {
		return decimal.Zero, err
	}

	return total, nil
}

func (repo *TransactionRepositoryImpl) ListByWallet(walletID string, filter *TransactionFilter) ([]models.WalletTransaction, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	conditions := []string{"wallet_id = $1"}
	args := []any{walletID}

	addArg := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.Status != "" {
		addArg("status = $%d", filter.Status)
	}
	if filter.Type != "" {
		addArg("type = $%d", filter.Type)
	}
	if filter.StartDate != nil {
		addArg("created_at >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		addArg("created_at <= $%d", *filter.EndDate)
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT count(*) FROM wallet_transactions WHERE ` + where
	if err := repo.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
        SELECT id, wallet_id, type, amount, requested_amount, balance_after, description, status, ticket_id, created_at
        FROM wallet_transactions
        WHERE %s
        ORDER BY created_at DESC
        LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	args = append(args, filter.Limit, filter.Offset)

	var txns []models.WalletTransaction
	if err := repo.db.SelectContext(ctx, &txns, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, total, nil
		}
		return nil, 0, err
	}

	return txns, total, nil
}
