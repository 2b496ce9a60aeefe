package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/opsfort/opsledger/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type WalletRepository interface {
	Insert(wallet *models.Wallet, tx *sqlx.Tx) (string, error)
	GetOne(id string) (*models.Wallet, bool, error)
	GetByUserID(userID string) (*models.Wallet, bool, error)
	GetForUpdate(tx *sqlx.Tx, id string) (*models.Wallet, bool, error)
	UpdateBalance(tx *sqlx.Tx, id string, balance decimal.Decimal) error
	SetStatus(id string, status string) error
}

type WalletRepositoryImpl struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) WalletRepository {
	return &WalletRepositoryImpl{db: db}
}

func (repo *WalletRepositoryImpl) Insert(wallet *models.Wallet, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO wallets (user_id, owner_role, currency)
		VALUES ($1, $2, $3)
		RETURNING id`
	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			wallet.UserID,
			wallet.OwnerRole,
			wallet.Currency,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			wallet.UserID,
			wallet.OwnerRole,
			wallet.Currency,
		)

		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *WalletRepositoryImpl) GetOne(id string) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet models.Wallet

	query := `
        SELECT id, user_id, owner_role, balance, pending_amount, currency, status, created_at
        FROM wallets WHERE id=$1 AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &wallet, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

func (repo *WalletRepositoryImpl) GetByUserID(userID string) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet models.Wallet

	query := `
        SELECT id, user_id, owner_role, balance, pending_amount, currency, status, created_at
        FROM wallets WHERE user_id=$1 AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &wallet, query, userID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

// GetForUpdate reads the wallet row with a pessimistic row lock. Every
// mutation to a wallet goes through this, so concurrent approvals against
// the same wallet serialize instead of both reading the same balance.
func (repo *WalletRepositoryImpl) GetForUpdate(tx *sqlx.Tx, id string) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet models.Wallet

	query := `
        SELECT id, user_id, owner_role, balance, pending_amount, currency, status, created_at
        FROM wallets WHERE id=$1 AND deleted_at IS NULL FOR UPDATE`

	err := tx.GetContext(ctx, &wallet, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

func (repo *WalletRepositoryImpl) UpdateBalance(tx *sqlx.Tx, id string, balance decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE wallets SET balance=$1, updated_at=now() WHERE id=$2 AND deleted_at IS NULL`

	_, err := tx.ExecContext(ctx, query, balance, id)
	return err
}

// SetStatus flips a wallet between active and inactive. Wallets are never
// hard-deleted.
func (repo *WalletRepositoryImpl) SetStatus(id string, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE wallets SET status = $1, updated_at=now() WHERE id = $2 AND deleted_at IS NULL`

	_, err := repo.db.ExecContext(ctx, query, status, id)
	return err
}
