package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/opsfort/opsledger/internal/models"

	"github.com/jmoiron/sqlx"
)

type RiskLimitRepository interface {
	GetByUserID(userID string) (*models.RiskLimit, bool, error)
	Upsert(limit *models.RiskLimit) error
}

type RiskLimitRepositoryImpl struct {
	db *sqlx.DB
}

func NewRiskLimitRepository(db *sqlx.DB) RiskLimitRepository {
	return &RiskLimitRepositoryImpl{db: db}
}

func (repo *RiskLimitRepositoryImpl) GetByUserID(userID string) (*models.RiskLimit, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var limit models.RiskLimit

	query := `
        SELECT user_id, daily_withdrawal_limit, monthly_withdrawal_limit, single_transaction_limit, minimum_balance, created_at
        FROM risk_limits WHERE user_id=$1`

	err := repo.db.GetContext(ctx, &limit, query, userID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &limit, true, nil
}

// Upsert writes an explicit limit profile for the user. Users without a row
// fall back to role defaults at read time; we only persist when an
// administrator sets limits deliberately.
func (repo *RiskLimitRepositoryImpl) Upsert(limit *models.RiskLimit) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO risk_limits (user_id, daily_withdrawal_limit, monthly_withdrawal_limit, single_transaction_limit, minimum_balance)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			daily_withdrawal_limit = EXCLUDED.daily_withdrawal_limit,
			monthly_withdrawal_limit = EXCLUDED.monthly_withdrawal_limit,
			single_transaction_limit = EXCLUDED.single_transaction_limit,
			minimum_balance = EXCLUDED.minimum_balance,
			updated_at = now()`

	_, err := repo.db.ExecContext(ctx, query,
		limit.UserID,
		limit.DailyWithdrawalLimit,
		limit.MonthlyWithdrawalLimit,
		limit.SingleTransactionLimit,
		limit.MinimumBalance,
	)

	return err
}
