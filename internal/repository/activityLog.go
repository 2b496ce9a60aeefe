package repository

import (
	"context"

	"github.com/opsfort/opsledger/internal/models"

	"github.com/jmoiron/sqlx"
)

// activity log entities
const (
	ActivityEntityWallet      = "wallet"
	ActivityEntityTransaction = "transaction"
	ActivityEntityRiskLimit   = "risk_limit"
)

// possible descriptions
const (
	ActivityLimitUpdatedDescription      = "Risk limits updated"
	ActivityWalletDeactivatedDescription = "Wallet deactivated"
	ActivityWalletActivatedDescription   = "Wallet activated"
	ActivityOverdraftAlertDescription    = "Overdraft alert raised"
	ActivityBulkRunDescription           = "Bulk transaction run"
)

type ActivityRepository interface {
	Insert(log *models.ActivityLog) (*models.ActivityLog, error)
}

type ActivityRepositoryImpl struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &ActivityRepositoryImpl{db: db}
}

func (repo *ActivityRepositoryImpl) Insert(log *models.ActivityLog) (*models.ActivityLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var entry models.ActivityLog

	query := `
		INSERT INTO activity_logs (user_id, entity, entity_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, entity, entity_id, description, created_at`

	err := repo.db.GetContext(ctx, &entry, query,
		log.UserID,
		log.Entity,
		log.EntityID,
		log.Description,
	)

	if err != nil {
		return nil, err
	}

	return &entry, nil
}
