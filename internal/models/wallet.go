package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Wallet struct {
	ID            string          `db:"id"`
	UserID        string          `db:"user_id"`
	OwnerRole     string          `db:"owner_role"`
	Balance       decimal.Decimal `db:"balance"`
	PendingAmount decimal.Decimal `db:"pending_amount"`
	Currency      string          `db:"currency"`
	Status        string          `db:"status"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     sql.NullTime    `db:"updated_at"`
	DeletedAt     sql.NullTime    `db:"deleted_at"`
}

const (
	WalletActiveStatus   = "active"
	WalletInactiveStatus = "inactive"
)

func (w *Wallet) IsActive() bool {
	return w.Status == WalletActiveStatus
}
