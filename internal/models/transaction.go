package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// WalletTransaction is one append-only ledger entry. Rows are immutable once
// written; corrections are new compensating entries. BalanceAfter is set at
// append time, which makes the log self-verifying.
type WalletTransaction struct {
	ID              string              `db:"id"`
	WalletID        string              `db:"wallet_id"`
	Type            string              `db:"type"`
	Amount          decimal.Decimal     `db:"amount"`
	RequestedAmount decimal.NullDecimal `db:"requested_amount"`
	BalanceAfter    decimal.Decimal     `db:"balance_after"`
	Description     sql.NullString      `db:"description"`
	Status          string              `db:"status"`
	TicketID        sql.NullString      `db:"ticket_id"`
	CreatedAt       time.Time           `db:"created_at"`
}

const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeAdjustment = "adjustment"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)
