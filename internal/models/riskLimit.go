package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// RiskLimit caps withdrawal velocity and size for one user and sets the
// floor the balance may sink to. MinimumBalance may be negative, which
// grants a controlled overdraft allowance.
type RiskLimit struct {
	UserID                 string          `db:"user_id"`
	DailyWithdrawalLimit   decimal.Decimal `db:"daily_withdrawal_limit"`
	MonthlyWithdrawalLimit decimal.Decimal `db:"monthly_withdrawal_limit"`
	SingleTransactionLimit decimal.Decimal `db:"single_transaction_limit"`
	MinimumBalance         decimal.Decimal `db:"minimum_balance"`
	CreatedAt              time.Time       `db:"created_at"`
	UpdatedAt              sql.NullTime    `db:"updated_at"`
}

// Roles the portal provisions wallets for. Default limit profiles are
// keyed by these in config; see ledger.LimitStore.
const (
	RoleStaff    = "staff"
	RoleMerchant = "merchant"
	RoleVIP      = "vip"
)
