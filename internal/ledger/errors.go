package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrWalletInactive      = errors.New("wallet cannot process transactions at this time")
	ErrInvalidAmount       = errors.New("invalid transaction amount")
	ErrInvalidType         = errors.New("unknown transaction type")
	ErrConcurrencyConflict = errors.New("conflicting transaction in flight, retry")
)

// limit kinds carried by LimitExceededError
const (
	LimitSingleTransaction = "single_transaction_limit"
	LimitDailyWithdrawal   = "daily_withdrawal_limit"
	LimitMonthlyWithdrawal = "monthly_withdrawal_limit"
)

// LimitExceededError reports which ceiling a withdrawal hit, the amount
// that would have been spent, and the configured ceiling. Handlers surface
// all three so operators see the specific limit, not a generic failure.
type LimitExceededError struct {
	LimitType string
	Requested decimal.Decimal
	Ceiling   decimal.Decimal
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s exceeded: requested %s, ceiling %s", e.LimitType, e.Requested, e.Ceiling)
}
