package ledger

import (
	"time"

	"github.com/opsfort/opsledger/internal/models"
	"github.com/opsfort/opsledger/internal/repository"

	"github.com/shopspring/decimal"
)

// trailing enforcement windows
const (
	dailyWindow   = 24 * time.Hour
	monthlyWindow = 30 * 24 * time.Hour
)

// DefaultRoleLimits is the fallback limit table keyed by owner role. It is
// passed to NewLimitStore explicitly so tests can swap it; there is no
// package-level mutable state behind the store.
var DefaultRoleLimits = map[string]models.RiskLimit{
	models.RoleStaff: {
		DailyWithdrawalLimit:   decimal.NewFromInt(50_000),
		MonthlyWithdrawalLimit: decimal.NewFromInt(500_000),
		SingleTransactionLimit: decimal.NewFromInt(20_000),
		MinimumBalance:         decimal.Zero,
	},
	models.RoleMerchant: {
		DailyWithdrawalLimit:   decimal.NewFromInt(500_000),
		MonthlyWithdrawalLimit: decimal.NewFromInt(5_000_000),
		SingleTransactionLimit: decimal.NewFromInt(200_000),
		MinimumBalance:         decimal.NewFromInt(-50_000),
	},
	models.RoleVIP: {
		DailyWithdrawalLimit:   decimal.NewFromInt(2_000_000),
		MonthlyWithdrawalLimit: decimal.NewFromInt(20_000_000),
		SingleTransactionLimit: decimal.NewFromInt(1_000_000),
		MinimumBalance:         decimal.NewFromInt(-200_000),
	},
}

// LimitStore serves per-user risk-limit profiles. Users without an explicit
// profile get the default for their role; defaults are never persisted, only
// explicit SetLimits writes a row.
type LimitStore struct {
	limitRepo repository.RiskLimitRepository
	defaults  map[string]models.RiskLimit
}

func NewLimitStore(limitRepo repository.RiskLimitRepository, defaults map[string]models.RiskLimit) *LimitStore {
	return &LimitStore{
		limitRepo: limitRepo,
		defaults:  defaults,
	}
}

func (s *LimitStore) GetLimits(userID, role string) (*models.RiskLimit, error) {
	limit, found, err := s.limitRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	if found {
		return limit, nil
	}

	def, ok := s.defaults[role]
	if !ok {
		def = s.defaults[models.RoleStaff]
	}
	def.UserID = userID

	return &def, nil
}

// SetLimits persists an explicit profile. Authorization is the caller's
// concern; this store trusts it already happened.
func (s *LimitStore) SetLimits(limit *models.RiskLimit) error {
	return s.limitRepo.Upsert(limit)
}
