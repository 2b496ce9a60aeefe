package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/opsfort/opsledger/internal/ledger"
	"github.com/opsfort/opsledger/internal/models"
	"github.com/opsfort/opsledger/internal/repository"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Insert(log *models.ActivityLog) (*models.ActivityLog, error) {
	args := m.Called(log)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ActivityLog), args.Error(1)
}

type MockDatabase struct {
	mock.Mock
	activity repository.ActivityRepository
}

func (m *MockDatabase) Wallet() repository.WalletRepository           { return nil }
func (m *MockDatabase) RiskLimit() repository.RiskLimitRepository     { return nil }
func (m *MockDatabase) Transaction() repository.TransactionRepository { return nil }
func (m *MockDatabase) Activity() repository.ActivityRepository       { return m.activity }
func (m *MockDatabase) Close() error                                  { return nil }

func (m *MockDatabase) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(recipient string, data any, patterns ...string) error {
	args := m.Called(recipient, data, patterns)
	return args.Error(0)
}

func TestRaiseOverdraftAlert(t *testing.T) {
	activity := new(MockActivityRepository)
	mailer := new(MockMailer)

	wk := New(&Worker{
		DB:       &MockDatabase{activity: activity},
		Mailer:   mailer,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		OpsEmail: "ops@example.com",
	})

	activity.On("Insert", mock.MatchedBy(func(log *models.ActivityLog) bool {
		return log.UserID == "user-1" &&
			log.Entity == repository.ActivityEntityTransaction &&
			log.EntityID == "txn-1" &&
			log.Description == repository.ActivityOverdraftAlertDescription
	})).Return(&models.ActivityLog{ID: "log-1"}, nil)

	mailer.On("Send", "ops@example.com", mock.Anything, []string{"overdraft-alert.tmpl"}).Return(nil)

	wk.raiseOverdraftAlert(&ledger.AppliedEvent{
		TransactionID: "txn-1",
		WalletID:      "wallet-1",
		UserID:        "user-1",
		Type:          models.TransactionTypeWithdrawal,
		Amount:        decimal.NewFromInt(-1200),
		BalanceAfter:  decimal.NewFromInt(-200),
		IsNegative:    true,
		CreatedAt:     time.Now(),
	})

	activity.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestRaiseOverdraftAlertSkipsEmailWithoutOpsAddress(t *testing.T) {
	activity := new(MockActivityRepository)
	mailer := new(MockMailer)

	wk := New(&Worker{
		DB:     &MockDatabase{activity: activity},
		Mailer: mailer,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	activity.On("Insert", mock.Anything).Return(&models.ActivityLog{ID: "log-1"}, nil)

	wk.raiseOverdraftAlert(&ledger.AppliedEvent{
		TransactionID: "txn-1",
		UserID:        "user-1",
		IsNegative:    true,
	})

	activity.AssertExpectations(t)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}
