package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/opsfort/opsledger/internal/models"
	"github.com/opsfort/opsledger/internal/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// TransactionAppliedTopic receives one event per applied transaction. The
// risk-alert worker consumes it; nothing in the apply path waits on it.
const TransactionAppliedTopic = "wallet.transaction.applied"

// TxRunner runs a function inside one database transaction. The ledger
// engine does every read-check-mutate-append cycle through it so that the
// wallet update and the log append commit or roll back together.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// WithdrawalTracker keeps rolling withdrawal totals for dashboards. Best
// effort; failures are logged, never surfaced to the caller.
type WithdrawalTracker interface {
	TrackWithdrawal(ctx context.Context, userID string, amount decimal.Decimal) error
}

// EventProducer publishes applied-transaction events.
type EventProducer interface {
	ProduceMessage(topic, message string) error
}

// Applier is the operation the batch coordinator and the handlers depend on.
type Applier interface {
	Apply(ctx context.Context, input *ApplyInput) (*TransactionResult, error)
}

type ApplyInput struct {
	WalletID string
	Type     string

	// RequestedAmount is what the ticket asked for, kept for audit only.
	// ApprovedAmount is authoritative: a positive magnitude for deposits and
	// withdrawals (the engine signs withdrawals itself), signed for
	// adjustments.
	RequestedAmount decimal.Decimal
	ApprovedAmount  decimal.Decimal

	Description string
	TicketID    string
}

type TransactionResult struct {
	TransactionID string          `json:"transaction_id"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	IsNegative    bool            `json:"is_negative"`

	// AlreadyApplied marks an idempotent replay: the ticket was applied
	// before and this is the recorded outcome of that first call.
	AlreadyApplied bool `json:"already_applied"`
}

// AppliedEvent is the payload produced to TransactionAppliedTopic.
type AppliedEvent struct {
	TransactionID string          `json:"transaction_id"`
	WalletID      string          `json:"wallet_id"`
	UserID        string          `json:"user_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	IsNegative    bool            `json:"is_negative"`
	TicketID      string          `json:"ticket_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Engine validates and atomically applies single transactions against a
// wallet. All wallet mutations in the system go through here.
type Engine struct {
	runner     TxRunner
	walletRepo repository.WalletRepository
	txnRepo    repository.TransactionRepository
	limits     *LimitStore
	tracker    WithdrawalTracker
	producer   EventProducer
	logger     *slog.Logger
}

func NewEngine(runner TxRunner, walletRepo repository.WalletRepository, txnRepo repository.TransactionRepository, limits *LimitStore, tracker WithdrawalTracker, producer EventProducer, logger *slog.Logger) *Engine {
	return &Engine{
		runner:     runner,
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		limits:     limits,
		tracker:    tracker,
		producer:   producer,
		logger:     logger,
	}
}

// Apply validates and applies one transaction:
// Step 1: load the wallet under a row lock, reject inactive/missing wallets.
// Step 2: replay check. A completed transaction already linked to the ticket
// makes this call a no-op returning the recorded result.
// Step 3: withdrawals only: enforce single/daily/monthly ceilings against the
// transaction log. Dropping below the minimum balance is NOT a rejection; it
// flips the is_negative warning flag instead.
// Step 4: mutate the balance and append the log entry in the same database
// transaction, balance_after snapshotted from the new balance.
func (e *Engine) Apply(ctx context.Context, input *ApplyInput) (*TransactionResult, error) {
	signedAmount, err := signAmount(input.Type, input.ApprovedAmount)
	if err != nil {
		return nil, err
	}

	var result *TransactionResult
	var event *AppliedEvent

	err = e.runner.InTx(ctx, func(tx *sqlx.Tx) error {
		wallet, found, err := e.walletRepo.GetForUpdate(tx, input.WalletID)
		if err != nil {
			return err
		}
		if !found {
			return ErrWalletNotFound
		}
		if !wallet.IsActive() {
			return ErrWalletInactive
		}

		if input.TicketID != "" {
			prior, found, err := e.txnRepo.FindCompletedByTicketID(tx, input.TicketID)
			if err != nil {
				return err
			}
			if found {
				result = &TransactionResult{
					TransactionID:  prior.ID,
					NewBalance:     prior.BalanceAfter,
					IsNegative:     prior.BalanceAfter.IsNegative(),
					AlreadyApplied: true,
				}
				return nil
			}
		}

		minimumBalance := decimal.Zero

		if input.Type == models.TransactionTypeWithdrawal {
			limits, err := e.limits.GetLimits(wallet.UserID, wallet.OwnerRole)
			if err != nil {
				return err
			}
			minimumBalance = limits.MinimumBalance

			if err := e.checkWithdrawalLimits(tx, wallet.ID, input.ApprovedAmount, limits); err != nil {
				return err
			}
		}

		newBalance := wallet.Balance.Add(signedAmount)
		isNegative := newBalance.IsNegative() || newBalance.LessThan(minimumBalance)

		if err := e.walletRepo.UpdateBalance(tx, wallet.ID, newBalance); err != nil {
			return err
		}

		entry := &models.WalletTransaction{
			ID:           uuid.NewString(),
			WalletID:     wallet.ID,
			Type:         input.Type,
			Amount:       signedAmount,
			BalanceAfter: newBalance,
			Status:       models.TransactionStatusCompleted,
			Description:  sql.NullString{String: input.Description, Valid: input.Description != ""},
			TicketID:     sql.NullString{String: input.TicketID, Valid: input.TicketID != ""},
		}
		if !input.RequestedAmount.IsZero() {
			entry.RequestedAmount = decimal.NullDecimal{Decimal: input.RequestedAmount, Valid: true}
		}

		created, err := e.txnRepo.Insert(entry, tx)
		if err != nil {
			return err
		}

		result = &TransactionResult{
			TransactionID: created.ID,
			NewBalance:    newBalance,
			IsNegative:    isNegative,
		}
		event = &AppliedEvent{
			TransactionID: created.ID,
			WalletID:      wallet.ID,
			UserID:        wallet.UserID,
			Type:          input.Type,
			Amount:        signedAmount,
			BalanceAfter:  newBalance,
			IsNegative:    isNegative,
			TicketID:      input.TicketID,
			CreatedAt:     created.CreatedAt,
		}
		return nil
	})

	if err != nil {
		if repository.IsConcurrencyConflict(err) {
			return nil, ErrConcurrencyConflict
		}
		return nil, err
	}

	if event != nil {
		e.afterApply(ctx, input, event)
	}

	return result, nil
}

// checkWithdrawalLimits enforces the three velocity/size ceilings. The
// trailing-window sums come from the transaction log inside the same
// database transaction, so a concurrent approval on this wallet cannot
// slip a second withdrawal under the same window.
func (e *Engine) checkWithdrawalLimits(tx *sqlx.Tx, walletID string, magnitude decimal.Decimal, limits *models.RiskLimit) error {
	if magnitude.GreaterThan(limits.SingleTransactionLimit) {
		return &LimitExceededError{
			LimitType: LimitSingleTransaction,
			Requested: magnitude,
			Ceiling:   limits.SingleTransactionLimit,
		}
	}

	now := time.Now()

	dailySum, err := e.txnRepo.SumWithdrawalsSince(tx, walletID, now.Add(-dailyWindow))
	if err != nil {
		return err
	}
	if dailySum.Add(magnitude).GreaterThan(limits.DailyWithdrawalLimit) {
		return &LimitExceededError{
			LimitType: LimitDailyWithdrawal,
			Requested: dailySum.Add(magnitude),
			Ceiling:   limits.DailyWithdrawalLimit,
		}
	}

	monthlySum, err := e.txnRepo.SumWithdrawalsSince(tx, walletID, now.Add(-monthlyWindow))
	if err != nil {
		return err
	}
	if monthlySum.Add(magnitude).GreaterThan(limits.MonthlyWithdrawalLimit) {
		return &LimitExceededError{
			LimitType: LimitMonthlyWithdrawal,
			Requested: monthlySum.Add(magnitude),
			Ceiling:   limits.MonthlyWithdrawalLimit,
		}
	}

	return nil
}

// afterApply runs the advisory side effects once the transaction committed.
// None of them can fail an already-applied transaction.
func (e *Engine) afterApply(ctx context.Context, input *ApplyInput, event *AppliedEvent) {
	if e.tracker != nil && input.Type == models.TransactionTypeWithdrawal {
		if err := e.tracker.TrackWithdrawal(ctx, event.UserID, input.ApprovedAmount); err != nil {
			e.logger.Error("tracking withdrawal totals", "error", err, "wallet_id", event.WalletID)
		}
	}

	if e.producer != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			e.logger.Error("encoding applied event", "error", err)
			return
		}
		go func() {
			if err := e.producer.ProduceMessage(TransactionAppliedTopic, string(payload)); err != nil {
				e.logger.Error("producing applied event", "error", err, "transaction_id", event.TransactionID)
			}
		}()
	}
}

// signAmount validates the approved amount for the transaction type and
// returns the signed amount to add to the balance.
func signAmount(txnType string, approved decimal.Decimal) (decimal.Decimal, error) {
	switch txnType {
	case models.TransactionTypeWithdrawal:
		if !approved.IsPositive() {
			return decimal.Zero, ErrInvalidAmount
		}
		return approved.Neg(), nil
	case models.TransactionTypeDeposit:
		if !approved.IsPositive() {
			return decimal.Zero, ErrInvalidAmount
		}
		return approved, nil
	case models.TransactionTypeAdjustment:
		if approved.IsZero() {
			return decimal.Zero, ErrInvalidAmount
		}
		return approved, nil
	default:
		return decimal.Zero, ErrInvalidType
	}
}
