package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/opsfort/opsledger/internal/models"
	"github.com/opsfort/opsledger/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	defaultBulkWorkers = 8
	maxConflictRetries = 3
	conflictBackoff    = 50 * time.Millisecond
)

type BulkInput struct {
	UserIDs     []string
	Type        string
	Amount      decimal.Decimal
	Description string
}

// PerUserResult is the outcome for one user in a bulk run. Err is nil on
// success; a failure for one user never rolls back the others.
type PerUserResult struct {
	UserID        string
	WalletID      string
	TransactionID string
	NewBalance    decimal.Decimal
	IsNegative    bool
	Err           error
}

type BulkResult struct {
	Results   []PerUserResult
	Succeeded int
	Failed    int
}

// Coordinator fans the same transaction intent out across many users. Each
// user is applied independently through the engine; wallets are unrelated,
// so there is no cross-user ordering or rollback to coordinate. Fan-out is
// bounded by the worker count to keep pressure off the store.
type Coordinator struct {
	applier    Applier
	walletRepo repository.WalletRepository
	logger     *slog.Logger
	workers    int
}

func NewCoordinator(applier Applier, walletRepo repository.WalletRepository, logger *slog.Logger, workers int) *Coordinator {
	if workers <= 0 {
		workers = defaultBulkWorkers
	}

	return &Coordinator{
		applier:    applier,
		walletRepo: walletRepo,
		logger:     logger,
		workers:    workers,
	}
}

// ApplyBulk applies the intent to every user id, best effort. Results come
// back in input order regardless of completion order.
func (c *Coordinator) ApplyBulk(ctx context.Context, input *BulkInput) *BulkResult {
	results := make([]PerUserResult, len(input.UserIDs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, c.workers)

	for i, userID := range input.UserIDs {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, userID string) {
			defer wg.Done()
			defer func() { <-sem }()

			results[i] = c.applyOne(ctx, userID, input)
		}(i, userID)
	}

	wg.Wait()

	out := &BulkResult{Results: results}
	for i := range results {
		if results[i].Err != nil {
			out.Failed++
		} else {
			out.Succeeded++
		}
	}

	c.logger.Info("bulk run finished",
		"type", input.Type,
		"users", len(input.UserIDs),
		"succeeded", out.Succeeded,
		"failed", out.Failed,
	)

	return out
}

func (c *Coordinator) applyOne(ctx context.Context, userID string, input *BulkInput) PerUserResult {
	result := PerUserResult{UserID: userID}

	wallet, found, err := c.walletRepo.GetByUserID(userID)
	if err != nil {
		result.Err = err
		return result
	}
	if !found {
		result.Err = ErrWalletNotFound
		return result
	}
	result.WalletID = wallet.ID

	applyInput := &ApplyInput{
		WalletID:       wallet.ID,
		Type:           input.Type,
		ApprovedAmount: input.Amount,
		Description:    input.Description,
	}

	// Conflicts are transient; policy hits and caller mistakes are not, so
	// only ErrConcurrencyConflict is retried.
	var applied *TransactionResult
	for attempt := 1; ; attempt++ {
		applied, err = c.applier.Apply(ctx, applyInput)
		if err == nil {
			break
		}

		if !errors.Is(err, ErrConcurrencyConflict) || attempt > maxConflictRetries {
			result.Err = err
			return result
		}

		c.logger.Warn("retrying after conflict", "user_id", userID, "attempt", attempt)

		select {
		case <-time.After(time.Duration(attempt) * conflictBackoff):
		case <-ctx.Done():
			result.Err = ctx.Err()
			return result
		}
	}

	result.TransactionID = applied.TransactionID
	result.NewBalance = applied.NewBalance
	result.IsNegative = applied.IsNegative
	return result
}

// ValidBulkType reports whether the type is allowed in bulk runs.
// Adjustments are deliberately single-wallet only.
func ValidBulkType(txnType string) bool {
	return txnType == models.TransactionTypeDeposit || txnType == models.TransactionTypeWithdrawal
}
