package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/opsfort/opsledger/internal/cache"
	"github.com/opsfort/opsledger/internal/context"
	"github.com/opsfort/opsledger/internal/errHandler"
	"github.com/opsfort/opsledger/internal/helper"
	"github.com/opsfort/opsledger/internal/ledger"
	"github.com/opsfort/opsledger/internal/models"
	"github.com/opsfort/opsledger/internal/repository"
	"github.com/opsfort/opsledger/internal/response"
	"github.com/opsfort/opsledger/internal/validator"

	"github.com/shopspring/decimal"
)

var ErrWalletNotFound = errors.New("wallet not found")

type WalletResponseData struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	OwnerRole     string          `json:"owner_role"`
	Balance       decimal.Decimal `json:"balance"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

type TransactionResponseData struct {
	ID              string           `json:"id"`
	WalletID        string           `json:"wallet_id"`
	Type            string           `json:"type"`
	Amount          decimal.Decimal  `json:"amount"`
	RequestedAmount *decimal.Decimal `json:"requested_amount,omitempty"`
	BalanceAfter    decimal.Decimal  `json:"balance_after"`
	Description     string           `json:"description,omitempty"`
	Status          string           `json:"status"`
	TicketID        string           `json:"ticket_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

type WalletHandler struct {
	WalletRepo      repository.WalletRepository
	TransactionRepo repository.TransactionRepository
	ActivityRepo    repository.ActivityRepository
	Limits          *ledger.LimitStore
	Cache           *cache.Cache
	Helper          *helper.HelperRepository
	ErrHandler      *errHandler.ErrorHandler
}

func NewWalletHandler(handler *WalletHandler) *WalletHandler {
	return &WalletHandler{
		WalletRepo:      handler.WalletRepo,
		TransactionRepo: handler.TransactionRepo,
		ActivityRepo:    handler.ActivityRepo,
		Limits:          handler.Limits,
		Cache:           handler.Cache,
		Helper:          handler.Helper,
		ErrHandler:      handler.ErrHandler,
	}
}

func (h *WalletHandler) HandleGetWallet(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	wallet, found, err := h.WalletRepo.GetByUserID(userID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	message := "Wallet details fetched successfully"

	data := &WalletResponseData{
		ID:            wallet.ID,
		UserID:        wallet.UserID,
		OwnerRole:     wallet.OwnerRole,
		Balance:       wallet.Balance,
		PendingAmount: wallet.PendingAmount,
		Currency:      wallet.Currency,
		Status:        wallet.Status,
		CreatedAt:     wallet.CreatedAt,
	}
	err = response.JSONOkResponse(w, data, message, nil)

	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandleSetWalletStatus(w http.ResponseWriter, r *http.Request) {
	type statusInput struct {
		Status    string              `json:"status"`
		Validator validator.Validator `json:"-"`
	}

	walletID := r.PathValue("id")

	var input statusInput
	if err := decodeAndValidate(w, r, &input, h.ErrHandler); err != nil {
		return
	}

	input.Validator.Check(validator.In(input.Status, models.WalletActiveStatus, models.WalletInactiveStatus), "Status must be active or inactive")
	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	wallet, found, err := h.WalletRepo.GetOne(walletID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if err := h.WalletRepo.SetStatus(walletID, input.Status); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	description := repository.ActivityWalletDeactivatedDescription
	if input.Status == models.WalletActiveStatus {
		description = repository.ActivityWalletActivatedDescription
	}

	h.Helper.BackgroundTask(func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      wallet.UserID,
			Entity:      repository.ActivityEntityWallet,
			EntityID:    walletID,
			Description: description,
		})
		return err
	})

	err = response.JSONOkResponse(w, map[string]any{"status": input.Status}, "Wallet status updated", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	walletID := r.PathValue("id")
	queryValues := retrieveUrlQueryValues(r)

	filter := &repository.TransactionFilter{
		Status:    queryValues.Status,
		Type:      queryValues.Type,
		StartDate: queryValues.StartDate,
		EndDate:   queryValues.EndDate,
		Limit:     queryValues.Limit,
		Offset:    queryValues.Offset,
	}

	transactions, total, err := h.TransactionRepo.ListByWallet(walletID, filter)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*TransactionResponseData, len(transactions))
	for i := range transactions {
		data[i] = newTransactionResponseData(&transactions[i])
	}

	message := "Transactions fetched successfully"
	err = response.JSONOkResponse(w, map[string]any{
		"transactions": data,
		"total":        total,
		"page":         queryValues.Page,
		"limit":        queryValues.Limit,
	}, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func newTransactionResponseData(txn *models.WalletTransaction) *TransactionResponseData {
	data := &TransactionResponseData{
		ID:           txn.ID,
		WalletID:     txn.WalletID,
		Type:         txn.Type,
		Amount:       txn.Amount,
		BalanceAfter: txn.BalanceAfter,
		Status:       txn.Status,
		CreatedAt:    txn.CreatedAt,
	}
	if txn.RequestedAmount.Valid {
		data.RequestedAmount = &txn.RequestedAmount.Decimal
	}
	if txn.Description.Valid {
		data.Description = txn.Description.String
	}
	if txn.TicketID.Valid {
		data.TicketID = txn.TicketID.String
	}
	return data
}

func (h *WalletHandler) HandleGetLimits(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	wallet, found, err := h.WalletRepo.GetByUserID(userID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	limits, err := h.Limits.GetLimits(userID, wallet.OwnerRole)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	// Rolling totals from the cache are a cheap display value for the UI;
	// enforcement always sums the transaction log.
	dailyUsed, err := h.Cache.DailyWithdrawalTotal(r.Context(), userID)
	if err != nil {
		h.ErrHandler.ReportServerError(r, err)
		dailyUsed = decimal.Zero
	}
	monthlyUsed, err := h.Cache.MonthlyWithdrawalTotal(r.Context(), userID)
	if err != nil {
		h.ErrHandler.ReportServerError(r, err)
		monthlyUsed = decimal.Zero
	}

	message := "Risk limits fetched successfully"
	data := map[string]any{
		"user_id":                  userID,
		"daily_withdrawal_limit":   limits.DailyWithdrawalLimit,
		"monthly_withdrawal_limit": limits.MonthlyWithdrawalLimit,
		"single_transaction_limit": limits.SingleTransactionLimit,
		"minimum_balance":          limits.MinimumBalance,
		"daily_withdrawal_used":    dailyUsed,
		"monthly_withdrawal_used":  monthlyUsed,
	}
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandleSetLimits(w http.ResponseWriter, r *http.Request) {
	type limitsInput struct {
		DailyWithdrawalLimit   decimal.Decimal     `json:"daily_withdrawal_limit"`
		MonthlyWithdrawalLimit decimal.Decimal     `json:"monthly_withdrawal_limit"`
		SingleTransactionLimit decimal.Decimal     `json:"single_transaction_limit"`
		MinimumBalance         decimal.Decimal     `json:"minimum_balance"`
		Validator              validator.Validator `json:"-"`
	}

	userID := r.PathValue("user_id")

	var input limitsInput
	if err := decodeAndValidate(w, r, &input, h.ErrHandler); err != nil {
		return
	}

	input.Validator.Check(!input.DailyWithdrawalLimit.IsNegative(), "Daily withdrawal limit must not be negative")
	input.Validator.Check(!input.MonthlyWithdrawalLimit.IsNegative(), "Monthly withdrawal limit must not be negative")
	input.Validator.Check(!input.SingleTransactionLimit.IsNegative(), "Single transaction limit must not be negative")
	input.Validator.Check(input.DailyWithdrawalLimit.LessThanOrEqual(input.MonthlyWithdrawalLimit), "Daily limit cannot exceed monthly limit")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	_, found, err := h.WalletRepo.GetByUserID(userID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	err = h.Limits.SetLimits(&models.RiskLimit{
		UserID:                 userID,
		DailyWithdrawalLimit:   input.DailyWithdrawalLimit,
		MonthlyWithdrawalLimit: input.MonthlyWithdrawalLimit,
		SingleTransactionLimit: input.SingleTransactionLimit,
		MinimumBalance:         input.MinimumBalance,
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	operator := context.ContextGetAuthenticatedOperator(r)
	h.Helper.BackgroundTask(func() error {
		log := &models.ActivityLog{
			UserID:      userID,
			Entity:      repository.ActivityEntityRiskLimit,
			EntityID:    userID,
			Description: repository.ActivityLimitUpdatedDescription,
		}
		if operator != nil {
			log.Description = repository.ActivityLimitUpdatedDescription + " by " + operator.ID
		}
		_, err := h.ActivityRepo.Insert(log)
		return err
	})

	err = response.JSONOkResponse(w, nil, "Risk limits updated successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
