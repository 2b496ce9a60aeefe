package handler

import (
	"errors"
	"net/http"

	"github.com/opsfort/opsledger/internal/errHandler"
	"github.com/opsfort/opsledger/internal/ledger"
	"github.com/opsfort/opsledger/internal/models"
	"github.com/opsfort/opsledger/internal/response"
	"github.com/opsfort/opsledger/internal/validator"

	"github.com/shopspring/decimal"
)

type LedgerHandler struct {
	Engine      ledger.Applier
	Coordinator *ledger.Coordinator
	ErrHandler  *errHandler.ErrorHandler
}

func NewLedgerHandler(handler *LedgerHandler) *LedgerHandler {
	return &LedgerHandler{
		Engine:      handler.Engine,
		Coordinator: handler.Coordinator,
		ErrHandler:  handler.ErrHandler,
	}
}

func (h *LedgerHandler) HandleApplyTransaction(w http.ResponseWriter, r *http.Request) {
	// To apply a ticket approval to a wallet, we need to
	// Step 1: Validate the input items
	// Step 2: Hand the approval to the ledger engine, which owns the limit
	//         checks, the idempotency replay, and the atomic mutation
	// Step 3: Map the typed failures onto responses the UI can act on

	type applyInput struct {
		Type            string              `json:"type"`
		RequestedAmount decimal.Decimal     `json:"requested_amount"`
		ApprovedAmount  decimal.Decimal     `json:"approved_amount"`
		Description     string              `json:"description"`
		TicketID        string              `json:"ticket_id"`
		Validator       validator.Validator `json:"-"`
	}

	walletID := r.PathValue("id")

	var input applyInput
	if err := decodeAndValidate(w, r, &input, h.ErrHandler); err != nil {
		return
	}

	input.Validator.Check(validator.In(input.Type,
		models.TransactionTypeDeposit,
		models.TransactionTypeWithdrawal,
		models.TransactionTypeAdjustment,
	), "Type must be deposit, withdrawal or adjustment")
	input.Validator.Check(!input.ApprovedAmount.IsZero(), "Approved amount is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	result, err := h.Engine.Apply(r.Context(), &ledger.ApplyInput{
		WalletID:        walletID,
		Type:            input.Type,
		RequestedAmount: input.RequestedAmount,
		ApprovedAmount:  input.ApprovedAmount,
		Description:     input.Description,
		TicketID:        input.TicketID,
	})

	if err != nil {
		h.respondApplyError(w, r, err)
		return
	}

	message := "Transaction applied successfully"
	if result.AlreadyApplied {
		message = "Transaction was already applied for this ticket"
	} else if result.IsNegative {
		// the caller must render this distinctly: the transaction went
		// through, the balance is just below its floor
		message = "Transaction applied; wallet balance is below its minimum"
	}

	err = response.JSONOkResponse(w, result, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *LedgerHandler) respondApplyError(w http.ResponseWriter, r *http.Request, err error) {
	var limitErr *ledger.LimitExceededError

	switch {
	case errors.As(err, &limitErr):
		details := map[string]any{
			"limit_type": limitErr.LimitType,
			"requested":  limitErr.Requested,
			"ceiling":    limitErr.Ceiling,
		}
		response.JSONErrorResponse(w, details, limitErr.Error(), http.StatusUnprocessableEntity, nil)

	case errors.Is(err, ledger.ErrWalletNotFound),
		errors.Is(err, ledger.ErrWalletInactive),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidType):
		response.JSONErrorResponse(w, nil, err.Error(), http.StatusUnprocessableEntity, nil)

	case errors.Is(err, ledger.ErrConcurrencyConflict):
		response.JSONErrorResponse(w, nil, err.Error(), http.StatusConflict, nil)

	default:
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *LedgerHandler) HandleBulkTransactions(w http.ResponseWriter, r *http.Request) {
	type bulkInput struct {
		UserIDs     []string            `json:"user_ids"`
		Type        string              `json:"type"`
		Amount      decimal.Decimal     `json:"amount"`
		Description string              `json:"description"`
		Validator   validator.Validator `json:"-"`
	}

	var input bulkInput
	if err := decodeAndValidate(w, r, &input, h.ErrHandler); err != nil {
		return
	}

	input.Validator.Check(len(input.UserIDs) > 0, "At least one user id is required")
	input.Validator.Check(ledger.ValidBulkType(input.Type), "Type must be deposit or withdrawal")
	input.Validator.Check(input.Amount.IsPositive(), "Amount must be positive")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	bulkResult := h.Coordinator.ApplyBulk(r.Context(), &ledger.BulkInput{
		UserIDs:     input.UserIDs,
		Type:        input.Type,
		Amount:      input.Amount,
		Description: input.Description,
	})

	type perUserResponse struct {
		UserID        string           `json:"user_id"`
		WalletID      string           `json:"wallet_id,omitempty"`
		TransactionID string           `json:"transaction_id,omitempty"`
		NewBalance    *decimal.Decimal `json:"new_balance,omitempty"`
		IsNegative    bool             `json:"is_negative"`
		Error         string           `json:"error,omitempty"`
	}

	results := make([]perUserResponse, len(bulkResult.Results))
	for i, res := range bulkResult.Results {
		out := perUserResponse{
			UserID:        res.UserID,
			WalletID:      res.WalletID,
			TransactionID: res.TransactionID,
			IsNegative:    res.IsNegative,
		}
		if res.Err != nil {
			out.Error = res.Err.Error()
		} else {
			balance := res.NewBalance
			out.NewBalance = &balance
		}
		results[i] = out
	}

	message := "Bulk transaction run completed"
	err := response.JSONOkResponse(w, map[string]any{
		"succeeded": bulkResult.Succeeded,
		"failed":    bulkResult.Failed,
		"results":   results,
	}, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
