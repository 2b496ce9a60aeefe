package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/opsfort/opsledger/internal/errHandler"
	"github.com/opsfort/opsledger/internal/helper"
	"github.com/opsfort/opsledger/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockApplier struct {
	mock.Mock
}

func (m *MockApplier) Apply(ctx context.Context, input *ledger.ApplyInput) (*ledger.TransactionResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.TransactionResult), args.Error(1)
}

func newTestLedgerHandler(applier ledger.Applier) *LedgerHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	baseURL := "http://localhost"
	var wg sync.WaitGroup
	help := helper.New(&baseURL, &wg, logger)

	return NewLedgerHandler(&LedgerHandler{
		Engine:     applier,
		ErrHandler: errHandler.New("", nil, logger, help),
	})
}

func applyRequest(walletID, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/wallets/"+walletID+"/transactions", strings.NewReader(body))
	r.SetPathValue("id", walletID)
	return r
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHandleApplyTransactionSuccess(t *testing.T) {
	applier := new(MockApplier)
	h := newTestLedgerHandler(applier)

	applier.On("Apply", mock.Anything, mock.MatchedBy(func(input *ledger.ApplyInput) bool {
		return input.WalletID == "wallet-1" &&
			input.Type == "withdrawal" &&
			input.ApprovedAmount.Equal(decimal.NewFromInt(500)) &&
			input.TicketID == "ticket-9"
	})).Return(&ledger.TransactionResult{
		TransactionID: "txn-1",
		NewBalance:    decimal.NewFromInt(500),
	}, nil)

	w := httptest.NewRecorder()
	h.HandleApplyTransaction(w, applyRequest("wallet-1", `{
		"type": "withdrawal",
		"requested_amount": "600",
		"approved_amount": "500",
		"ticket_id": "ticket-9"
	}`))

	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	require.True(t, env.Success)
	require.Equal(t, "Transaction applied successfully", env.Message)

	var data struct {
		TransactionID string          `json:"transaction_id"`
		NewBalance    decimal.Decimal `json:"new_balance"`
		IsNegative    bool            `json:"is_negative"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "txn-1", data.TransactionID)
	require.True(t, data.NewBalance.Equal(decimal.NewFromInt(500)))
	require.False(t, data.IsNegative)

	applier.AssertExpectations(t)
}

func TestHandleApplyTransactionOverdraftWarningMessage(t *testing.T) {
	applier := new(MockApplier)
	h := newTestLedgerHandler(applier)

	applier.On("Apply", mock.Anything, mock.Anything).Return(&ledger.TransactionResult{
		TransactionID: "txn-1",
		NewBalance:    decimal.NewFromInt(-200),
		IsNegative:    true,
	}, nil)

	w := httptest.NewRecorder()
	h.HandleApplyTransaction(w, applyRequest("wallet-1", `{
		"type": "withdrawal",
		"approved_amount": "1200"
	}`))

	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	require.True(t, env.Success)
	require.Contains(t, env.Message, "below its minimum")
}

func TestHandleApplyTransactionReplayMessage(t *testing.T) {
	applier := new(MockApplier)
	h := newTestLedgerHandler(applier)

	applier.On("Apply", mock.Anything, mock.Anything).Return(&ledger.TransactionResult{
		TransactionID:  "txn-1",
		NewBalance:     decimal.NewFromInt(500),
		AlreadyApplied: true,
	}, nil)

	w := httptest.NewRecorder()
	h.HandleApplyTransaction(w, applyRequest("wallet-1", `{
		"type": "deposit",
		"approved_amount": "100",
		"ticket_id": "ticket-9"
	}`))

	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	require.Contains(t, env.Message, "already applied")
}

func TestHandleApplyTransactionLimitExceeded(t *testing.T) {
	applier := new(MockApplier)
	h := newTestLedgerHandler(applier)

	applier.On("Apply", mock.Anything, mock.Anything).Return(nil, &ledger.LimitExceededError{
		LimitType: ledger.LimitSingleTransaction,
		Requested: decimal.NewFromInt(2_500),
		Ceiling:   decimal.NewFromInt(2_000),
	})

	w := httptest.NewRecorder()
	h.HandleApplyTransaction(w, applyRequest("wallet-1", `{
		"type": "withdrawal",
		"approved_amount": "2500"
	}`))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	env := decodeEnvelope(t, w)
	require.False(t, env.Success)

	var details struct {
		LimitType string          `json:"limit_type"`
		Requested decimal.Decimal `json:"requested"`
		Ceiling   decimal.Decimal `json:"ceiling"`
	}
	require.NoError(t, json.Unmarshal(env.Error, &details))
	require.Equal(t, ledger.LimitSingleTransaction, details.LimitType)
	require.True(t, details.Requested.Equal(decimal.NewFromInt(2_500)))
	require.True(t, details.Ceiling.Equal(decimal.NewFromInt(2_000)))
}

func TestHandleApplyTransactionConflict(t *testing.T) {
	applier := new(MockApplier)
	h := newTestLedgerHandler(applier)

	applier.On("Apply", mock.Anything, mock.Anything).Return(nil, ledger.ErrConcurrencyConflict)

	w := httptest.NewRecorder()
	h.HandleApplyTransaction(w, applyRequest("wallet-1", `{
		"type": "deposit",
		"approved_amount": "100"
	}`))

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleApplyTransactionValidation(t *testing.T) {
	applier := new(MockApplier)
	h := newTestLedgerHandler(applier)

	w := httptest.NewRecorder()
	h.HandleApplyTransaction(w, applyRequest("wallet-1", `{
		"type": "transfer",
		"approved_amount": "0"
	}`))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	applier.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}
