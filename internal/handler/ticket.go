package handler

import (
	"net/http"

	"github.com/opsfort/opsledger/internal/analyzer"
	"github.com/opsfort/opsledger/internal/errHandler"
	"github.com/opsfort/opsledger/internal/models"
	"github.com/opsfort/opsledger/internal/response"
	"github.com/opsfort/opsledger/internal/validator"
)

type TicketHandler struct {
	Analyzer   *analyzer.Analyzer
	ErrHandler *errHandler.ErrorHandler
}

func NewTicketHandler(handler *TicketHandler) *TicketHandler {
	return &TicketHandler{
		Analyzer:   handler.Analyzer,
		ErrHandler: handler.ErrHandler,
	}
}

// HandleAnalyzePending scores a batch of pending money-movement tickets for
// the approval queue. The ticketing system sends its pending requests here
// before operators start working through them; nothing in this path touches
// wallet state.
func (h *TicketHandler) HandleAnalyzePending(w http.ResponseWriter, r *http.Request) {
	type analyzeInput struct {
		Requests  []models.TicketMoneyRequest `json:"requests"`
		Validator validator.Validator         `json:"-"`
	}

	var input analyzeInput
	if err := decodeAndValidate(w, r, &input, h.ErrHandler); err != nil {
		return
	}

	input.Validator.Check(len(input.Requests) > 0, "At least one request is required")
	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	assessments := h.Analyzer.AnalyzePending(input.Requests)

	message := "Pending requests analyzed successfully"
	err := response.JSONOkResponse(w, map[string]any{
		"assessments": assessments,
	}, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
