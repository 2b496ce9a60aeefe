package context

import (
	"context"
	"net/http"

	"github.com/opsfort/opsledger/internal/models"
)

type contextKey string

const (
	authenticatedOperatorContextKey = contextKey("authenticatedOperator")
)

func ContextSetAuthenticatedOperator(r *http.Request, operator *models.Operator) *http.Request {
	ctx := context.WithValue(r.Context(), authenticatedOperatorContextKey, operator)
	return r.WithContext(ctx)
}

func ContextGetAuthenticatedOperator(r *http.Request) *models.Operator {
	operator, ok := r.Context().Value(authenticatedOperatorContextKey).(*models.Operator)
	if !ok {
		return nil
	}

	return operator
}
