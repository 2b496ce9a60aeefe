package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/opsfort/opsledger/internal/errHandler"
	"github.com/opsfort/opsledger/internal/request"
)

// decodeAndValidate reads the JSON body into dst and reports a bad request
// on failure. Callers should return immediately on a non-nil error.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any, eh *errHandler.ErrorHandler) error {
	if err := request.DecodeJSON(w, r, dst); err != nil {
		eh.BadRequest(w, r, err)
		return err
	}
	return nil
}

type queryStringValues struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    string
	Type      string
	Limit     int
	Offset    int
	Page      int
}

func retrieveUrlQueryValues(r *http.Request) *queryStringValues {
	var queryValues = &queryStringValues{}

	// Parse start_date if provided
	startDateStr := r.URL.Query().Get("start_date")
	if startDateStr != "" {
		parsedStart, err := time.Parse("2006-01-02", startDateStr)
		if err == nil {
			queryValues.StartDate = &parsedStart
		}
	}

	// Parse end_date if provided
	endDateStr := r.URL.Query().Get("end_date")
	if endDateStr != "" {
		parsedEnd, err := time.Parse("2006-01-02", endDateStr)
		if err == nil {
			queryValues.EndDate = &parsedEnd
		}
	}

	queryValues.Status = r.URL.Query().Get("status")
	queryValues.Type = r.URL.Query().Get("type")

	// Parse pagination params
	limitStr := r.URL.Query().Get("limit")
	pageStr := r.URL.Query().Get("page")

	// Default pagination values
	page := 1
	limit := 10

	if limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}
	queryValues.Limit = limit

	if pageStr != "" {
		if parsedPage, err := strconv.Atoi(pageStr); err == nil && parsedPage >= 1 {
			page = parsedPage
		}
	}
	queryValues.Page = page
	queryValues.Offset = (page - 1) * limit

	return queryValues
}
