package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"pricecatalog/catalog"
	"pricecatalog/services"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ErrorJSON writes {"error": message} with the given status.
func ErrorJSON(e *core.RequestEvent, status int, message string) error {
	return e.JSON(status, errorBody{Error: message})
}

// storeError maps a store failure to a status code and error body.
// Validation failures carry their per-field messages.
func storeError(e *core.RequestEvent, err error) error {
	var cerr *catalog.Error
	switch {
	case errors.As(err, &cerr) && cerr.Kind == catalog.KindValidation:
		return e.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Fields: cerr.Fields})
	case errors.Is(err, services.ErrPriceNotFound):
		return ErrorJSON(e, http.StatusNotFound, "Price record not found")
	default:
		return ErrorJSON(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}

// filterFromQuery reads the search filter from the query string. "all" and
// blank values mean no constraint.
func filterFromQuery(e *core.RequestEvent) catalog.Filter {
	q := e.Request.URL.Query()
	return catalog.Filter{
		Text:     strings.TrimSpace(q.Get("query")),
		Category: q.Get("category"),
		Source:   q.Get("source"),
	}.Normalize()
}
