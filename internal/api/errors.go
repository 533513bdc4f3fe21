package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jmahler/bugtrack/internal/store"
	"github.com/jmahler/bugtrack/internal/validate"
)

// errorBody is the wire shape of every failure response.
type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// classify maps any failure reaching the handler boundary onto the response
// taxonomy. The mapping is total: whatever does not match a known kind
// becomes a generic 500 so internal detail never leaks to the client.
func classify(err error) (int, errorBody) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorBody{Error: "Validation Error", Details: verr.Details}
	case errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest, errorBody{Error: "Invalid ID format"}
	case errors.Is(err, store.ErrInvalidEnum):
		return http.StatusBadRequest, errorBody{Error: "Validation Error"}
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "Bug not found"}
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusBadRequest, errorBody{Error: "Duplicate field value entered"}
	default:
		return http.StatusInternalServerError, errorBody{Error: "Internal Server Error"}
	}
}

// fail classifies err and writes the response, logging anything that fell
// through to the generic 500.
func fail(w http.ResponseWriter, err error) {
	status, body := classify(err)
	if status == http.StatusInternalServerError {
		slog.Error("unclassified request failure", "error", err)
	}
	writeJSON(w, status, body)
}
