// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/odyssey-books/internal/reconcile"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// RejectionBody is returned when a document fails reconciliation.
type RejectionBody struct {
	Message  string              `json:"message"`
	Findings []reconcile.Finding `json:"findings"`
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	if report, ok := reconcile.AsReport(err); ok {
		RespondReport(w, report)
		return
	}
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// RespondReport renders every finding of a rejected document.
func RespondReport(w http.ResponseWriter, report *reconcile.Report) {
	JSON(w, http.StatusBadRequest, RejectionBody{
		Message:  report.String(),
		Findings: report.Findings(),
	})
}
