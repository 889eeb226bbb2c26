package documents

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
)

// Handler serves the calculation dry run.
type Handler struct {
	observer RejectionObserver
}

// NewHandler builds the handler. observer may be nil.
func NewHandler(observer RejectionObserver) *Handler {
	return &Handler{observer: observer}
}

// MountRoutes registers the calculate route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/calculate", h.calculate)
}

// calculate answers 200 whether or not the figures reconcile; findings are in
// the body.
func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	var in DryRun
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := in.Calculate()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !out.Accepted && h.observer != nil {
		h.observer.ObserveRejection("dry_run", len(out.Findings))
	}
	httpx.JSON(w, http.StatusOK, out)
}
