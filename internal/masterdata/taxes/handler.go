package taxes

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Handler exposes tax setup endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers tax routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/taxes", h.Get)
	r.Post("/taxes", h.Add)
	r.Put("/taxes/rates/{id}", h.EditRate)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: organization required", shared.ErrValidation))
		return
	}
	rec, err := h.service.Get(r.Context(), id.OrganizationID)
	if err != nil {
		h.logger.Error("get tax record", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: organization required", shared.ErrValidation))
		return
	}
	var in AddTaxInput
	if err := httpx.DecodeAndValidate(r, h.validate, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rec, err := h.service.AddTax(r.Context(), id, in)
	if err != nil {
		h.logger.Warn("add tax", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Tax record updated successfully", "updatedTaxRecord": rec})
}

func (h *Handler) EditRate(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: organization required", shared.ErrValidation))
		return
	}
	rateID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid tax rate id", shared.ErrValidation))
		return
	}
	var in EditRateInput
	if err := httpx.DecodeAndValidate(r, h.validate, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.EditRate(r.Context(), id, rateID, in)
	if err != nil {
		h.logger.Warn("edit tax rate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Tax rate updated successfully", "result": res})
}
