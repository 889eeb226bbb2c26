package ar

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// JournalReader lists the ledger rows of an operation.
type JournalReader interface {
	OperationJournal(ctx context.Context, organizationID string, operationID uuid.UUID) ([]accounting.JournalEntry, error)
}

// Handler exposes receipt endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	journals JournalReader
	validate *validator.Validate
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service, journals JournalReader, validate *validator.Validate) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, journals: journals, validate: validate}
}

// MountRoutes registers receipt routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/receipts", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.add)
		r.Get("/aging", h.aging)
		r.Get("/{id}", h.get)
		r.Get("/{id}/journal", h.journal)
	})
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.RequireIdentity(w, r)
	if !ok {
		return
	}
	var in ReceiptInput
	if err := httpx.DecodeAndValidate(r, h.validate, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rc, err := h.service.AddReceipt(r.Context(), id, in)
	if err != nil {
		h.logger.Warn("add receipt", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"message": "Receipt added successfully", "savedReceipt": rc})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.RequireIdentity(w, r)
	if !ok {
		return
	}
	receipts, err := h.service.ListReceipts(r.Context(), id.OrganizationID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipts)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.RequireIdentity(w, r)
	if !ok {
		return
	}
	receiptID, err := httpx.URLUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rc, err := h.service.GetReceipt(r.Context(), id.OrganizationID, receiptID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rc)
}

func (h *Handler) journal(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.RequireIdentity(w, r)
	if !ok {
		return
	}
	receiptID, err := httpx.URLUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entries, err := h.journals.OperationJournal(r.Context(), id.OrganizationID, receiptID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

// aging accepts an optional asOf=YYYY-MM-DD query parameter.
func (h *Handler) aging(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.RequireIdentity(w, r)
	if !ok {
		return
	}
	var asOf time.Time
	if raw := r.URL.Query().Get("asOf"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			httpx.RespondError(w, shared.ErrValidation)
			return
		}
		asOf = parsed
	}
	bucket, err := h.service.CalculateAging(r.Context(), id.OrganizationID, asOf)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"aging": bucket, "total": bucket.Total()})
}
