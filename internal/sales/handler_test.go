package sales

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

func serve(t *testing.T, f *salesFixture, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(nil, f.svc, f.repo, validator.New()).MountRoutes(r)
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), clerk))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateThenJournal(t *testing.T) {
	f := newSalesFixture(t)

	rec := serve(t, f, http.MethodPost, "/sales-invoices", f.input(2))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Invoice Invoice `json:"savedSalesInvoice"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = serve(t, f, http.MethodGet, "/sales-invoices/"+created.Invoice.ID.String()+"/journal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []accounting.JournalEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 4)

	rec = serve(t, f, http.MethodGet, "/sales-invoices/"+uuid.NewString()+"/journal", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerUpdateNumberMismatch(t *testing.T) {
	f := newSalesFixture(t)
	created, err := f.svc.CreateInvoice(t.Context(), clerk, f.input(2))
	require.NoError(t, err)

	in := f.input(2)
	in.SalesInvoice = "INV-7"
	rec := serve(t, f, http.MethodPut, "/sales-invoices/"+created.ID.String(), in)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Expected: INV-1")
}

func TestHandlerRequiresCustomer(t *testing.T) {
	f := newSalesFixture(t)
	in := f.input(2)
	in.CustomerID = uuid.Nil

	rec := serve(t, f, http.MethodPost, "/sales-invoices", in)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.repo.invoices)
}
