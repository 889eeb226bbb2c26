package documents_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/documents"
	"github.com/odyssey-erp/odyssey-books/internal/documents/documentstest"
	"github.com/odyssey-erp/odyssey-books/internal/pricing"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

func widgetDryRun(t *testing.T) documents.DryRun {
	t.Helper()
	item := documentstest.NewReader().AddItem(documentstest.Widget(10))
	return documents.DryRun{TaxType: "GST", Body: documentstest.WidgetBody(item, "100")}
}

func TestDryRunAccepts(t *testing.T) {
	out, err := widgetDryRun(t).Calculate()
	require.NoError(t, err)
	assert.True(t, out.Accepted)
	assert.Empty(t, out.Findings)
	assert.Equal(t, pricing.TaxModeIntra, out.Summary.TaxMode)
	assert.Equal(t, "212.4", out.Summary.GrandTotal.String())
}

func TestDryRunReportsSingleGrandTotalFinding(t *testing.T) {
	in := widgetDryRun(t)
	in.GrandTotal = documentstest.Dec("300")

	out, err := in.Calculate()
	require.NoError(t, err)
	assert.False(t, out.Accepted)
	require.Len(t, out.Findings, 1)
	assert.Equal(t, "Grand Total is incorrect: 300", out.Findings[0].Message)
}

func TestDryRunUnregisteredSellerChargesNoTax(t *testing.T) {
	in := widgetDryRun(t)
	in.TaxType = ""

	out, err := in.Calculate()
	require.NoError(t, err)
	assert.Equal(t, pricing.TaxModeNone, out.Summary.TaxMode)
	assert.True(t, out.Summary.TotalTaxAmount.IsZero())
	assert.False(t, out.Accepted)
}

func TestDryRunMalformed(t *testing.T) {
	in := widgetDryRun(t)
	in.Items[0].DiscountType = "bogus"
	_, err := in.Calculate()
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = documents.DryRun{}.Calculate()
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDryRunRejectsNegativeFreight(t *testing.T) {
	in := widgetDryRun(t)
	in.FreightAmount = documentstest.Dec("-10")

	out, err := in.Calculate()
	require.NoError(t, err)
	assert.False(t, out.Accepted)
	require.Len(t, out.Findings, 1)
	assert.Equal(t, "Invalid Freight Amount: -10", out.Findings[0].Message)
}

func TestCalculateHandler(t *testing.T) {
	obs := &countingRejections{}
	r := chi.NewRouter()
	documents.NewHandler(obs).MountRoutes(r)

	in := widgetDryRun(t)
	in.GrandTotal = documentstest.Dec("300")
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(in))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/calculate", &buf))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"accepted":false`)
	assert.Contains(t, rec.Body.String(), "Grand Total is incorrect: 300")
	assert.Equal(t, 1, obs.calls)
}
