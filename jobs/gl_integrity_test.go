package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/reports"
	jobmetrics "github.com/odyssey-erp/odyssey-books/internal/jobs"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

type stubScanner struct {
	result []reports.OperationTotal
	err    error
	orgs   []string
}

func (s *stubScanner) UnbalancedOperations(_ context.Context, organizationID string) ([]reports.OperationTotal, error) {
	s.orgs = append(s.orgs, organizationID)
	return s.result, s.err
}

func unbalancedOp() reports.OperationTotal {
	return reports.OperationTotal{
		OrganizationID: "org-1",
		OperationID:    uuid.New(),
		TransactionID:  "INV-7",
		Debit:          decimal.RequireFromString("100"),
		Credit:         decimal.RequireFromString("99.99"),
	}
}

func TestLedgerIntegrityRunClean(t *testing.T) {
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	scanner := &stubScanner{}
	job := NewLedgerIntegrityJob(scanner, nil, metrics)

	found, err := job.Run(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Equal(t, []string{"org-1"}, scanner.orgs)
}

func TestLedgerIntegrityRunReportsUnbalanced(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	scanner := &stubScanner{result: []reports.OperationTotal{unbalancedOp()}}
	job := NewLedgerIntegrityJob(scanner, nil, metrics)

	found, err := job.Run(context.Background(), "")
	require.ErrorIs(t, err, ErrLedgerUnbalanced)
	require.Len(t, found, 1)
	assert.Equal(t, "INV-7", found[0].TransactionID)

	count, err := testutil.GatherAndCount(reg, "odyssey_ledger_unbalanced_operations")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLedgerIntegrityRunScannerError(t *testing.T) {
	boom := errors.New("connection reset")
	job := NewLedgerIntegrityJob(&stubScanner{err: boom}, nil, nil)

	_, err := job.Run(context.Background(), "org-1")
	require.ErrorIs(t, err, boom)
}

func TestLedgerIntegrityHandle(t *testing.T) {
	scanner := &stubScanner{result: []reports.OperationTotal{unbalancedOp()}}
	job := NewLedgerIntegrityJob(scanner, nil, nil)

	task, err := NewLedgerIntegrityTask("org-9")
	require.NoError(t, err)
	assert.Equal(t, TaskLedgerIntegrity, task.Type())

	var payload LedgerIntegrityPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "org-9", payload.OrganizationID)

	err = job.Handle(context.Background(), task)
	require.ErrorIs(t, err, ErrLedgerUnbalanced)
	require.ErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, []string{"org-9"}, scanner.orgs)
}

func TestLedgerIntegrityHandleBadPayload(t *testing.T) {
	scanner := &stubScanner{}
	job := NewLedgerIntegrityJob(scanner, nil, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskLedgerIntegrity, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, scanner.orgs)
}

func TestLedgerIntegrityHandleUnconfigured(t *testing.T) {
	var job *LedgerIntegrityJob
	require.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskLedgerIntegrity, nil)))
}

type stubEnqueuer struct {
	orgs []string
	err  error
}

func (s *stubEnqueuer) EnqueueLedgerIntegrity(_ context.Context, organizationID string) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.orgs = append(s.orgs, organizationID)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func jobsRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestHandlerHealthWithoutInspector(t *testing.T) {
	rec := httptest.NewRecorder()
	jobsRouter(NewHandler(nil, nil, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0}`, rec.Body.String())
}

func TestHandlerEnqueueLedgerIntegrity(t *testing.T) {
	enq := &stubEnqueuer{}
	router := jobsRouter(NewHandler(nil, enq, nil))

	req := httptest.NewRequest(http.MethodPost, "/ledger-integrity", nil)
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), shared.Identity{OrganizationID: "org-3", UserID: "u-1"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"taskId":"task-1","queue":"default"}`, rec.Body.String())
	assert.Equal(t, []string{"org-3"}, enq.orgs)
}

func TestHandlerEnqueueRequiresQueue(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/ledger-integrity", nil)
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), shared.Identity{OrganizationID: "org-3", UserID: "u-1"}))
	rec := httptest.NewRecorder()
	jobsRouter(NewHandler(nil, nil, nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
