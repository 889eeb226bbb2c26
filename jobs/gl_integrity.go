package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/reports"
	jobmetrics "github.com/odyssey-erp/odyssey-books/internal/jobs"
)

// IntegrityScanner lists operations whose debits and credits differ.
type IntegrityScanner interface {
	UnbalancedOperations(ctx context.Context, organizationID string) ([]reports.OperationTotal, error)
}

// ErrLedgerUnbalanced is returned by a scan that found unbalanced operations.
var ErrLedgerUnbalanced = errors.New("ledger integrity: unbalanced operations found")

// LedgerIntegrityJob checks that every posted operation nets to zero.
type LedgerIntegrityJob struct {
	Scanner IntegrityScanner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewLedgerIntegrityJob initialises the integrity scan handler.
func NewLedgerIntegrityJob(scanner IntegrityScanner, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{
		Scanner: scanner,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the scan. Findings fail the task without retry so they
// surface in the queue's archive.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Scanner == nil {
		return errors.New("ledger integrity: handler not configured")
	}
	var payload LedgerIntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	_, err := j.Run(ctx, payload.OrganizationID)
	if errors.Is(err, ErrLedgerUnbalanced) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}

// Run scans once and returns the unbalanced operations it found.
func (j *LedgerIntegrityJob) Run(ctx context.Context, organizationID string) (result []reports.OperationTotal, resultErr error) {
	start := j.now()
	tracker := j.Metrics.Track(TaskLedgerIntegrity)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("organization_id", organizationID))
	logger.Info("starting ledger integrity scan")

	unbalanced, err := j.Scanner.UnbalancedOperations(ctx, organizationID)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return nil, err
	}
	for _, op := range unbalanced {
		logger.Error("unbalanced operation",
			slog.String("operation_id", op.OperationID.String()),
			slog.String("transaction_id", op.TransactionID),
			slog.String("debit", op.Debit.StringFixed(2)),
			slog.String("credit", op.Credit.StringFixed(2)))
	}
	j.Metrics.SetUnbalanced(organizationID, len(unbalanced))
	logger.Info("completed ledger integrity scan",
		slog.Int("unbalanced", len(unbalanced)),
		slog.Duration("duration", j.now().Sub(start)))
	if len(unbalanced) > 0 {
		return unbalanced, ErrLedgerUnbalanced
	}
	return nil, nil
}

func (j *LedgerIntegrityJob) now() time.Time {
	if j.clock == nil {
		return time.Now().UTC()
	}
	return j.clock()
}

func (j *LedgerIntegrityJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
