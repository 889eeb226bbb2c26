package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity scans the trial balance for unbalanced operations.
	TaskLedgerIntegrity = "ledger:integrity"
)

// LedgerIntegrityPayload scopes a scan. An empty organization scans all of them.
type LedgerIntegrityPayload struct {
	OrganizationID string `json:"organizationId,omitempty"`
}

// NewLedgerIntegrityTask constructs an Asynq task.
func NewLedgerIntegrityTask(organizationID string) (*asynq.Task, error) {
	data, err := json.Marshal(LedgerIntegrityPayload{OrganizationID: organizationID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, data), nil
}
