package shared

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryEntry is a line on a customer or supplier activity timeline.
type HistoryEntry struct {
	OrganizationID string
	OperationID    uuid.UUID
	PartyID        uuid.UUID
	Title          string
	Description    string
	UserID         string
	UserName       string
	At             time.Time
}

// HistoryRecorder writes timeline entries into party_history.
type HistoryRecorder struct {
	pool *pgxpool.Pool
}

// NewHistoryRecorder returns a new HistoryRecorder.
func NewHistoryRecorder(pool *pgxpool.Pool) *HistoryRecorder {
	return &HistoryRecorder{pool: pool}
}

// Record persists the entry.
func (h *HistoryRecorder) Record(ctx context.Context, entry HistoryEntry) error {
	if h == nil || h.pool == nil {
		return errors.New("history recorder not initialised")
	}
	if entry.OrganizationID == "" || entry.OperationID == uuid.Nil || entry.Title == "" {
		return errors.New("history entry requires organization/operation/title")
	}
	var at *time.Time
	if !entry.At.IsZero() {
		at = &entry.At
	}
	_, err := h.pool.Exec(ctx, `INSERT INTO party_history (organization_id, operation_id, party_id, title, description, user_id, user_name, occurred_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,COALESCE($8, NOW()))`,
		entry.OrganizationID, entry.OperationID, entry.PartyID, entry.Title, entry.Description, entry.UserID, entry.UserName, at)
	return err
}
