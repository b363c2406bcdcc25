package execlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status of a job run.
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Final reports whether s closes a run.
func (s Status) Final() bool {
	switch s {
	case StatusSuccess, StatusPartial, StatusError, StatusSkipped:
		return true
	}
	return false
}

// Trigger types.
const (
	TriggerCron   = "cron"
	TriggerManual = "manual"
)

// Entry is one job run.
type Entry struct {
	ID           uuid.UUID       `json:"id"`
	FunctionName string          `json:"function_name"`
	TriggerType  string          `json:"trigger_type"`
	Status       Status          `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	EndedAt      *time.Time      `json:"ended_at,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// Store persists entries. Close must return ErrAlreadyCompleted when the entry
// is no longer running and ErrEntryNotFound when it does not exist.
type Store interface {
	Insert(ctx context.Context, e Entry) error
	Close(ctx context.Context, id uuid.UUID, status Status, endedAt time.Time, result json.RawMessage, errMsg string) error
	Recent(ctx context.Context, functionName string, limit int) ([]Entry, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
