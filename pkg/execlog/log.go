package execlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/condokit/pkg/logger"
)

// Log opens and closes execution log entries.
type Log struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

// LogOption configures a Log.
type LogOption func(*Log)

func WithClock(now func() time.Time) LogOption {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

func WithLogger(lg *slog.Logger) LogOption {
	return func(l *Log) {
		if lg != nil {
			l.logger = lg
		}
	}
}

func NewLog(store Store, opts ...LogOption) *Log {
	l := &Log{store: store, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Begin opens a running entry and returns its id.
func (l *Log) Begin(ctx context.Context, functionName, triggerType string) (uuid.UUID, error) {
	e := Entry{
		ID:           uuid.New(),
		FunctionName: functionName,
		TriggerType:  triggerType,
		Status:       StatusRunning,
		StartedAt:    l.now().UTC(),
	}
	if err := l.store.Insert(ctx, e); err != nil {
		return uuid.Nil, errors.Join(ErrFailedToBegin, err)
	}
	return e.ID, nil
}

// Complete closes the entry with a final status. The result is stored as JSON.
// Closing an entry twice returns ErrAlreadyCompleted.
func (l *Log) Complete(ctx context.Context, id uuid.UUID, status Status, result any, errMsg string) error {
	if !status.Final() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	raw, err := encodeResult(result)
	if err != nil {
		l.logger.LogAttrs(ctx, slog.LevelWarn, "failed to encode job result",
			logger.RunID(id),
			logger.Error(err),
		)
	}

	if err := l.store.Close(ctx, id, status, l.now().UTC(), raw, errMsg); err != nil {
		if errors.Is(err, ErrAlreadyCompleted) || errors.Is(err, ErrEntryNotFound) {
			return err
		}
		return errors.Join(ErrFailedToComplete, err)
	}
	return nil
}

// Skip records a run that did not happen because the job is paused.
func (l *Log) Skip(ctx context.Context, functionName, triggerType string) (uuid.UUID, error) {
	now := l.now().UTC()
	e := Entry{
		ID:           uuid.New(),
		FunctionName: functionName,
		TriggerType:  triggerType,
		Status:       StatusSkipped,
		StartedAt:    now,
		EndedAt:      &now,
		Result:       json.RawMessage(`{"skipped":true}`),
	}
	if err := l.store.Insert(ctx, e); err != nil {
		return uuid.Nil, errors.Join(ErrFailedToBegin, err)
	}
	return e.ID, nil
}

// Recent returns the latest entries of a job, newest first.
func (l *Log) Recent(ctx context.Context, functionName string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	return l.store.Recent(ctx, functionName, limit)
}

// Cleanup deletes entries started before now minus retention.
func (l *Log) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := l.now().UTC().Add(-retention)
	n, err := l.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete execution log entries: %w", err)
	}
	l.logger.LogAttrs(ctx, slog.LevelInfo, "execution log cleaned up",
		slog.Int64("deleted", n),
		slog.Time("before", cutoff),
	)
	return n, nil
}

func encodeResult(result any) (json.RawMessage, error) {
	switch v := result.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return v, nil
	}
	return json.Marshal(result)
}
