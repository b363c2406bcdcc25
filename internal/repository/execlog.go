package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/condokit/pkg/execlog"
)

// ExecutionLogs implements execlog.Store.
type ExecutionLogs struct {
	db DB
}

func NewExecutionLogs(db DB) *ExecutionLogs {
	return &ExecutionLogs{db: db}
}

func (r *ExecutionLogs) Insert(ctx context.Context, e execlog.Entry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO execution_logs (id, function_name, trigger_type, status, started_at, ended_at, result, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.FunctionName, e.TriggerType, string(e.Status), e.StartedAt, e.EndedAt,
		rawJSON(e.Result), nullString(e.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("insert execution log: %w", err)
	}
	return nil
}

// Close finalizes a running entry. The status guard in the UPDATE makes a
// second Close a no-op that is reported as execlog.ErrAlreadyCompleted.
func (r *ExecutionLogs) Close(ctx context.Context, id uuid.UUID, status execlog.Status, endedAt time.Time, result json.RawMessage, errMsg string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE execution_logs
		SET status = $2, ended_at = $3, result = $4, error = $5
		WHERE id = $1 AND status = 'running'`,
		id, string(status), endedAt, rawJSON(result), nullString(errMsg),
	)
	if err != nil {
		return fmt.Errorf("close execution log: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current string
	if err := r.db.QueryRow(ctx, `SELECT status FROM execution_logs WHERE id = $1`, id).Scan(&current); err != nil {
		if isNoRows(err) {
			return execlog.ErrEntryNotFound
		}
		return fmt.Errorf("check execution log: %w", err)
	}
	return execlog.ErrAlreadyCompleted
}

func (r *ExecutionLogs) Recent(ctx context.Context, functionName string, limit int) ([]execlog.Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, function_name, trigger_type, status, started_at, ended_at, result, error
		FROM execution_logs
		WHERE $1 = '' OR function_name = $1
		ORDER BY started_at DESC
		LIMIT $2`,
		functionName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list execution logs: %w", err)
	}
	defer rows.Close()

	var out []execlog.Entry
	for rows.Next() {
		var (
			e      execlog.Entry
			status string
			result []byte
			errMsg *string
		)
		if err := rows.Scan(&e.ID, &e.FunctionName, &e.TriggerType, &status, &e.StartedAt, &e.EndedAt, &result, &errMsg); err != nil {
			return nil, fmt.Errorf("scan execution log: %w", err)
		}
		e.Status = execlog.Status(status)
		if len(result) > 0 {
			e.Result = json.RawMessage(result)
		}
		e.ErrorMessage = derefString(errMsg)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate execution logs: %w", err)
	}
	return out, nil
}

func (r *ExecutionLogs) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM execution_logs WHERE started_at < $1 AND status <> 'running'`, before,
	)
	if err != nil {
		return 0, fmt.Errorf("delete execution logs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// rawJSON maps an empty payload to SQL NULL.
func rawJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
