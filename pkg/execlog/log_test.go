package execlog_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/condokit/pkg/execlog"
)

func TestLog_BeginComplete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := execlog.NewMemoryStore()
	log := execlog.NewLog(store)

	id, err := log.Begin(ctx, "billing-cycle", execlog.TriggerManual)
	require.NoError(t, err)

	entries := store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, execlog.StatusRunning, entries[0].Status)
	assert.Nil(t, entries[0].EndedAt)

	require.NoError(t, log.Complete(ctx, id, execlog.StatusSuccess, map[string]int{"processed": 3}, ""))

	entries = store.Entries()
	assert.Equal(t, execlog.StatusSuccess, entries[0].Status)
	require.NotNil(t, entries[0].EndedAt)
	assert.JSONEq(t, `{"processed":3}`, string(entries[0].Result))

	err = log.Complete(ctx, id, execlog.StatusError, nil, "again")
	require.ErrorIs(t, err, execlog.ErrAlreadyCompleted)
	assert.Equal(t, execlog.StatusSuccess, store.Entries()[0].Status)
}

func TestLog_CompleteValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := execlog.NewLog(execlog.NewMemoryStore())

	require.ErrorIs(t, log.Complete(ctx, uuid.New(), execlog.StatusRunning, nil, ""), execlog.ErrInvalidStatus)
	require.ErrorIs(t, log.Complete(ctx, uuid.New(), execlog.StatusSuccess, nil, ""), execlog.ErrEntryNotFound)
}

func TestLog_Skip(t *testing.T) {
	t.Parallel()

	store := execlog.NewMemoryStore()
	_, err := execlog.NewLog(store).Skip(context.Background(), "billing-cycle", execlog.TriggerCron)
	require.NoError(t, err)

	entries := store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, execlog.StatusSkipped, entries[0].Status)
	assert.NotNil(t, entries[0].EndedAt)
	assert.JSONEq(t, `{"skipped":true}`, string(entries[0].Result))
}

func TestLog_CleanupAndRecent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	store := execlog.NewMemoryStore()
	require.NoError(t, store.Insert(ctx, execlog.Entry{ID: uuid.New(), FunctionName: "billing-cycle", Status: execlog.StatusSuccess, StartedAt: now.AddDate(0, 0, -100)}))
	require.NoError(t, store.Insert(ctx, execlog.Entry{ID: uuid.New(), FunctionName: "stuck", Status: execlog.StatusRunning, StartedAt: now.AddDate(0, 0, -200)}))
	require.NoError(t, store.Insert(ctx, execlog.Entry{ID: uuid.New(), FunctionName: "billing-cycle", StartedAt: now.AddDate(0, 0, -10)}))
	require.NoError(t, store.Insert(ctx, execlog.Entry{ID: uuid.New(), FunctionName: "other", StartedAt: now.AddDate(0, 0, -1)}))

	log := execlog.NewLog(store, execlog.WithClock(func() time.Time { return now }))

	n, err := log.Cleanup(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	recent, err := log.Recent(ctx, "billing-cycle", 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.True(t, recent[0].StartedAt.Equal(now.AddDate(0, 0, -10)))

	all, err := log.Recent(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3, "running entries survive cleanup")
	assert.Equal(t, "other", all[0].FunctionName)
}

func TestLog_CompleteRawResult(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := execlog.NewMemoryStore()
	log := execlog.NewLog(store)

	id, err := log.Begin(ctx, "job", execlog.TriggerManual)
	require.NoError(t, err)
	require.NoError(t, log.Complete(ctx, id, execlog.StatusSuccess, json.RawMessage(`{"a":1}`), ""))
	assert.JSONEq(t, `{"a":1}`, string(store.Entries()[0].Result))
}
