package execlog

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *MemoryStore) Close(_ context.Context, id uuid.UUID, status Status, endedAt time.Time, result json.RawMessage, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID != id {
			continue
		}
		if s.entries[i].Status != StatusRunning {
			return ErrAlreadyCompleted
		}
		s.entries[i].Status = status
		s.entries[i].EndedAt = &endedAt
		s.entries[i].Result = result
		s.entries[i].ErrorMessage = errMsg
		return nil
	}
	return ErrEntryNotFound
}

func (s *MemoryStore) Recent(_ context.Context, functionName string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if functionName == "" || s.entries[i].FunctionName == functionName {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

func (s *MemoryStore) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = slices.DeleteFunc(s.entries, func(e Entry) bool {
		return e.Status != StatusRunning && e.StartedAt.Before(before)
	})
	return int64(n - len(s.entries)), nil
}

// Entries returns a copy of all entries in insertion order.
func (s *MemoryStore) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}
