package delivery

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// Store persists delivery timestamps.
type Store interface {
	Create(ctx context.Context, ts Timestamps) error
	GetByMessageID(ctx context.Context, providerMessageID string) (Timestamps, error)
	Update(ctx context.Context, ts Timestamps) error
	ListSince(ctx context.Context, since time.Time) ([]Timestamps, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Timestamps
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Timestamps)}
}

func (s *MemoryStore) Create(_ context.Context, ts Timestamps) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[ts.ProviderMessageID]; ok {
		return ErrAlreadyExists
	}
	s.items[ts.ProviderMessageID] = clone(ts)
	return nil
}

func (s *MemoryStore) GetByMessageID(_ context.Context, id string) (Timestamps, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.items[id]
	if !ok {
		return Timestamps{}, ErrNotFound
	}
	return clone(ts), nil
}

func (s *MemoryStore) Update(_ context.Context, ts Timestamps) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[ts.ProviderMessageID]; !ok {
		return ErrNotFound
	}
	s.items[ts.ProviderMessageID] = clone(ts)
	return nil
}

func (s *MemoryStore) ListSince(_ context.Context, since time.Time) ([]Timestamps, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Timestamps, 0, len(s.items))
	for _, id := range slices.Sorted(maps.Keys(s.items)) {
		ts := s.items[id]
		if ts.SentAt.Before(since) {
			continue
		}
		out = append(out, clone(ts))
	}
	return out, nil
}

func clone(ts Timestamps) Timestamps {
	if ts.DeliveredAt != nil {
		d := *ts.DeliveredAt
		ts.DeliveredAt = &d
	}
	if ts.ReadAt != nil {
		r := *ts.ReadAt
		ts.ReadAt = &r
	}
	return ts
}
