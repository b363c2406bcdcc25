package execlog

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

// PauseStore is the per-job pause flag.
type PauseStore interface {
	IsPaused(ctx context.Context, job string) (bool, error)
	SetPaused(ctx context.Context, job string, paused bool) error
}

// PauseKeyPrefix prefixes job names in redis.
const PauseKeyPrefix = "jobs:paused:"

// RedisPauseStore keeps pause flags in redis so every instance sees them.
type RedisPauseStore struct {
	client redis.UniversalClient
}

func NewRedisPauseStore(client redis.UniversalClient) *RedisPauseStore {
	return &RedisPauseStore{client: client}
}

func (s *RedisPauseStore) IsPaused(ctx context.Context, job string) (bool, error) {
	n, err := s.client.Exists(ctx, PauseKeyPrefix+job).Result()
	if err != nil {
		return false, errors.Join(ErrFailedToCheckFlag, err)
	}
	return n > 0, nil
}

func (s *RedisPauseStore) SetPaused(ctx context.Context, job string, paused bool) error {
	var err error
	if paused {
		err = s.client.Set(ctx, PauseKeyPrefix+job, "1", 0).Err()
	} else {
		err = s.client.Del(ctx, PauseKeyPrefix+job).Err()
	}
	if err != nil {
		return errors.Join(ErrFailedToSetFlag, err)
	}
	return nil
}

// MemoryPauseStore keeps pause flags in process.
type MemoryPauseStore struct {
	mu     sync.RWMutex
	paused map[string]bool
}

func NewMemoryPauseStore() *MemoryPauseStore {
	return &MemoryPauseStore{paused: make(map[string]bool)}
}

func (s *MemoryPauseStore) IsPaused(_ context.Context, job string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused[job], nil
}

func (s *MemoryPauseStore) SetPaused(_ context.Context, job string, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if paused {
		s.paused[job] = true
	} else {
		delete(s.paused, job)
	}
	return nil
}
