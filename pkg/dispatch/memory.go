package dispatch

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/dmitrymomot/condokit/pkg/messaging"
)

// MemoryTemplateStore holds templates in memory.
type MemoryTemplateStore struct {
	mu        sync.RWMutex
	templates map[string]Template
}

func NewMemoryTemplateStore(templates ...Template) *MemoryTemplateStore {
	s := &MemoryTemplateStore{templates: make(map[string]Template, len(templates))}
	for _, t := range templates {
		s.templates[t.Slug] = t
	}
	return s
}

func (s *MemoryTemplateStore) Put(t Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.Slug] = t
}

func (s *MemoryTemplateStore) GetActive(_ context.Context, slug string) (Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[slug]
	if !ok || !t.Active {
		return Template{}, ErrTemplateNotFound
	}
	return t, nil
}

// MemoryAttemptStore is an append-only in-memory attempt log.
type MemoryAttemptStore struct {
	mu       sync.RWMutex
	attempts []Attempt
}

func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{}
}

func (s *MemoryAttemptStore) Append(_ context.Context, a Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, a)
	return nil
}

// Attempts returns a copy of the log in insertion order.
func (s *MemoryAttemptStore) Attempts() []Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.attempts)
}

// StaticConfigSource always returns the same configuration.
// A zero configuration reports ErrNoActiveProvider.
type StaticConfigSource messaging.Config

func (s StaticConfigSource) Active(context.Context) (messaging.Config, error) {
	cfg := messaging.Config(s)
	if cfg.Provider == "" {
		return messaging.Config{}, ErrNoActiveProvider
	}
	return cfg, nil
}

// FallbackConfigSource tries each source in order and returns the first
// active configuration. Errors other than ErrNoActiveProvider stop the search.
type FallbackConfigSource []ProviderConfigSource

func (f FallbackConfigSource) Active(ctx context.Context) (messaging.Config, error) {
	for _, src := range f {
		if src == nil {
			continue
		}
		cfg, err := src.Active(ctx)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, ErrNoActiveProvider) {
			return messaging.Config{}, err
		}
	}
	return messaging.Config{}, ErrNoActiveProvider
}
