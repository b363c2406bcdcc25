package lifecycle

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps subscriptions in memory, ordered by insertion.
type MemoryStore struct {
	mu    sync.RWMutex
	order []uuid.UUID
	subs  map[uuid.UUID]Subscription
}

func NewMemoryStore(subs ...Subscription) *MemoryStore {
	s := &MemoryStore{subs: make(map[uuid.UUID]Subscription, len(subs))}
	for _, sub := range subs {
		s.Put(sub)
	}
	return s
}

// Put inserts or replaces a subscription.
func (s *MemoryStore) Put(sub Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub.ID]; !ok {
		s.order = append(s.order, sub.ID)
	}
	s.subs[sub.ID] = cloneSubscription(sub)
}

// Get returns a subscription by id.
func (s *MemoryStore) Get(id uuid.UUID) (Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[id]
	return cloneSubscription(sub), ok
}

func (s *MemoryStore) ListActive(context.Context) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Subscription, 0, len(s.order))
	for _, id := range s.order {
		if sub := s.subs[id]; sub.Active {
			out = append(out, cloneSubscription(sub))
		}
	}
	return out, nil
}

func (s *MemoryStore) SavePeriod(_ context.Context, sub Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub.ID]; !ok {
		return ErrSubscriptionNotFound
	}
	s.subs[sub.ID] = cloneSubscription(sub)
	return nil
}

func cloneSubscription(sub Subscription) Subscription {
	if sub.TrialEndsAt != nil {
		t := *sub.TrialEndsAt
		sub.TrialEndsAt = &t
	}
	if sub.CurrentPeriodStart != nil {
		t := *sub.CurrentPeriodStart
		sub.CurrentPeriodStart = &t
	}
	if sub.CurrentPeriodEnd != nil {
		t := *sub.CurrentPeriodEnd
		sub.CurrentPeriodEnd = &t
	}
	sub.UsageCounters = maps.Clone(sub.UsageCounters)
	return sub
}

// StaticContacts resolves owner contacts from a fixed map.
type StaticContacts map[uuid.UUID]Contact

func (c StaticContacts) OwnerContact(_ context.Context, tenantID uuid.UUID) (Contact, error) {
	contact, ok := c[tenantID]
	if !ok {
		return Contact{}, ErrContactNotFound
	}
	return contact, nil
}
