package billing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists invoices. Create must fail with ErrInvoiceExists when an
// invoice for the same subscription and period start already exists.
type Store interface {
	GetByPeriod(ctx context.Context, subscriptionID uuid.UUID, periodStart time.Time) (Invoice, error)
	GetByID(ctx context.Context, id uuid.UUID) (Invoice, error)
	Create(ctx context.Context, inv Invoice) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus, paidAt *time.Time, updatedAt time.Time) error
}

type periodKey struct {
	subscriptionID uuid.UUID
	periodStart    int64
}

func keyOf(subscriptionID uuid.UUID, periodStart time.Time) periodKey {
	return periodKey{subscriptionID: subscriptionID, periodStart: periodStart.UTC().Unix()}
}

// MemoryStore is an in-process Store with the same uniqueness guarantee as the
// database table.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]Invoice
	byPeriod map[periodKey]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[uuid.UUID]Invoice),
		byPeriod: make(map[periodKey]uuid.UUID),
	}
}

func (s *MemoryStore) GetByPeriod(_ context.Context, subscriptionID uuid.UUID, periodStart time.Time) (Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPeriod[keyOf(subscriptionID, periodStart)]
	if !ok {
		return Invoice{}, ErrInvoiceNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.byID[id]
	if !ok {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

func (s *MemoryStore) Create(_ context.Context, inv Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := keyOf(inv.SubscriptionID, inv.PeriodStart)
	if _, ok := s.byPeriod[k]; ok {
		return ErrInvoiceExists
	}
	s.byID[inv.ID] = inv
	s.byPeriod[k] = inv.ID
	return nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, status InvoiceStatus, paidAt *time.Time, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.byID[id]
	if !ok {
		return ErrInvoiceNotFound
	}
	inv.Status = status
	inv.PaidAt = paidAt
	inv.UpdatedAt = updatedAt
	s.byID[id] = inv
	return nil
}

// All returns every stored invoice.
func (s *MemoryStore) All() []Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Invoice, 0, len(s.byID))
	for _, inv := range s.byID {
		out = append(out, inv)
	}
	return out
}
