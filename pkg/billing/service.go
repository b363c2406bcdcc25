package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/condokit/pkg/logger"
)

// Service applies gateway payment events to invoices.
type Service struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyPayment moves the invoice to ev.Status. Only open invoices change;
// repeating an event for an invoice already in that status is a no-op, and
// paid or cancelled invoices reject any other status with ErrInvalidTransition.
func (s *Service) ApplyPayment(ctx context.Context, ev PaymentEvent) (Invoice, error) {
	inv, err := s.store.GetByID(ctx, ev.InvoiceID)
	if err != nil {
		return Invoice{}, err
	}
	if inv.Status == ev.Status {
		return inv, nil
	}
	if !canTransition(inv.Status, ev.Status) {
		return inv, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, ev.Status)
	}

	now := s.now().UTC()
	var paidAt *time.Time
	if ev.Status == InvoicePaid {
		at := ev.OccurredAt
		if at.IsZero() {
			at = now
		}
		at = at.UTC()
		paidAt = &at
	}

	if err := s.store.UpdateStatus(ctx, inv.ID, ev.Status, paidAt, now); err != nil {
		return inv, errors.Join(ErrFailedToUpdateInvoice, err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "invoice status updated",
		logger.InvoiceID(inv.ID),
		logger.SubscriptionID(inv.SubscriptionID),
		slog.String("from", string(inv.Status)),
		slog.String("to", string(ev.Status)),
		logger.Event(ev.EventType),
	)

	inv.Status = ev.Status
	inv.PaidAt = paidAt
	inv.UpdatedAt = now
	return inv, nil
}

func canTransition(from, to InvoiceStatus) bool {
	switch from {
	case InvoicePending, InvoiceOverdue:
		return to == InvoicePaid || to == InvoiceFailed || to == InvoiceCancelled || to == InvoiceOverdue
	case InvoiceFailed:
		// a failed charge can be retried by the customer
		return to == InvoicePaid || to == InvoiceCancelled
	}
	return false
}
