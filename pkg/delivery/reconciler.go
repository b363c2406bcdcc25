package delivery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/condokit/pkg/logger"
)

// Reconciler applies provider status callbacks to stored timestamps.
type Reconciler struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithLogger sets the logger used for reconciliation diagnostics.
func WithLogger(l *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides the time source used when an event carries no timestamp.
func WithClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

func NewReconciler(store Store, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply moves the timestamps of ev's message forward. Timestamps are never
// cleared or moved back, and a read event back-fills delivered_at.
// Returns ErrNotFound when no message matches the provider id.
func (r *Reconciler) Apply(ctx context.Context, ev Event) (Timestamps, error) {
	ts, err := r.store.GetByMessageID(ctx, ev.ProviderMessageID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Timestamps{}, err
		}
		return Timestamps{}, errors.Join(ErrFailedToReconcile, err)
	}

	at := ev.At
	if at.IsZero() {
		at = r.now().UTC()
	}

	before := ts.Status()
	if !advance(&ts, ev.Kind, at) {
		return ts, nil
	}
	ts.UpdatedAt = r.now().UTC()

	if err := r.store.Update(ctx, ts); err != nil {
		return Timestamps{}, errors.Join(ErrFailedToReconcile, err)
	}

	r.logger.LogAttrs(ctx, slog.LevelDebug, "delivery status reconciled",
		logger.MessageID(ts.ProviderMessageID),
		logger.Provider(ts.Provider),
		logger.Event(string(ev.Kind)),
		slog.String("from", string(before)),
		slog.String("to", string(ts.Status())),
	)
	return ts, nil
}

// advance mutates ts for the event and reports whether anything changed.
func advance(ts *Timestamps, kind EventKind, at time.Time) bool {
	changed := false
	switch kind {
	case EventRead:
		if ts.ReadAt == nil {
			ts.ReadAt = &at
			changed = true
		}
		if ts.DeliveredAt == nil {
			ts.DeliveredAt = &at
			changed = true
		}
	case EventDelivered:
		if ts.DeliveredAt == nil {
			ts.DeliveredAt = &at
			changed = true
		}
	}

	if rank(kind) > rank(EventKind(ts.ProviderStatus)) {
		ts.ProviderStatus = string(kind)
		changed = true
	}
	return changed
}

// rank orders provider statuses so a late "sent" never overwrites "read".
func rank(k EventKind) int {
	switch k {
	case EventSent:
		return 1
	case EventFailed:
		return 2
	case EventDelivered:
		return 3
	case EventRead:
		return 4
	default:
		return 0
	}
}
