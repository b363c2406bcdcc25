package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/condokit/pkg/billing"
)

func TestService_ApplyPayment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	start := mustTime(t, "2025-01-10T00:00:00Z")
	now := mustTime(t, "2025-01-12T09:00:00Z")

	setup := func(t *testing.T) (*billing.Service, *billing.MemoryStore, uuid.UUID) {
		t.Helper()
		store := billing.NewMemoryStore()
		res, err := billing.NewGenerator(store).EnsureInvoice(ctx, newRequest(uuid.New(), start))
		require.NoError(t, err)
		svc := billing.NewService(store, billing.WithServiceClock(func() time.Time { return now }))
		return svc, store, res.Invoice.ID
	}

	t.Run("paid sets paid_at", func(t *testing.T) {
		t.Parallel()
		svc, store, id := setup(t)
		occurred := mustTime(t, "2025-01-12T08:30:00Z")

		inv, err := svc.ApplyPayment(ctx, billing.PaymentEvent{InvoiceID: id, Status: billing.InvoicePaid, OccurredAt: occurred})
		require.NoError(t, err)
		assert.Equal(t, billing.InvoicePaid, inv.Status)
		require.NotNil(t, inv.PaidAt)
		assert.True(t, inv.PaidAt.Equal(occurred))

		stored, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, billing.InvoicePaid, stored.Status)
		assert.True(t, stored.UpdatedAt.Equal(now))
	})

	t.Run("repeated event is a no-op", func(t *testing.T) {
		t.Parallel()
		svc, _, id := setup(t)

		_, err := svc.ApplyPayment(ctx, billing.PaymentEvent{InvoiceID: id, Status: billing.InvoicePaid})
		require.NoError(t, err)
		inv, err := svc.ApplyPayment(ctx, billing.PaymentEvent{InvoiceID: id, Status: billing.InvoicePaid})
		require.NoError(t, err)
		assert.Equal(t, billing.InvoicePaid, inv.Status)
	})

	t.Run("paid is terminal", func(t *testing.T) {
		t.Parallel()
		svc, _, id := setup(t)

		_, err := svc.ApplyPayment(ctx, billing.PaymentEvent{InvoiceID: id, Status: billing.InvoicePaid})
		require.NoError(t, err)
		_, err = svc.ApplyPayment(ctx, billing.PaymentEvent{InvoiceID: id, Status: billing.InvoiceFailed})
		require.ErrorIs(t, err, billing.ErrInvalidTransition)
	})

	t.Run("failed can still be paid", func(t *testing.T) {
		t.Parallel()
		svc, _, id := setup(t)

		_, err := svc.ApplyPayment(ctx, billing.PaymentEvent{InvoiceID: id, Status: billing.InvoiceFailed})
		require.NoError(t, err)
		inv, err := svc.ApplyPayment(ctx, billing.PaymentEvent{InvoiceID: id, Status: billing.InvoicePaid})
		require.NoError(t, err)
		assert.Equal(t, billing.InvoicePaid, inv.Status)
		require.NotNil(t, inv.PaidAt)
		assert.True(t, inv.PaidAt.Equal(now))
	})

	t.Run("unknown invoice", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := setup(t)

		_, err := svc.ApplyPayment(ctx, billing.PaymentEvent{InvoiceID: uuid.New(), Status: billing.InvoicePaid})
		require.ErrorIs(t, err, billing.ErrInvoiceNotFound)
	})
}
