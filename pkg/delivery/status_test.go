package delivery_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/condokit/pkg/delivery"
)

func ptr(t time.Time) *time.Time { return &t }

func TestResolveStatus(t *testing.T) {
	t.Parallel()

	sent := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	later := sent.Add(time.Minute)

	tests := []struct {
		name        string
		deliveredAt *time.Time
		readAt      *time.Time
		status      string
		want        delivery.Status
	}{
		{"read wins over everything", ptr(later), ptr(later), "failed", delivery.StatusRead},
		{"read without delivered", nil, ptr(later), "", delivery.StatusRead},
		{"delivered wins over failed code", ptr(later), nil, "failed", delivery.StatusDelivered},
		{"failed code", nil, nil, "failed", delivery.StatusFailed},
		{"sent code", nil, nil, "sent", delivery.StatusSent},
		{"codes are case-insensitive", nil, nil, " SENT ", delivery.StatusSent},
		{"unknown code", nil, nil, "queued", delivery.StatusPending},
		{"no evidence", nil, nil, "", delivery.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, delivery.ResolveStatus(sent, tt.deliveredAt, tt.readAt, tt.status))
		})
	}
}

func TestTally(t *testing.T) {
	t.Parallel()

	now := time.Now()
	items := []delivery.Timestamps{
		{ProviderMessageID: "read-only", SentAt: now, ReadAt: ptr(now)},
		{ProviderMessageID: "delivered", SentAt: now, DeliveredAt: ptr(now)},
		{ProviderMessageID: "sent", SentAt: now, ProviderStatus: "sent"},
		{ProviderMessageID: "failed", SentAt: now, ProviderStatus: "failed"},
		{ProviderMessageID: "pending", SentAt: now},
	}

	got := delivery.Tally(items)

	assert.Equal(t, delivery.Counts{
		Total:     5,
		Pending:   1,
		Sent:      3,
		Delivered: 2,
		Read:      1,
		Failed:    1,
	}, got)
}

func TestTally_ReadCountsTowardDeliveredAndSent(t *testing.T) {
	t.Parallel()

	now := time.Now()
	got := delivery.Tally([]delivery.Timestamps{{SentAt: now, ReadAt: ptr(now)}})

	assert.Equal(t, 1, got.Read)
	assert.Equal(t, 1, got.Delivered)
	assert.Equal(t, 1, got.Sent)
	assert.Zero(t, got.Pending)
}
