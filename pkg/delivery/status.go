package delivery

import (
	"strings"
	"time"
)

// Status is the derived display status of an outbound message.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

// Timestamps is the delivery evidence for one outbound message, keyed by the
// provider-issued message id.
type Timestamps struct {
	ProviderMessageID string     `json:"provider_message_id"`
	Provider          string     `json:"provider"`
	SentAt            time.Time  `json:"sent_at"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
	ReadAt            *time.Time `json:"read_at,omitempty"`
	ProviderStatus    string     `json:"provider_status,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Status derives the display status of t.
func (t Timestamps) Status() Status {
	return ResolveStatus(t.SentAt, t.DeliveredAt, t.ReadAt, t.ProviderStatus)
}

// ResolveStatus applies the status precedence; the first matching rule wins.
// Timestamps outrank provider status codes.
func ResolveStatus(sentAt time.Time, deliveredAt, readAt *time.Time, providerStatus string) Status {
	switch {
	case readAt != nil:
		return StatusRead
	case deliveredAt != nil:
		return StatusDelivered
	}
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case string(StatusFailed):
		return StatusFailed
	case string(StatusSent):
		return StatusSent
	}
	return StatusPending
}

// Counts aggregates delivery statuses. Sent and Delivered are cumulative.
type Counts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Sent      int `json:"sent"`
	Delivered int `json:"delivered"`
	Read      int `json:"read"`
	Failed    int `json:"failed"`
}

// Tally counts items by derived status.
func Tally(items []Timestamps) Counts {
	var c Counts
	for _, it := range items {
		c.Total++
		switch it.Status() {
		case StatusRead:
			c.Read++
			c.Delivered++
			c.Sent++
		case StatusDelivered:
			c.Delivered++
			c.Sent++
		case StatusSent:
			c.Sent++
		case StatusFailed:
			c.Failed++
		default:
			c.Pending++
		}
	}
	return c
}
