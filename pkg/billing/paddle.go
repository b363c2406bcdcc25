package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
	"github.com/google/uuid"
)

// SignatureHeader carries the gateway's webhook signature.
const SignatureHeader = "Paddle-Signature"

// PaymentEvent is a verified invoice status change reported by the gateway.
type PaymentEvent struct {
	EventID       string
	EventType     string
	InvoiceID     uuid.UUID
	Status        InvoiceStatus
	TransactionID string
	OccurredAt    time.Time
}

// RequestVerifier checks the signature of an inbound webhook request.
// *paddle.WebhookVerifier satisfies it.
type RequestVerifier interface {
	Verify(req *http.Request) (bool, error)
}

// PaddleCallback verifies and decodes Paddle transaction webhooks.
type PaddleCallback struct {
	verifier RequestVerifier
}

// PaddleOption configures a PaddleCallback.
type PaddleOption func(*PaddleCallback)

// WithVerifier replaces the signature verifier.
func WithVerifier(v RequestVerifier) PaddleOption {
	return func(c *PaddleCallback) {
		if v != nil {
			c.verifier = v
		}
	}
}

// NewPaddleCallback creates a callback parser for the given webhook secret.
func NewPaddleCallback(secret string, opts ...PaddleOption) (*PaddleCallback, error) {
	c := &PaddleCallback{}
	for _, opt := range opts {
		opt(c)
	}
	if c.verifier == nil {
		if secret == "" {
			return nil, ErrMissingSecret
		}
		c.verifier = paddle.NewWebhookVerifier(secret)
	}
	return c, nil
}

var paddleStatuses = map[string]InvoiceStatus{
	"transaction.completed":      InvoicePaid,
	"transaction.paid":           InvoicePaid,
	"transaction.payment_failed": InvoiceFailed,
	"transaction.canceled":       InvoiceCancelled,
	"transaction.past_due":       InvoiceOverdue,
}

// Parse verifies signature over payload and maps the event to an invoice status.
// The invoice id is read from the transaction's custom_data.invoice_id.
func (c *PaddleCallback) Parse(ctx context.Context, payload []byte, signature string) (PaymentEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhooks/payments", bytes.NewReader(payload))
	if err != nil {
		return PaymentEvent{}, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set(SignatureHeader, signature)

	valid, err := c.verifier.Verify(req)
	if err != nil {
		return PaymentEvent{}, errors.Join(ErrInvalidSignature, err)
	}
	if !valid {
		return PaymentEvent{}, ErrInvalidSignature
	}

	var event struct {
		EventID    string    `json:"event_id"`
		EventType  string    `json:"event_type"`
		OccurredAt time.Time `json:"occurred_at"`
		Data       struct {
			ID         string         `json:"id"`
			CustomData map[string]any `json:"custom_data"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return PaymentEvent{}, errors.Join(ErrInvalidCallback, err)
	}

	status, ok := paddleStatuses[event.EventType]
	if !ok {
		return PaymentEvent{}, fmt.Errorf("%w: %s", ErrUnsupportedCallback, event.EventType)
	}

	raw, _ := event.Data.CustomData["invoice_id"].(string)
	if raw == "" {
		return PaymentEvent{}, ErrMissingInvoiceID
	}
	invoiceID, err := uuid.Parse(raw)
	if err != nil {
		return PaymentEvent{}, fmt.Errorf("%w: %w", ErrMissingInvoiceID, err)
	}

	return PaymentEvent{
		EventID:       event.EventID,
		EventType:     event.EventType,
		InvoiceID:     invoiceID,
		Status:        status,
		TransactionID: event.Data.ID,
		OccurredAt:    event.OccurredAt,
	}, nil
}
