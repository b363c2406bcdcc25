package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// whatsGW sends through a gateway that takes every parameter in the query string.
type whatsGW struct {
	t *transport
}

func newWhatsGW(t *transport) *whatsGW { return &whatsGW{t: t} }

func (p *whatsGW) Name() Name { return WhatsGW }

type whatsGWResponse struct {
	Result    string          `json:"result"`
	Status    string          `json:"status"`
	MessageID json.RawMessage `json:"message_id"`
	Error     string          `json:"error"`
}

func (p *whatsGW) SendMessage(ctx context.Context, phone, message string, cfg Config) Result {
	customID := uuid.NewString()

	q := url.Values{}
	q.Set("apikey", cfg.APIKey)
	q.Set("phone_number", cfg.InstanceID)
	q.Set("contact_phone_number", phone)
	q.Set("message_custom_id", customID)
	q.Set("message_type", "text")
	q.Set("message_body", message)

	body, err := p.t.do(ctx, request{
		method: http.MethodGet,
		url:    joinURL(cfg.APIURL, "Send") + "?" + q.Encode(),
	})
	if err != nil {
		return failed(err)
	}

	var resp whatsGWResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return failed(fmt.Errorf("%w: %w", ErrInvalidResponse, err))
	}

	if id := rawID(resp.MessageID); id != "" {
		return succeeded(id)
	}

	ack := strings.ToLower(resp.Result + resp.Status)
	if strings.Contains(ack, "success") || strings.Contains(ack, "sent") {
		return succeeded("whatsgw-" + customID)
	}

	if resp.Error != "" {
		return failed(fmt.Errorf("%w: %s", ErrRejected, resp.Error))
	}
	return failed(fmt.Errorf("%w: no message id in response", ErrRejected))
}

// rawID reads an identifier that may be encoded as a JSON string or number.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
