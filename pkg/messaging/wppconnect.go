package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type wppConnect struct {
	t *transport
}

func newWPPConnect(t *transport) *wppConnect { return &wppConnect{t: t} }

func (p *wppConnect) Name() Name { return WPPConnect }

type wppConnectRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
	IsGroup bool   `json:"isGroup"`
}

type wppConnectResponse struct {
	Status   string          `json:"status"`
	Message  string          `json:"message"`
	Response json.RawMessage `json:"response"`
}

type wppConnectMessage struct {
	ID json.RawMessage `json:"id"`
}

func (p *wppConnect) SendMessage(ctx context.Context, phone, message string, cfg Config) Result {
	body, err := p.t.do(ctx, request{
		method:  http.MethodPost,
		url:     joinURL(cfg.APIURL, "api", cfg.InstanceID, "send-message"),
		headers: map[string]string{"Authorization": "Bearer " + cfg.APIKey},
		body:    wppConnectRequest{Phone: phone, Message: message},
	})
	if err != nil {
		return failed(err)
	}

	var resp wppConnectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return failed(fmt.Errorf("%w: %w", ErrInvalidResponse, err))
	}
	if !strings.EqualFold(resp.Status, "success") {
		reason := resp.Message
		if reason == "" {
			reason = fmt.Sprintf("status %q", resp.Status)
		}
		return failed(fmt.Errorf("%w: %s", ErrRejected, reason))
	}

	if id := wppMessageID(resp.Response); id != "" {
		return succeeded(id)
	}
	return failed(fmt.Errorf("%w: no message id in response", ErrInvalidResponse))
}

// wppMessageID reads the id from either a list of messages or a single message.
func wppMessageID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var list []wppConnectMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, m := range list {
			if id := wppID(m.ID); id != "" {
				return id
			}
		}
		return ""
	}
	var one wppConnectMessage
	if err := json.Unmarshal(raw, &one); err == nil {
		return wppID(one.ID)
	}
	return ""
}

// wppID accepts either a plain id or the serialized object form {"_serialized": "..."}.
func wppID(raw json.RawMessage) string {
	if id := rawID(raw); id != "" {
		return id
	}
	var obj struct {
		Serialized string `json:"_serialized"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Serialized
	}
	return ""
}
