package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type zapi struct {
	t *transport
}

func newZAPI(t *transport) *zapi { return &zapi{t: t} }

func (p *zapi) Name() Name { return ZAPI }

type zapiRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type zapiResponse struct {
	ZaapID        string `json:"zaapId"`
	ZapiMessageID string `json:"zapiMessageId"`
	MessageID     string `json:"messageId"`
	ID            string `json:"id"`
	Error         string `json:"error"`
	Message       string `json:"message"`
}

func (p *zapi) SendMessage(ctx context.Context, phone, message string, cfg Config) Result {
	body, err := p.t.do(ctx, request{
		method: http.MethodPost,
		url:    joinURL(cfg.APIURL, "instances", cfg.InstanceID, "token", cfg.APIKey, "send-text"),
		body:   zapiRequest{Phone: phone, Message: message},
	})
	if err != nil {
		return failed(err)
	}

	var resp zapiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return failed(fmt.Errorf("%w: %w", ErrInvalidResponse, err))
	}

	switch {
	case resp.ZapiMessageID != "":
		return succeeded(resp.ZapiMessageID)
	case resp.MessageID != "":
		return succeeded(resp.MessageID)
	case resp.Error != "":
		return failed(fmt.Errorf("%w: %s", ErrRejected, resp.Error))
	case resp.Message != "":
		return failed(fmt.Errorf("%w: %s", ErrRejected, resp.Message))
	}
	return failed(fmt.Errorf("%w: no zapiMessageId in response", ErrRejected))
}
