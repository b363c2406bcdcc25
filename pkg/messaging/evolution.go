package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type evolution struct {
	t *transport
}

func newEvolution(t *transport) *evolution { return &evolution{t: t} }

func (p *evolution) Name() Name { return Evolution }

type evolutionRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type evolutionResponse struct {
	Key struct {
		ID        string `json:"id"`
		RemoteJID string `json:"remoteJid"`
	} `json:"key"`
	Status   string `json:"status"`
	Error    string `json:"error"`
	Response struct {
		Message json.RawMessage `json:"message"`
	} `json:"response"`
}

func (p *evolution) SendMessage(ctx context.Context, phone, message string, cfg Config) Result {
	body, err := p.t.do(ctx, request{
		method:  http.MethodPost,
		url:     joinURL(cfg.APIURL, "message", "sendText", cfg.InstanceID),
		headers: map[string]string{"apikey": cfg.APIKey},
		body:    evolutionRequest{Number: phone, Text: message},
	})
	if err != nil {
		return failed(err)
	}

	var resp evolutionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return failed(fmt.Errorf("%w: %w", ErrInvalidResponse, err))
	}
	if resp.Key.ID != "" {
		return succeeded(resp.Key.ID)
	}

	reason := resp.Error
	if reason == "" && len(resp.Response.Message) > 0 {
		reason = strings.Trim(string(resp.Response.Message), `"[]`)
	}
	if reason == "" {
		reason = "no key.id in response"
	}
	return failed(fmt.Errorf("%w: %s", ErrRejected, reason))
}
