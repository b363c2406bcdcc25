package delivery

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/condokit/pkg/messaging"
)

// EventKind is the normalized meaning of a provider status callback.
type EventKind string

const (
	EventSent      EventKind = "sent"
	EventDelivered EventKind = "delivered"
	EventRead      EventKind = "read"
	EventFailed    EventKind = "failed"
)

// Event is a provider status callback reduced to what reconciliation needs.
// At is zero when the provider does not report when the change happened.
type Event struct {
	Provider          messaging.Name `json:"provider"`
	ProviderMessageID string         `json:"provider_message_id"`
	Kind              EventKind      `json:"kind"`
	At                time.Time      `json:"at"`
}

// ParseEvent normalizes a provider webhook payload.
// Callbacks that carry no delivery information, such as inbound messages,
// return ErrUnsupportedEvent so the caller can acknowledge and drop them.
func ParseEvent(provider messaging.Name, payload []byte) (Event, error) {
	var (
		ev  Event
		err error
	)
	switch provider {
	case messaging.WhatsGW:
		ev, err = parseWhatsGW(payload)
	case messaging.ZAPI:
		ev, err = parseZAPI(payload)
	case messaging.Evolution:
		ev, err = parseEvolution(payload)
	case messaging.WPPConnect:
		ev, err = parseWPPConnect(payload)
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	if err != nil {
		return Event{}, err
	}
	if ev.ProviderMessageID == "" {
		return Event{}, ErrMissingMessageID
	}
	ev.Provider = provider
	return ev, nil
}

func decode(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return nil
}

func unsupported(what string) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedEvent, what)
}

func parseWhatsGW(payload []byte) (Event, error) {
	var p struct {
		Event           string          `json:"event"`
		MessageID       json.RawMessage `json:"message_id"`
		MessageCustomID string          `json:"message_custom_id"`
		Status          string          `json:"status"`
		Timestamp       int64           `json:"timestamp"`
	}
	if err := decode(payload, &p); err != nil {
		return Event{}, err
	}

	var kind EventKind
	switch strings.ToLower(p.Status) {
	case "sent":
		kind = EventSent
	case "delivered", "received":
		kind = EventDelivered
	case "read", "viewed":
		kind = EventRead
	case "failed", "error":
		kind = EventFailed
	default:
		return Event{}, unsupported("whatsgw status " + p.Status)
	}

	id := jsonID(p.MessageID)
	if id == "" && p.MessageCustomID != "" {
		// sends acknowledged without an id are recorded under the custom id
		id = "whatsgw-" + p.MessageCustomID
	}
	return Event{ProviderMessageID: id, Kind: kind, At: unixAuto(p.Timestamp)}, nil
}

func parseZAPI(payload []byte) (Event, error) {
	var p struct {
		Type    string   `json:"type"`
		Status  string   `json:"status"`
		IDs     []string `json:"ids"`
		Momment int64    `json:"momment"`
	}
	if err := decode(payload, &p); err != nil {
		return Event{}, err
	}
	if p.Type != "" && p.Type != "MessageStatusCallback" {
		return Event{}, unsupported("zapi callback " + p.Type)
	}

	var kind EventKind
	switch strings.ToUpper(p.Status) {
	case "SENT":
		kind = EventSent
	case "RECEIVED":
		kind = EventDelivered
	case "READ", "READ_BY_ME", "PLAYED":
		kind = EventRead
	case "FAILED", "ERROR":
		kind = EventFailed
	default:
		return Event{}, unsupported("zapi status " + p.Status)
	}

	var id string
	if len(p.IDs) > 0 {
		id = p.IDs[0]
	}
	return Event{ProviderMessageID: id, Kind: kind, At: unixAuto(p.Momment)}, nil
}

func parseEvolution(payload []byte) (Event, error) {
	var p struct {
		Event    string `json:"event"`
		DateTime string `json:"date_time"`
		Data     struct {
			KeyID  string `json:"keyId"`
			Status string `json:"status"`
			Key    struct {
				ID string `json:"id"`
			} `json:"key"`
		} `json:"data"`
	}
	if err := decode(payload, &p); err != nil {
		return Event{}, err
	}
	if !strings.EqualFold(strings.ReplaceAll(p.Event, "_", "."), "messages.update") {
		return Event{}, unsupported("evolution event " + p.Event)
	}

	var kind EventKind
	switch strings.ToUpper(p.Data.Status) {
	case "SERVER_ACK":
		kind = EventSent
	case "DELIVERY_ACK":
		kind = EventDelivered
	case "READ", "PLAYED":
		kind = EventRead
	case "ERROR":
		kind = EventFailed
	default:
		return Event{}, unsupported("evolution status " + p.Data.Status)
	}

	id := p.Data.KeyID
	if id == "" {
		id = p.Data.Key.ID
	}
	var at time.Time
	if p.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, p.DateTime); err == nil {
			at = t.UTC()
		}
	}
	return Event{ProviderMessageID: id, Kind: kind, At: at}, nil
}

func parseWPPConnect(payload []byte) (Event, error) {
	var p struct {
		Event string          `json:"event"`
		Ack   *int            `json:"ack"`
		ID    json.RawMessage `json:"id"`
		T     int64           `json:"t"`
	}
	if err := decode(payload, &p); err != nil {
		return Event{}, err
	}
	if !strings.EqualFold(p.Event, "onack") || p.Ack == nil {
		return Event{}, unsupported("wppconnect event " + p.Event)
	}

	var kind EventKind
	switch *p.Ack {
	case -1:
		kind = EventFailed
	case 1:
		kind = EventSent
	case 2:
		kind = EventDelivered
	case 3, 4:
		kind = EventRead
	default:
		return Event{}, unsupported(fmt.Sprintf("wppconnect ack %d", *p.Ack))
	}

	id := jsonID(p.ID)
	if id == "" {
		var obj struct {
			Serialized string `json:"_serialized"`
		}
		if err := json.Unmarshal(p.ID, &obj); err == nil {
			id = obj.Serialized
		}
	}
	return Event{ProviderMessageID: id, Kind: kind, At: unixAuto(p.T)}, nil
}

func jsonID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// unixAuto converts a unix timestamp in seconds or milliseconds.
func unixAuto(v int64) time.Time {
	switch {
	case v <= 0:
		return time.Time{}
	case v > 1e12:
		return time.UnixMilli(v).UTC()
	default:
		return time.Unix(v, 0).UTC()
	}
}
