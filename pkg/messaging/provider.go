package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Name identifies a provider implementation.
type Name string

const (
	WhatsGW    Name = "whatsgw"
	ZAPI       Name = "zapi"
	Evolution  Name = "evolution"
	WPPConnect Name = "wppconnect"
)

// ParseName converts a stored provider name into a Name, case-insensitively.
func ParseName(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	switch n {
	case WhatsGW, ZAPI, Evolution, WPPConnect:
		return n, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}

// Config is the provider configuration row selected for a tenant or installation.
type Config struct {
	Provider   Name   `json:"provider"`
	APIURL     string `json:"api_url"`
	APIKey     string `json:"api_key"`
	InstanceID string `json:"instance_id"`
}

// Validate checks the fields every adapter needs.
func (c Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("%w: api url is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https api urls are supported", ErrInvalidConfig)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: api url host is required", ErrInvalidConfig)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: api key is required", ErrInvalidConfig)
	}
	return nil
}

// Result is the uniform outcome of a send.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`

	// Temporary marks failures worth counting against the provider's circuit
	// breaker: timeouts, network errors and 5xx/429 responses.
	Temporary bool `json:"-"`
}

// Provider sends one text message through a specific gateway.
type Provider interface {
	Name() Name
	SendMessage(ctx context.Context, phone, message string, cfg Config) Result
}

func succeeded(id string) Result {
	return Result{Success: true, MessageID: id}
}

// failed converts err into a failed Result. Transport-level errors are temporary.
func failed(err error) Result {
	return Result{
		Success:   false,
		Error:     err.Error(),
		Temporary: errors.Is(err, ErrTimeout) || errors.Is(err, ErrTransport) || isTemporaryStatus(err),
	}
}

func joinURL(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		out += "/" + url.PathEscape(strings.Trim(p, "/"))
	}
	return out
}
