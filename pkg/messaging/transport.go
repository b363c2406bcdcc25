package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single provider request.
	DefaultTimeout = 15 * time.Second

	maxResponseBody = 64 * 1024
	maxErrorExcerpt = 200
	userAgent       = "condokit-messaging/1.0"
)

// transport performs one HTTP round trip per send. There are no retries here:
// a failed send is reported to the caller, which decides what to do with it.
type transport struct {
	client  *http.Client
	timeout time.Duration
}

func newTransport(client *http.Client, timeout time.Duration) *transport {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &transport{client: client, timeout: timeout}
}

type request struct {
	method  string
	url     string
	headers map[string]string
	body    any // marshalled to JSON when non-nil
}

// statusError is returned for non-2xx responses.
type statusError struct {
	code    int
	excerpt string
}

func (e *statusError) Error() string {
	if e.excerpt == "" {
		return fmt.Sprintf("provider returned status %d", e.code)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.code, e.excerpt)
}

func (e *statusError) Unwrap() error { return ErrUnexpectedStatus }

func isTemporaryStatus(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	return se.code >= 500 || se.code == http.StatusTooManyRequests || se.code == http.StatusRequestTimeout
}

// do executes req and returns the (size-capped) response body of a 2xx response.
func (t *transport) do(ctx context.Context, req request) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		if v != "" {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, t.timeout)
		}
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, t.timeout)
		}
		return nil, fmt.Errorf("%w: reading response: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return respBody, &statusError{code: resp.StatusCode, excerpt: excerpt(respBody)}
	}
	return respBody, nil
}

// excerpt flattens a response body for safe inclusion in error messages.
func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxErrorExcerpt {
		s = s[:maxErrorExcerpt] + "..."
	}
	return s
}
