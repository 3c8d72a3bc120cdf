// Package gateway is the single path to the backend: it builds authenticated
// JSON requests, classifies outcomes, and fires the registered session
//-termination callback whenever any call comes back 401.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/oyako-li/inventoria/internal/apierror"
)

// Client issues requests against a fixed base URL. It does not retry and it
// does not interpret non-2xx statuses beyond the 401 callback — the caller
// inspects the Response and decides.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu             sync.Mutex
	onUnauthorized func()
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetUnauthorizedCallback registers the single global 401 handler. The
// callback must be idempotent: it fires on every 401, possibly more than once.
func (c *Client) SetUnauthorizedCallback(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// Response is the classified outcome of one request.
type Response struct {
	Status int
	Body   []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Decode unmarshals the body into v.
func (r *Response) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("gateway: decode response: %w", err)
	}
	return nil
}

// Err returns nil for 2xx responses and a *StatusError carrying the decoded
// error envelope otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &StatusError{Status: r.Status, Detail: apierror.Decode(r.Body).Message()}
}

// StatusError is a non-2xx response surfaced as an error.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("gateway: server returned %d", e.Status)
	}
	return fmt.Sprintf("gateway: server returned %d: %s", e.Status, e.Detail)
}

// Send performs one request. endpoint is relative to the base URL. body, when
// non-nil, is JSON-encoded. headers are merged over the Content-Type default.
// A transport failure returns a nil Response and a wrapped error; any HTTP
// response — success or not — returns a Response with a nil error.
func (c *Client) Send(ctx context.Context, method, endpoint string, body interface{}, headers map[string]string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gateway: marshal body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("gateway: create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().
			Str("request_id", requestID).
			Str("method", method).
			Str("endpoint", endpoint).
			Err(err).
			Msg("request failed")
		return nil, fmt.Errorf("gateway: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: read response: %w", err)
	}

	log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("request")

	if resp.StatusCode == http.StatusUnauthorized {
		log.Warn().Str("endpoint", endpoint).Msg("unauthorized — terminating session")
		c.mu.Lock()
		fn := c.onUnauthorized
		c.mu.Unlock()
		if fn != nil {
			fn()
		}
	}

	return &Response{Status: resp.StatusCode, Body: raw}, nil
}

func (c *Client) Get(ctx context.Context, endpoint string, headers map[string]string) (*Response, error) {
	return c.Send(ctx, http.MethodGet, endpoint, nil, headers)
}

func (c *Client) Post(ctx context.Context, endpoint string, body interface{}, headers map[string]string) (*Response, error) {
	return c.Send(ctx, http.MethodPost, endpoint, body, headers)
}

func (c *Client) Put(ctx context.Context, endpoint string, body interface{}, headers map[string]string) (*Response, error) {
	return c.Send(ctx, http.MethodPut, endpoint, body, headers)
}

func (c *Client) Delete(ctx context.Context, endpoint string, headers map[string]string) (*Response, error) {
	return c.Send(ctx, http.MethodDelete, endpoint, nil, headers)
}
