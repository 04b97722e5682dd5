package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// IdempotencyHeader carries the per-request checkout key.
const IdempotencyHeader = "Idempotency-Key"

var errServerStatus = errors.New("server responded with 5xx")

type response struct {
	status int
	body   []byte
}

// Client talks to the remote Fitcoin service. Every authenticated call takes the
// bearer token explicitly so an in-flight request keeps the token it was issued with.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*response]
	logger     *slog.Logger

	mu             sync.RWMutex
	onUnauthorized func(token string)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "fitcoin-api",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// OnUnauthorized registers the hook run with the rejected token on any 401/419.
func (c *Client) OnUnauthorized(fn func(token string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

func (c *Client) unauthorized(token string) {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil && token != "" {
		fn(token)
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any, headers map[string]string) error {
	op := method + " " + path

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	var res *response
	_, err = c.breaker.Execute(func() (*response, error) {
		httpRes, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpRes.Body.Close()

		data, err := io.ReadAll(httpRes.Body)
		if err != nil {
			return nil, err
		}
		res = &response{status: httpRes.StatusCode, body: data}
		if httpRes.StatusCode >= 500 {
			return res, errServerStatus
		}
		return res, nil
	})
	if err != nil && !errors.Is(err, errServerStatus) {
		return &NetworkError{Op: op, Err: err}
	}

	if res.status >= 400 {
		apiErr := classify(res.status, res.body)
		if isAuthStatus(res.status) {
			c.unauthorized(token)
		}
		c.logger.DebugContext(ctx, "remote call failed", "op", op, "status", res.status, "error", apiErr)
		return apiErr
	}

	if out == nil || len(res.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
