// Package apiclient is the thin HTTP wrapper around the expense backend.
//
// A Client is configured once with the backend's base URL. Per-session
// copies (Clone) carry their own bearer token, which is attached to every
// call through an oauth2 static token source once SetBearer has been called.
package apiclient

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

	"github.com/dalemusser/roomshare/internal/app/system/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DefaultBaseURL matches the backend's default local address.
const DefaultBaseURL = "http://localhost:8080/api"

// RequestIDHeader carries a per-call correlation id to the backend.
const RequestIDHeader = "X-Request-ID"

// Client talks to the backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
	log     *zap.Logger

	mu    sync.RWMutex
	token string
}

// New creates a Client for baseURL. A zero timeout leaves calls bounded only
// by their context.
func New(baseURL string, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		metrics: m,
		log:     logger,
	}
}

// Clone returns a copy sharing configuration and transport but with no bearer token.
func (c *Client) Clone() *Client {
	return &Client{
		baseURL: c.baseURL,
		http:    c.http,
		metrics: c.metrics,
		log:     c.log,
	}
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// SetBearer attaches token to all subsequent calls.
func (c *Client) SetBearer(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearBearer stops attaching a token.
func (c *Client) ClearBearer() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// Bearer returns the currently attached token, or "".
func (c *Client) Bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// doer picks the plain client or one whose transport adds the bearer header.
func (c *Client) doer() *http.Client {
	token := c.Bearer()
	if token == "" {
		return c.http
	}
	return &http.Client{
		Timeout: c.http.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.http.Transport,
		},
	}
}

// call describes one backend request.
type call struct {
	op          string
	method      string
	path        string
	body        io.Reader
	contentType string
}

// jsonCall builds a call whose body is v encoded as JSON.
func jsonCall(op, method, path string, v any) (call, error) {
	c := call{op: op, method: method, path: path}
	if v == nil {
		return c, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return c, fmt.Errorf("apiclient: %s: encode: %w", op, err)
	}
	c.body = bytes.NewReader(b)
	c.contentType = "application/json"
	return c, nil
}

// do executes the call and decodes a 2xx JSON body into out (if non-nil).
func (c *Client) do(ctx context.Context, cl call, out any) error {
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, cl.body)
	if err != nil {
		return fmt.Errorf("apiclient: %s: build request: %w", cl.op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}

	start := time.Now()
	resp, err := c.doer().Do(req)
	if err != nil {
		c.metrics.ObserveBackend(cl.op, 0, time.Since(start))
		c.log.Warn("backend call failed",
			zap.String("op", cl.op),
			zap.String("request_id", reqID),
			zap.Error(err))
		return fmt.Errorf("apiclient: %s: %w", cl.op, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveBackend(cl.op, resp.StatusCode, time.Since(start))

	c.log.Debug("backend call",
		zap.String("op", cl.op),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(cl.op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("apiclient: %s: decode response: %w", cl.op, err)
	}
	return nil
}

// messageResponse is the backend's generic {"message": "..."} body.
type messageResponse struct {
	Message string `json:"message"`
}
