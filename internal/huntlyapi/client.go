package huntlyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// syncTokenHeader authenticates every request against a sync endpoint.
const syncTokenHeader = "X-Huntly-Sync-Token"

// Timeouts. Sync requests get the long budget because a content batch can
// carry fifty full articles; auth and verify flows answer quickly.
const (
	syncRequestTimeout = 300 * time.Second
	connectTimeout     = 30 * time.Second
	authRequestTimeout = 60 * time.Second
)

// Client is an HTTP client for one Huntly server. It carries the sync token,
// bypasses any system proxy, and classifies non-2xx responses into sentinel
// errors (see errors.go).
type Client struct {
	serverURL  string
	token      string
	httpClient *http.Client
	logger     *slog.Logger

	// limiter gates every outgoing request when set. Nil means unlimited.
	limiter *rate.Limiter

	// sleepFunc waits between device-flow polls. Defaults to timeSleep;
	// tests override it to avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client for serverURL. Trailing slashes are trimmed.
// Pass nil httpClient to use the standard sync client (no proxy, 300s total,
// 30s connect). The logger may be nil.
func NewClient(serverURL, token string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = SyncHTTPClient()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		serverURL:  strings.TrimRight(serverURL, "/"),
		token:      token,
		httpClient: httpClient,
		logger:     logger,
		sleepFunc:  timeSleep,
	}
}

// timeSleep waits for the given duration or until the context is canceled.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ServerURL returns the normalized server URL this client talks to.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// SetRateLimit caps outgoing requests at rps per second. Zero or negative
// removes the cap.
func (c *Client) SetRateLimit(rps float64) {
	if rps <= 0 {
		c.limiter = nil
		return
	}

	c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
}

// noProxyTransport returns a transport that never consults the system proxy.
// The server is typically localhost; corporate proxies break that.
func noProxyTransport() *http.Transport {
	return &http.Transport{
		Proxy: nil,
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
	}
}

// SyncHTTPClient returns the HTTP client used for sync endpoints:
// no system proxy, 300s total request timeout, 30s connect timeout.
func SyncHTTPClient() *http.Client {
	return &http.Client{
		Transport: noProxyTransport(),
		Timeout:   syncRequestTimeout,
	}
}

// AuthHTTPClient returns the HTTP client used for auth and verify flows:
// no system proxy, 60s total request timeout, 30s connect timeout.
func AuthHTTPClient() *http.Client {
	return &http.Client{
		Transport: noProxyTransport(),
		Timeout:   authRequestTimeout,
	}
}

// get issues an authenticated GET and returns the response on 2xx.
// Non-2xx responses are drained, closed, and returned as *APIError.
func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// postJSON issues an authenticated POST with a JSON body.
func (c *Client) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("huntlyapi: encoding request body: %w", err)
	}

	return c.do(ctx, http.MethodPost, path, nil, bytes.NewReader(data))
}

// do executes one request. The caller owns the response body on success.
func (c *Client) do(
	ctx context.Context, method, path string, query url.Values, body io.Reader,
) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("huntlyapi: request canceled: %w", err)
		}
	}

	reqURL := c.serverURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("huntlyapi: creating request: %w", err)
	}

	if c.token != "" {
		req.Header.Set(syncTokenHeader, c.token)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("request",
		slog.String("method", method),
		slog.String("path", path),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)

		return nil, fmt.Errorf("huntlyapi: %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return resp, nil
	}

	errBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	resp.Body.Close()

	if readErr != nil {
		errBody = []byte("(failed to read response body)")
	}

	c.logger.Warn("request failed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)

	return nil, &APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(errBody)),
		Err:        classifyStatus(resp.StatusCode),
	}
}

// maxErrorBodyBytes bounds how much of an error response is kept for the
// error message.
const maxErrorBodyBytes = 4096

// decodeBody decodes a JSON response body into v and closes it.
func decodeBody(resp *http.Response, v any) error {
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrProtocol, err)
	}

	return nil
}
