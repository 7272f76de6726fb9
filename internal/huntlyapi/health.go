package huntlyapi

import (
	"context"
	"io"
)

// CheckHealth reports whether the server answers its health endpoint with a
// 2xx. Any transport or HTTP failure means "unreachable" — never an error,
// so callers can poll without special-casing.
func (c *Client) CheckHealth(ctx context.Context) bool {
	resp, err := c.get(ctx, "/api/health", nil)
	if err != nil {
		return false
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return true
}

// VerifyToken reports whether the client's sync token is accepted by the
// server. Any failure means invalid.
func (c *Client) VerifyToken(ctx context.Context) bool {
	resp, err := c.get(ctx, "/api/sync/verify", nil)
	if err != nil {
		return false
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return true
}

// EnsureLocalServerToken asks a locally-running server to materialize its
// sync token file. Called before reading the token off disk when the target
// is the embedded server.
func (c *Client) EnsureLocalServerToken(ctx context.Context) error {
	resp, err := c.get(ctx, "/api/sync/token", nil)
	if err != nil {
		return err
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return nil
}
