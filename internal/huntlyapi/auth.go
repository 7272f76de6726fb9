package huntlyapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Device-flow polling bounds. The server's suggested interval wins when it
// is sane; the deadline stops an abandoned approval from polling forever.
const (
	defaultPollInterval = 5 * time.Second
	maxPollInterval     = 60 * time.Second
	deviceFlowDeadline  = 10 * time.Minute
)

// deviceCodeRequest is the body for a device-code request. DeviceID is a
// stable per-install identity; DeviceName is shown to the user on the
// approval page.
type deviceCodeRequest struct {
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
}

// deviceTokenRequest is the polling body.
type deviceTokenRequest struct {
	DeviceCode string `json:"deviceCode"`
}

// RequestDeviceCode starts the desktop device-code flow and returns the
// code pair the user approves in the browser.
func (c *Client) RequestDeviceCode(ctx context.Context, deviceID, deviceName string) (*DeviceCode, error) {
	resp, err := c.postJSON(ctx, "/api/auth/desktop/device", deviceCodeRequest{
		DeviceID:   deviceID,
		DeviceName: deviceName,
	})
	if err != nil {
		return nil, err
	}

	var body struct {
		envelope
		Data DeviceCode `json:"data"`
	}
	if err := decodeBody(resp, &body); err != nil {
		return nil, err
	}

	if body.Code != 0 {
		return nil, fmt.Errorf("%w: device code request failed: %s", ErrProtocol, body.Message)
	}

	return &body.Data, nil
}

// PollDeviceToken asks whether the device code has been approved.
// Returns ErrAuthorizationPending while the user has not decided yet;
// any other non-zero envelope code is fatal.
func (c *Client) PollDeviceToken(ctx context.Context, deviceCode string) (*DeviceToken, error) {
	resp, err := c.postJSON(ctx, "/api/auth/desktop/token", deviceTokenRequest{DeviceCode: deviceCode})
	if err != nil {
		return nil, err
	}

	var body struct {
		envelope
		Data json.RawMessage `json:"data"`
	}
	if err := decodeBody(resp, &body); err != nil {
		return nil, err
	}

	switch body.Code {
	case 0:
		var tok DeviceToken
		if err := json.Unmarshal(body.Data, &tok); err != nil {
			return nil, fmt.Errorf("%w: decoding device token: %w", ErrProtocol, err)
		}

		return &tok, nil
	case envelopeCodePending:
		return nil, ErrAuthorizationPending
	default:
		return nil, fmt.Errorf("%w: device authorization failed: %s", ErrProtocol, body.Message)
	}
}

// DeviceLogin runs the full device-code flow: request a code, hand it to
// onCode for display, then poll until the user approves, the server rejects,
// or the deadline passes.
func (c *Client) DeviceLogin(
	ctx context.Context, deviceID, deviceName string, onCode func(*DeviceCode),
) (*DeviceToken, error) {
	code, err := c.RequestDeviceCode(ctx, deviceID, deviceName)
	if err != nil {
		return nil, err
	}

	if onCode != nil {
		onCode(code)
	}

	interval := defaultPollInterval
	if code.IntervalSeconds > 0 {
		interval = time.Duration(code.IntervalSeconds) * time.Second
		if interval > maxPollInterval {
			interval = maxPollInterval
		}
	}

	ctx, cancel := context.WithTimeout(ctx, deviceFlowDeadline)
	defer cancel()

	for {
		tok, err := c.PollDeviceToken(ctx, code.DeviceCode)
		if err == nil {
			c.logger.Info("device authorization granted",
				slog.String("server_url", tok.ServerURL),
			)

			return tok, nil
		}

		if !errors.Is(err, ErrAuthorizationPending) {
			return nil, err
		}

		if sleepErr := c.sleepFunc(ctx, interval); sleepErr != nil {
			return nil, fmt.Errorf("huntlyapi: device authorization canceled: %w", sleepErr)
		}
	}
}
