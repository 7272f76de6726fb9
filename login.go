package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
)

// deviceIDFileName stores the stable per-install device identity.
const deviceIDFileName = "device.id"

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Connect to a Huntly server via device authorization",
		Long: `Start the device authorization flow against the server: a user code is
shown here, you approve it in the browser, and the granted sync token is
stored for future syncs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd.Context())
		},
	}

	return cmd
}

func runLogin(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	serverURL := resolveServerURL()
	client := huntlyapi.NewClient(serverURL, "", huntlyapi.AuthHTTPClient(), cliCtx.Logger)

	if !client.CheckHealth(ctx) {
		return fmt.Errorf("server %s is not reachable", serverURL)
	}

	deviceID, err := loadOrCreateDeviceID()
	if err != nil {
		return err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "huntly-companion"
	}

	token, err := client.DeviceLogin(ctx, deviceID, hostname, func(code *huntlyapi.DeviceCode) {
		statusf("Open %s and enter the code: %s\n", code.VerificationURL, code.UserCode)
		statusf("Waiting for approval...\n")
	})
	if err != nil {
		return fmt.Errorf("device authorization failed: %w", err)
	}

	// The server may answer with its canonical URL; store the token there.
	storeURL := token.ServerURL
	if storeURL == "" {
		storeURL = serverURL
	}

	if err := cliCtx.Tokens.Save(storeURL, token.Token); err != nil {
		return err
	}

	statusf("Connected to %s.\n", storeURL)

	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored sync token for a server",
		RunE: func(_ *cobra.Command, _ []string) error {
			serverURL := resolveServerURL()

			if err := cliCtx.Tokens.Delete(serverURL); err != nil {
				return err
			}

			statusf("Removed stored token for %s.\n", serverURL)

			return nil
		},
	}
}

// loadOrCreateDeviceID returns the stable device identity, minting one on
// first use.
func loadOrCreateDeviceID() (string, error) {
	path := filepath.Join(cliCtx.DataDir, deviceIDFileName)

	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}

	id := uuid.NewString()

	if err := os.MkdirAll(cliCtx.DataDir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("writing device id: %w", err)
	}

	return id, nil
}
