package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lcomplete/huntly-companion/internal/config"
	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
)

// Local-server token files under the data directory. The embedded server
// writes sync-server.token; the companion caches a copy as
// sync-desktop.token.
const (
	serverSyncTokenFile  = "sync-server.token"
	desktopSyncTokenFile = "sync-desktop.token"
)

// resolveSyncToken returns the effective token for serverURL: an explicit
// token wins; the local embedded server's token file is bootstrapped and
// read directly; remote servers use the per-server token store.
func resolveSyncToken(ctx context.Context, serverURL, explicit string) (string, error) {
	if t := strings.TrimSpace(explicit); t != "" {
		return t, nil
	}

	if isLocalServerURL(serverURL) {
		return readLocalSyncToken(ctx, serverURL)
	}

	token, err := cliCtx.Tokens.Load(serverURL)
	if err != nil {
		return "", fmt.Errorf("no sync token for %s (connect the remote account first): %w", serverURL, err)
	}

	return token, nil
}

// isLocalServerURL reports whether url addresses the embedded server.
func isLocalServerURL(url string) bool {
	trimmed := strings.TrimRight(strings.TrimSpace(url), "/")

	appSettings, err := config.LoadAppSettings(config.AppSettingsPath())
	if err != nil {
		appSettings = config.DefaultAppSettings()
	}

	return trimmed == fmt.Sprintf("http://localhost:%d", appSettings.Port) ||
		trimmed == fmt.Sprintf("http://127.0.0.1:%d", appSettings.Port)
}

// readLocalSyncToken asks the local server to materialize its token file,
// reads it, and caches a desktop copy.
func readLocalSyncToken(ctx context.Context, serverURL string) (string, error) {
	client := huntlyapi.NewClient(serverURL, "", huntlyapi.AuthHTTPClient(), cliCtx.Logger)
	if err := client.EnsureLocalServerToken(ctx); err != nil {
		return "", fmt.Errorf("failed to initialize local sync token: %w", err)
	}

	serverPath := filepath.Join(cliCtx.DataDir, serverSyncTokenFile)

	data, err := os.ReadFile(serverPath)
	if err != nil {
		return "", fmt.Errorf("local server token file not found: %s: %w", serverPath, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("local server token file is empty: %s", serverPath)
	}

	desktopPath := filepath.Join(cliCtx.DataDir, desktopSyncTokenFile)
	if err := os.WriteFile(desktopPath, []byte(token), 0o600); err != nil {
		return "", fmt.Errorf("failed to cache desktop sync token: %w", err)
	}

	return token, nil
}
