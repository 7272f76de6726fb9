package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
)

func newStatusCmd() *cobra.Command {
	var flagLogs int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the persisted sync state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), flagLogs)
		},
	}

	cmd.Flags().IntVar(&flagLogs, "logs", 10, "number of recent log lines to show")

	return cmd
}

func runStatus(ctx context.Context, logLines int) error {
	if ctx == nil {
		ctx = context.Background()
	}

	settings, state := cliCtx.StateStore.Load()

	serverURL := resolveServerURL()
	reachable := huntlyapi.NewClient(serverURL, "", huntlyapi.AuthHTTPClient(), cliCtx.Logger).
		CheckHealth(ctx)

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"sync_settings": settings,
			"sync_state":    state,
			"server_url":    serverURL,
			"reachable":     reachable,
		})
	}

	rows := [][]string{
		{"Server", serverURL},
		{"Reachable", fmt.Sprintf("%t", reachable)},
		{"Export folder", orDash(settings.ExportFolder)},
		{"Sync enabled", fmt.Sprintf("%t", settings.SyncEnabled)},
		{"Syncing now", fmt.Sprintf("%t", state.IsSyncing)},
		{"Last status", orDash(strDeref(state.LastSyncStatus))},
		{"Last error", orDash(strDeref(state.LastSyncError))},
		{"Last sync at", orDash(strDeref(settings.LastSyncAt))},
		{"Synced count", fmt.Sprintf("%d", state.SyncedCount)},
	}

	printTable(os.Stdout, []string{"Field", "Value"}, rows)

	if logLines > 0 && len(state.Logs) > 0 {
		fmt.Println()
		fmt.Println("Recent log:")

		start := len(state.Logs) - logLines
		if start < 0 {
			start = 0
		}

		for _, line := range state.Logs[start:] {
			fmt.Println("  " + line)
		}
	}

	return nil
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check server reachability and the stored sync token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			serverURL := resolveServerURL()

			health := huntlyapi.NewClient(serverURL, "", huntlyapi.AuthHTTPClient(), cliCtx.Logger)
			if !health.CheckHealth(ctx) {
				return fmt.Errorf("server %s is not reachable", serverURL)
			}

			statusf("Server %s is reachable.\n", serverURL)

			token, err := resolveSyncToken(ctx, serverURL, flagToken)
			if err != nil {
				return fmt.Errorf("no sync token for %s; run login first", serverURL)
			}

			verifier := huntlyapi.NewClient(serverURL, token, huntlyapi.AuthHTTPClient(), cliCtx.Logger)
			if !verifier.VerifyToken(ctx) {
				return fmt.Errorf("sync token for %s was rejected", serverURL)
			}

			statusf("Sync token accepted.\n")

			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
