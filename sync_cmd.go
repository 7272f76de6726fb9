package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lcomplete/huntly-companion/internal/syncer"
)

func newSyncCmd() *cobra.Command {
	var flagFolder string
	var flagFull bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass now",
		Long: `Run a single foreground sync pass over all categories: Saved, X, Github,
Feeds, RecentlyRead, and Highlights. Each pass pulls one metadata batch per
category; a backlog catches up over repeated passes.

Stop the daemon first — the foreground pass and the background scheduler
must not write the export folder at the same time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), flagFolder, flagFull)
		},
	}

	cmd.Flags().StringVar(&flagFolder, "folder", "", "export folder (defaults to the configured one)")
	cmd.Flags().BoolVar(&flagFull, "full", false, "ignore the stored last-sync marker")

	return cmd
}

func runSync(ctx context.Context, folder string, full bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	settings := cliCtx.StateStore.LoadSettings()

	if folder == "" {
		folder = settings.ExportFolder
	}

	if folder == "" {
		return fmt.Errorf("no export folder configured; pass --folder or set one in the sync settings")
	}

	serverURL := resolveServerURL()

	token, err := resolveSyncToken(ctx, serverURL, flagToken)
	if err != nil {
		return err
	}

	var lastSyncAt *string
	if !full {
		lastSyncAt = settings.LastSyncAt
	}

	syncStart := nowRFC3339()

	statusf("Syncing %s into %s...\n", serverURL, folder)

	orchestrator := syncer.NewOrchestrator(newAPIClient(serverURL, token), folder, cliCtx.Logger)

	result, err := orchestrator.DoSync(ctx, lastSyncAt)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	// The marker advances only on an error-free pass.
	if len(result.Errors) == 0 {
		if err := cliCtx.StateStore.SaveLastSyncAt(syncStart); err != nil {
			cliCtx.Logger.Warn("failed to persist last_sync_at", "error", err.Error())
		}
	}

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	statusf("%s\n", result.StatusMessage())

	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "  error: %s\n", e)
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("sync completed with %d errors", len(result.Errors))
	}

	return nil
}
