package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
)

func newLibraryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "library",
		Short: "List the most recently saved library pages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			serverURL := resolveServerURL()

			token, err := resolveSyncToken(ctx, serverURL, flagToken)
			if err != nil {
				return err
			}

			pages, err := newAPIClient(serverURL, token).FetchLibraryPages(ctx)
			if err != nil {
				return err
			}

			if flagJSON {
				return json.NewEncoder(os.Stdout).Encode(pages)
			}

			rows := make([][]string, 0, len(pages))
			for _, p := range pages {
				rows = append(rows, []string{
					orDash(huntlyapi.Str(p.Title)),
					orDash(huntlyapi.Str(p.Domain)),
					orDash(huntlyapi.Str(p.ConnectedAt)),
				})
			}

			printTable(os.Stdout, []string{"Title", "Domain", "Saved"}, rows)

			return nil
		},
	}
}
