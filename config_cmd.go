package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}

	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration and paths",
		RunE: func(_ *cobra.Command, _ []string) error {
			settings := cliCtx.StateStore.LoadSettings()

			out := map[string]any{
				"data_dir":      cliCtx.DataDir,
				"state_store":   cliCtx.StateStore.Path(),
				"server_url":    resolveServerURL(),
				"sync_settings": settings,
				"logging":       cliCtx.Cfg.Logging,
				"network":       cliCtx.Cfg.Network,
			}

			if flagJSON {
				return json.NewEncoder(os.Stdout).Encode(out)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			return enc.Encode(out)
		},
	}
}
