package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lcomplete/huntly-companion/internal/config"
	"github.com/lcomplete/huntly-companion/internal/server"
)

func newServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Manage the embedded Huntly backend",
	}

	cmd.AddCommand(newServerStartCmd())
	cmd.AddCommand(newServerStatusCmd())

	return cmd
}

// newSupervisor builds the supervisor from the desktop settings.
func newSupervisor() (*server.Supervisor, error) {
	appSettings, err := config.LoadAppSettings(config.AppSettingsPath())
	if err != nil {
		return nil, err
	}

	binDir := filepath.Join(cliCtx.DataDir, "server_bin")
	javaPath := filepath.Join(binDir, "jre11", "bin", "java")

	return server.New(javaPath, binDir, cliCtx.DataDir, appSettings.Port, cliCtx.Logger), nil
}

func newServerStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the embedded backend and keep it running",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sup, err := newSupervisor()
			if err != nil {
				return err
			}

			if err := sup.Start(); err != nil {
				return err
			}
			defer sup.Stop()

			statusf("Embedded server running at %s. Press Ctrl-C to stop.\n", sup.URL())

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			<-ctx.Done()

			return nil
		},
	}
}

func newServerStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the backend answers its health endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sup, err := newSupervisor()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if !sup.Healthy(ctx) {
				return fmt.Errorf("server at %s is not responding", sup.URL())
			}

			statusf("Server at %s is healthy.\n", sup.URL())

			return nil
		},
	}
}
