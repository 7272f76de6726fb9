package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lcomplete/huntly-companion/internal/config"
	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
	"github.com/lcomplete/huntly-companion/internal/syncer"
	"github.com/lcomplete/huntly-companion/internal/tokenstore"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagDataDir    string
	flagServer     string
	flagToken      string
	flagJSON       bool
	flagVerbose    bool
	flagDebug      bool
	flagQuiet      bool
)

// CLIContext bundles the resolved configuration and shared stores. Created
// once in PersistentPreRunE and read by every RunE handler.
type CLIContext struct {
	Cfg        *config.Config
	DataDir    string
	StateStore *syncer.StateStore
	Tokens     *tokenstore.Store
	Logger     *slog.Logger
}

// cliCtx is populated by PersistentPreRunE before any RunE executes.
var cliCtx *CLIContext

// newRootCmd builds the fully-assembled root command. Called once from
// main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "huntly-companion",
		Short:   "Desktop companion that mirrors a Huntly library to Markdown",
		Long: `huntly-companion keeps a local folder of Markdown files continuously in
sync with a Huntly content library: saved articles, posts, RSS items, read
history, and highlights.`,
		Version: version,
		// Silence Cobra's default error/usage printing — main handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadCLIContext()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "application data directory")
	cmd.PersistentFlags().StringVar(&flagServer, "server", "", "Huntly server URL")
	cmd.PersistentFlags().StringVar(&flagToken, "token", "", "sync token (overrides the stored one)")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show detailed output")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.MarkFlagsMutuallyExclusive("verbose", "debug", "quiet")

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newDaemonCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newLibraryCmd())
	cmd.AddCommand(newServerCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadCLIContext resolves config, paths, and stores into the global
// CLIContext.
func loadCLIContext() error {
	configPath := flagConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	dataDir := flagDataDir
	if dataDir == "" {
		dataDir = config.DefaultDataDir()
	}

	if dataDir == "" {
		return fmt.Errorf("cannot determine the application data directory")
	}

	cliCtx = &CLIContext{
		Cfg:        cfg,
		DataDir:    dataDir,
		StateStore: syncer.NewStateStore(dataDir),
		Tokens:     tokenstore.NewStore(dataDir),
		Logger:     buildLogger(cfg),
	}

	return nil
}

// buildLogger creates the process logger. CLI flags override the config
// log level. Output is a text handler when stderr is a TTY and a JSON
// handler otherwise; a configured log file routes through lumberjack
// rotation instead.
func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn

	switch cfg.Logging.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}

	switch {
	case flagDebug:
		level = slog.LevelDebug
	case flagVerbose:
		level = slog.LevelInfo
	case flagQuiet:
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Logging.LogFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.Logging.LogFile,
			MaxSize:    cfg.Logging.LogMaxSizeMB,
			MaxBackups: cfg.Logging.LogMaxBackups,
			MaxAge:     cfg.Logging.LogMaxAgeDays,
		}

		return slog.New(slog.NewJSONHandler(rotated, opts))
	}

	var w io.Writer = os.Stderr
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewTextHandler(w, opts))
	}

	return slog.New(slog.NewJSONHandler(w, opts))
}

// resolveServerURL returns the effective server URL: the --server flag,
// then persisted sync settings, then the local embedded server.
func resolveServerURL() string {
	if flagServer != "" {
		return flagServer
	}

	settings := cliCtx.StateStore.LoadSettings()
	if settings.ServerURL != "" {
		return settings.ServerURL
	}

	appSettings, err := config.LoadAppSettings(config.AppSettingsPath())
	if err != nil {
		appSettings = config.DefaultAppSettings()
	}

	return fmt.Sprintf("http://localhost:%d", appSettings.Port)
}

// newAPIClient builds a sync API client for serverURL with the configured
// rate limit applied.
func newAPIClient(serverURL, token string) *huntlyapi.Client {
	client := huntlyapi.NewClient(serverURL, token, nil, cliCtx.Logger)

	if rps := cliCtx.Cfg.Network.RequestsPerSecond; rps > 0 {
		client.SetRateLimit(rps)
	}

	return client
}

// daemonPIDPath returns the daemon PID file location.
func daemonPIDPath() string {
	return filepath.Join(cliCtx.DataDir, "daemon.pid")
}
