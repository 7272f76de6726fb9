package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lcomplete/huntly-companion/internal/syncer"
)

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the background sync scheduler",
		Long: `Run the background scheduler: one sync pass every 60 seconds while the
sync_enabled flag is set in the persisted settings. The settings document is
watched for changes, so toggling the flag or reassigning the export folder
from the desktop UI takes effect without a restart.

Only one daemon runs per data directory; a PID file lock enforces that.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context())
		},
	}

	return cmd
}

// daemon supervises the scheduler against the persisted settings: it starts
// the background task while sync is enabled and configured, stops it when
// the settings say so, and restarts it when server or folder change.
type daemon struct {
	// mu guards scheduler and active: applySettings runs from both the
	// startup path and the watcher goroutine.
	mu        sync.Mutex
	scheduler *syncer.Scheduler
	tracker   *syncer.Tracker
	logger    *slog.Logger

	// active is the settings snapshot the running scheduler was built for.
	active syncer.SyncSettings
}

func runDaemon(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cleanup, err := writePIDFile(daemonPIDPath())
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := syncer.NewTracker(cliCtx.StateStore, cliCtx.Logger)

	d := &daemon{
		tracker: tracker,
		logger:  cliCtx.Logger,
	}

	statusf("huntly-companion daemon started (pid %d)\n", os.Getpid())

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return d.watchSettings(ctx, cliCtx.StateStore.Path())
	})

	group.Go(func() error {
		<-ctx.Done()
		d.stopScheduler()

		return nil
	})

	// Apply the settings as they are at startup.
	d.applySettings(ctx)

	err = group.Wait()
	statusf("huntly-companion daemon stopped\n")

	if err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}

// applySettings reconciles the scheduler with the persisted settings.
func (d *daemon) applySettings(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	settings := cliCtx.StateStore.LoadSettings()

	if !settings.SyncEnabled || settings.ExportFolder == "" {
		if d.scheduler != nil && d.scheduler.Running() {
			d.logger.Info("sync disabled, stopping background task")
			d.stopSchedulerLocked()
		}

		return
	}

	if d.scheduler != nil && d.scheduler.Running() {
		if settings.ServerURL == d.active.ServerURL && settings.ExportFolder == d.active.ExportFolder {
			return
		}

		d.logger.Info("sync settings changed, restarting background task")
		d.stopSchedulerLocked()
	}

	serverURL := settings.ServerURL
	if serverURL == "" {
		serverURL = resolveServerURL()
	}

	token, err := resolveSyncToken(ctx, serverURL, flagToken)
	if err != nil {
		d.logger.Error("cannot start background sync",
			slog.String("server_url", serverURL),
			slog.String("error", err.Error()),
		)
		d.tracker.PushLog("Failed to resolve sync token: " + err.Error())

		return
	}

	client := newAPIClient(serverURL, token)
	orchestrator := syncer.NewOrchestrator(client, settings.ExportFolder, d.logger)

	scheduler := syncer.NewScheduler(d.tracker, cliCtx.StateStore,
		func(ctx context.Context, lastSyncAt *string) (*syncer.SyncResult, error) {
			return orchestrator.DoSync(ctx, lastSyncAt)
		}, d.logger)

	if err := scheduler.Start(ctx, settings.SyncIntervalSeconds, settings.LastSyncAt); err != nil {
		d.logger.Error("failed to start background sync", slog.String("error", err.Error()))

		return
	}

	d.scheduler = scheduler
	d.active = settings
	d.logger.Info("background sync running",
		slog.String("server_url", serverURL),
		slog.String("export_folder", settings.ExportFolder),
	)
}

// stopScheduler stops the running task and waits for it to exit.
func (d *daemon) stopScheduler() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopSchedulerLocked()
}

// stopSchedulerLocked is stopScheduler with the mutex already held.
func (d *daemon) stopSchedulerLocked() {
	if d.scheduler == nil {
		return
	}

	d.scheduler.Stop()
	d.scheduler.Wait()
	d.scheduler = nil
}

// watchSettings re-applies the settings whenever the state document
// changes. The watch is on the directory: editors and the desktop app
// replace the file by rename, which drops a file-level watch.
func (d *daemon) watchSettings(ctx context.Context, storePath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating settings watcher: %w", err)
	}
	defer watcher.Close()

	if err := os.MkdirAll(cliCtx.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	if err := watcher.Add(cliCtx.DataDir); err != nil {
		return fmt.Errorf("watching %s: %w", cliCtx.DataDir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Name != storePath {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			d.logger.Debug("settings document changed", slog.String("op", event.Op.String()))
			d.applySettings(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			d.logger.Warn("settings watcher error", slog.String("error", err.Error()))
		}
	}
}
