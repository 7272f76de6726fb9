package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lcomplete/huntly-companion/internal/category"
	"github.com/lcomplete/huntly-companion/internal/lease"
	"github.com/lcomplete/huntly-companion/internal/metastore"
)

// Orchestrator drives one sync pass: acquire the folder lease, run every
// category in the fixed order, aggregate counts and errors.
type Orchestrator struct {
	client       apiClient
	exportFolder string
	logger       *slog.Logger

	// acquireLease is injectable for tests; defaults to lease.Acquire.
	acquireLease func(folder string, logger *slog.Logger) (*lease.Lease, error)
}

// NewOrchestrator creates an Orchestrator exporting to exportFolder through
// client.
func NewOrchestrator(client apiClient, exportFolder string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		client:       client,
		exportFolder: exportFolder,
		logger:       logger,
		acquireLease: lease.Acquire,
	}
}

// DoSync runs one pass over all six categories. Lease acquisition failure
// is fatal; a category's fatal error becomes one entry in the result's
// error list and the pass continues with the next category. The lease is
// released on every exit path.
func (o *Orchestrator) DoSync(ctx context.Context, lastSyncAt *string) (*SyncResult, error) {
	result := &SyncResult{
		Errors:        []string{},
		IsIncremental: lastSyncAt != nil,
	}

	folderLease, err := o.acquireLease(o.exportFolder, o.logger)
	if err != nil {
		return nil, fmt.Errorf("export folder access error: %w", err)
	}
	defer folderLease.Release()

	store := metastore.NewStore(o.exportFolder, o.logger)
	syncer := NewCategorySyncer(o.client, store, o.exportFolder, o.logger)

	for _, cat := range category.All() {
		catResult, err := syncer.Sync(ctx, cat)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Failed to sync %s: %v", cat.FolderName(), err))

			continue
		}

		result.SyncedCount += catResult.Synced
		result.SkippedCount += catResult.Skipped
		result.Errors = append(result.Errors, catResult.Errors...)
	}

	o.logger.Info("sync pass complete",
		slog.Int("synced", result.SyncedCount),
		slog.Int("skipped", result.SkippedCount),
		slog.Int("errors", len(result.Errors)),
	)

	return result, nil
}
