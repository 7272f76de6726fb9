package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lcomplete/huntly-companion/internal/category"
	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
	"github.com/lcomplete/huntly-companion/internal/markdown"
	"github.com/lcomplete/huntly-companion/internal/metastore"
)

// contentBatchSize is the chunk size for content-batch requests.
const contentBatchSize = 50

// dirPerms for export directories.
const dirPerms = 0o755

// apiClient is the slice of the Huntly API the category pipeline needs.
// Defined at the consumer; *huntlyapi.Client satisfies it.
type apiClient interface {
	ListCategory(ctx context.Context, cat category.Category, opts huntlyapi.ListOptions) (*huntlyapi.ListResponse, error)
	FetchContentBatch(ctx context.Context, ids []int64) ([]huntlyapi.ItemContent, error)
}

// CategoryResult counts one category's pass. Per-item failures land in
// Errors; they never abort the category.
type CategoryResult struct {
	Synced  int
	Skipped int
	Errors  []string
}

// CategorySyncer runs the per-category pipeline: one metadata batch, dirty
// detection, content fetch, file writes, sidecar updates.
type CategorySyncer struct {
	client       apiClient
	store        *metastore.Store
	exportFolder string
	logger       *slog.Logger
	nowFunc      func() time.Time
}

// NewCategorySyncer creates a syncer writing under exportFolder, with
// sidecars managed by store.
func NewCategorySyncer(
	client apiClient, store *metastore.Store, exportFolder string, logger *slog.Logger,
) *CategorySyncer {
	if logger == nil {
		logger = slog.Default()
	}

	return &CategorySyncer{
		client:       client,
		store:        store,
		exportFolder: exportFolder,
		logger:       logger,
		nowFunc:      time.Now,
	}
}

// now returns the current time as the RFC3339 string used in sidecars.
func (cs *CategorySyncer) now() string {
	return cs.nowFunc().UTC().Format(time.RFC3339)
}

// Sync runs one single-batch pass for cat. A returned error is fatal for
// this category only (list failure, directory failure); per-item failures
// are collected in the result instead.
func (cs *CategorySyncer) Sync(ctx context.Context, cat category.Category) (*CategoryResult, error) {
	result := &CategoryResult{}

	if err := cs.store.EnsureDir(); err != nil {
		return nil, err
	}

	categoryFolder := filepath.Join(cs.exportFolder, cat.FolderName())
	if err := os.MkdirAll(categoryFolder, dirPerms); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", categoryFolder, err)
	}

	index := cs.store.ReadIndex(cat)
	cursor := cs.store.ReadCursor(cat)

	opts := huntlyapi.ListOptions{}
	if cursor != nil {
		opts.CursorAt = huntlyapi.Str(cursor.LastCursorAt)
		opts.CursorID = cursor.LastCursorID
	}

	list, err := cs.client.ListCategory(ctx, cat, opts)
	if err != nil {
		return nil, err
	}

	// An empty batch ends the stream, even if the server claims hasMore:
	// clear the cursor so the next pass resumes from the newest items.
	if len(list.Items) == 0 {
		if cursor != nil {
			cs.logger.Info("no more data, resetting cursor", slog.String("category", cat.String()))
		}

		if err := cs.store.ClearCursor(cat); err != nil {
			return nil, err
		}

		return result, nil
	}

	dirty := cs.dirtySet(cat, categoryFolder, list.Items, index)

	cs.logger.Info("category batch",
		slog.String("category", cat.String()),
		slog.Int("items", len(list.Items)),
		slog.Int("need_sync", len(dirty)),
	)

	if cat == category.Feeds {
		cs.syncFeedsItems(ctx, categoryFolder, list.Items, dirty, result)
	} else {
		cs.syncStandardItems(ctx, categoryFolder, list.Items, dirty, result)
	}

	if err := cs.store.UpsertIndex(cat, list.Items, cs.now()); err != nil {
		return nil, err
	}

	if list.NextCursorAt != nil && list.NextCursorID != nil {
		now := cs.now()
		err := cs.store.WriteCursor(cat, &metastore.Cursor{
			LastCursorAt: list.NextCursorAt,
			LastCursorID: list.NextCursorID,
			LastSyncAt:   &now,
		})
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// dirtySet applies the index rules, with the legacy mtime check pruning the
// all-dirty answer when no index exists yet.
func (cs *CategorySyncer) dirtySet(
	cat category.Category, categoryFolder string, batch []huntlyapi.ItemMeta, index *metastore.CategoryIndex,
) map[int64]bool {
	dirty := DirtySet(batch, index)

	if index != nil {
		return dirty
	}

	for i := range batch {
		item := &batch[i]

		dir := categoryFolder
		if cat == category.Feeds {
			dir = filepath.Join(categoryFolder, feedFolderName(item))
		}

		if !ShouldUpdateItem(dir, item) {
			delete(dirty, item.ID)
		}
	}

	return dirty
}

// syncStandardItems is the writer for every category except Feeds: flat
// directory, content fetched in chunks of fifty.
func (cs *CategorySyncer) syncStandardItems(
	ctx context.Context, dir string, batch []huntlyapi.ItemMeta, dirty map[int64]bool, result *CategoryResult,
) {
	toUpdate := filterDirty(batch, dirty)
	result.Skipped += len(batch) - len(toUpdate)

	cs.exportItems(ctx, dir, toUpdate, result)
}

// syncFeedsItems is the Feeds writer: the batch is partitioned by
// connector, each group gets its own subdirectory and sub-index, and the
// master feeds index is refreshed at the end.
func (cs *CategorySyncer) syncFeedsItems(
	ctx context.Context, feedsFolder string, batch []huntlyapi.ItemMeta, dirty map[int64]bool, result *CategoryResult,
) {
	groups, order := groupByConnector(batch)

	feedList := make([]metastore.FeedSummary, 0, len(order))

	for _, cid := range order {
		group := groups[cid]
		first := &group[0]

		connectorName := markdown.SanitizeDirName(huntlyapi.Str(first.ConnectorName))
		folderName := feedFolderName(first)
		targetFolder := filepath.Join(feedsFolder, folderName)

		if err := os.MkdirAll(targetFolder, dirPerms); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Failed to create feed directory %s: %v", folderName, err))

			continue
		}

		feedList = append(feedList, metastore.FeedSummary{
			ConnectorID:   cid,
			ConnectorName: connectorName,
			Folder:        folderName,
			ItemCount:     len(group),
		})

		toUpdate := filterDirty(group, dirty)
		result.Skipped += len(group) - len(toUpdate)

		cs.exportItems(ctx, targetFolder, toUpdate, result)

		if err := cs.store.WriteFeedIndex(cid, connectorName, group, cs.now()); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Failed to write feed index for %s: %v", connectorName, err))
		}
	}

	if err := cs.store.WriteFeedsMasterIndex(feedList, cs.now()); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Failed to write feeds index: %v", err))
	}
}

// exportItems fetches content for the dirty items in chunks and writes one
// Markdown file per returned content. A failed chunk contributes one error
// entry; its items count as neither synced nor skipped.
func (cs *CategorySyncer) exportItems(
	ctx context.Context, dir string, toUpdate []huntlyapi.ItemMeta, result *CategoryResult,
) {
	if len(toUpdate) == 0 {
		return
	}

	for start := 0; start < len(toUpdate); start += contentBatchSize {
		end := min(start+contentBatchSize, len(toUpdate))
		chunk := toUpdate[start:end]

		ids := make([]int64, 0, len(chunk))
		byID := make(map[int64]*huntlyapi.ItemMeta, len(chunk))

		for i := range chunk {
			ids = append(ids, chunk[i].ID)
			byID[chunk[i].ID] = &chunk[i]
		}

		contents, err := cs.client.FetchContentBatch(ctx, ids)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to fetch content batch: %v", err))

			continue
		}

		for i := range contents {
			content := &contents[i]

			meta, ok := byID[content.ID]
			if !ok {
				continue
			}

			if err := cs.writeItem(dir, meta, content); err != nil {
				title := huntlyapi.Str(meta.Title)
				if title == "" {
					title = "unknown"
				}

				result.Errors = append(result.Errors, fmt.Sprintf("Failed to export %s: %v", title, err))

				continue
			}

			result.Synced++
		}
	}
}

// writeItem renders and writes one item's Markdown file.
func (cs *CategorySyncer) writeItem(dir string, meta *huntlyapi.ItemMeta, content *huntlyapi.ItemContent) error {
	path := filepath.Join(dir, markdown.Filename(meta))

	if err := os.WriteFile(path, []byte(markdown.Document(meta, content)), 0o644); err != nil {
		return err
	}

	cs.logger.Debug("exported item",
		slog.Int64("id", meta.ID),
		slog.String("path", path),
	)

	return nil
}

// feedFolderName returns the "<connectorId>-<safeName>" subdirectory for a
// feed item. A missing connector id maps to 0, a missing name to "unknown".
func feedFolderName(meta *huntlyapi.ItemMeta) string {
	cid := 0
	if meta.ConnectorID != nil {
		cid = *meta.ConnectorID
	}

	return fmt.Sprintf("%d-%s", cid, markdown.SanitizeDirName(huntlyapi.Str(meta.ConnectorName)))
}

// filterDirty returns the items of batch whose id is in the dirty set,
// preserving order.
func filterDirty(batch []huntlyapi.ItemMeta, dirty map[int64]bool) []huntlyapi.ItemMeta {
	out := make([]huntlyapi.ItemMeta, 0, len(dirty))

	for i := range batch {
		if dirty[batch[i].ID] {
			out = append(out, batch[i])
		}
	}

	return out
}

// groupByConnector partitions a Feeds batch by connector id, preserving
// first-seen order so directory creation and index writes are
// deterministic.
func groupByConnector(batch []huntlyapi.ItemMeta) (map[int][]huntlyapi.ItemMeta, []int) {
	groups := make(map[int][]huntlyapi.ItemMeta)
	order := make([]int, 0)

	for i := range batch {
		cid := 0
		if batch[i].ConnectorID != nil {
			cid = *batch[i].ConnectorID
		}

		if _, ok := groups[cid]; !ok {
			order = append(order, cid)
		}

		groups[cid] = append(groups[cid], batch[i])
	}

	return groups, order
}
