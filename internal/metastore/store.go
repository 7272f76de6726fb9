package metastore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lcomplete/huntly-companion/internal/category"
	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
)

// MetadataDirName is the hidden sidecar directory under the export folder.
const MetadataDirName = ".huntly"

// File permissions match the teacher's data files: owner rw, world r.
const (
	filePerms = 0o644
	dirPerms  = 0o755
)

// Store reads and writes the sidecar files of one export folder.
type Store struct {
	dir    string // <exportFolder>/.huntly
	logger *slog.Logger
}

// NewStore creates a Store for the given export folder. The sidecar
// directory is created lazily on first write via EnsureDir.
func NewStore(exportFolder string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		dir:    filepath.Join(exportFolder, MetadataDirName),
		logger: logger,
	}
}

// Dir returns the sidecar directory path.
func (s *Store) Dir() string {
	return s.dir
}

// EnsureDir creates the sidecar directory if needed.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, dirPerms); err != nil {
		return fmt.Errorf("metastore: creating %s: %w", s.dir, err)
	}

	return nil
}

// categoryKey is the lowercase folder name used in sidecar filenames
// (saved-index.json, x-cursor.json, ...).
func categoryKey(cat category.Category) string {
	return strings.ToLower(cat.FolderName())
}

func (s *Store) indexPath(cat category.Category) string {
	return filepath.Join(s.dir, categoryKey(cat)+"-index.json")
}

func (s *Store) cursorPath(cat category.Category) string {
	return filepath.Join(s.dir, categoryKey(cat)+"-cursor.json")
}

func (s *Store) feedIndexPath(connectorID int) string {
	return filepath.Join(s.dir, fmt.Sprintf("feeds-%d-index.json", connectorID))
}

func (s *Store) feedsMasterPath() string {
	return filepath.Join(s.dir, "feeds-index.json")
}

// ReadIndex returns the category index, or nil when the file is missing or
// malformed.
func (s *Store) ReadIndex(cat category.Category) *CategoryIndex {
	var idx CategoryIndex
	if !s.readJSON(s.indexPath(cat), &idx) {
		return nil
	}

	return &idx
}

// ReadCursor returns the saved cursor, or nil when absent or malformed.
func (s *Store) ReadCursor(cat category.Category) *Cursor {
	var c Cursor
	if !s.readJSON(s.cursorPath(cat), &c) {
		return nil
	}

	return &c
}

// WriteCursor persists the resumption cursor for a category.
func (s *Store) WriteCursor(cat category.Category, c *Cursor) error {
	return s.writeJSON(s.cursorPath(cat), c)
}

// ClearCursor removes the cursor file, resetting the category to list from
// the newest items on the next pass. Missing files are fine.
func (s *Store) ClearCursor(cat category.Category) error {
	err := os.Remove(s.cursorPath(cat))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("metastore: clearing cursor for %s: %w", cat, err)
	}

	return nil
}

// UpsertIndex merges a freshly-listed batch into the on-disk category index
// and rewrites it. The index carries the union of all items ever seen:
// entries are upserted by id, then sorted by id descending.
func (s *Store) UpsertIndex(cat category.Category, batch []huntlyapi.ItemMeta, syncAt string) error {
	items := mergeItems(s.ReadIndex(cat), batch)

	return s.writeJSON(s.indexPath(cat), &CategoryIndex{
		Category:   cat.FolderName(),
		SyncAt:     syncAt,
		TotalCount: len(items),
		Items:      items,
	})
}

// WriteFeedIndex rewrites one connector's sub-index with the items of the
// current batch group. Category carries the connector name.
func (s *Store) WriteFeedIndex(connectorID int, connectorName string, group []huntlyapi.ItemMeta, syncAt string) error {
	items := make([]IndexItem, 0, len(group))
	for i := range group {
		items = append(items, NewIndexItem(&group[i]))
	}

	return s.writeJSON(s.feedIndexPath(connectorID), &CategoryIndex{
		Category:   connectorName,
		SyncAt:     syncAt,
		TotalCount: len(items),
		Items:      items,
	})
}

// WriteFeedsMasterIndex rewrites the master list of feed connectors.
func (s *Store) WriteFeedsMasterIndex(feeds []FeedSummary, syncAt string) error {
	return s.writeJSON(s.feedsMasterPath(), &FeedsMasterIndex{
		Category:   "Feeds",
		SyncAt:     syncAt,
		TotalFeeds: len(feeds),
		Feeds:      feeds,
	})
}

// mergeItems upserts the batch into the existing index entries by id and
// returns them sorted by id descending.
func mergeItems(existing *CategoryIndex, batch []huntlyapi.ItemMeta) []IndexItem {
	byID := make(map[int64]IndexItem)

	if existing != nil {
		for _, item := range existing.Items {
			byID[item.ID] = item
		}
	}

	for i := range batch {
		byID[batch[i].ID] = NewIndexItem(&batch[i])
	}

	items := make([]IndexItem, 0, len(byID))
	for _, item := range byID {
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })

	return items
}

// readJSON loads path into v. Returns false on missing file or malformed
// JSON — absent, not an error.
func (s *Store) readJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("unreadable sidecar file treated as absent",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}

		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("malformed sidecar file treated as absent",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)

		return false
	}

	return true
}

// writeJSON writes v to path as pretty-printed JSON via a temp file in the
// same directory, then renames it into place.
func (s *Store) writeJSON(path string, v any) error {
	if err := s.EnsureDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("metastore: encoding %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(s.dir, ".sidecar-*.tmp")
	if err != nil {
		return fmt.Errorf("metastore: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, filePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("metastore: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("metastore: writing %s: %w", filepath.Base(path), err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("metastore: closing %s: %w", filepath.Base(path), err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("metastore: renaming into %s: %w", filepath.Base(path), err)
	}

	success = true

	return nil
}
