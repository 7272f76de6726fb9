package syncer

import (
	"os"
	"path/filepath"
	"time"

	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
	"github.com/lcomplete/huntly-companion/internal/markdown"
	"github.com/lcomplete/huntly-companion/internal/metastore"
)

// DirtySet returns the ids in batch whose content must be re-fetched,
// judged against the on-disk index. The rules, in order:
//
//  1. no index ⇒ every id is dirty
//  2. id not in the index ⇒ dirty
//  3. the filename computed from the new metadata differs from the indexed
//     one (title changed, type flipped) ⇒ dirty
//  4. both sides carry updatedAt and the strings differ ⇒ dirty
//  5. otherwise clean
//
// File mtime and file existence are deliberately not consulted here: index
// and files are produced together, and drift is treated as foreign
// modification. See ShouldUpdateItem for the legacy no-index fallback.
func DirtySet(batch []huntlyapi.ItemMeta, index *metastore.CategoryIndex) map[int64]bool {
	dirty := make(map[int64]bool, len(batch))

	if index == nil {
		for i := range batch {
			dirty[batch[i].ID] = true
		}

		return dirty
	}

	type indexed struct {
		filename  string
		updatedAt *string
	}

	existing := make(map[int64]indexed, len(index.Items))
	for _, item := range index.Items {
		existing[item.ID] = indexed{filename: item.Filename, updatedAt: item.UpdatedAt}
	}

	for i := range batch {
		item := &batch[i]

		old, ok := existing[item.ID]
		if !ok {
			dirty[item.ID] = true
			continue
		}

		if old.filename != markdown.Filename(item) {
			dirty[item.ID] = true
			continue
		}

		if item.UpdatedAt != nil && old.updatedAt != nil && *item.UpdatedAt != *old.updatedAt {
			dirty[item.ID] = true
		}
	}

	return dirty
}

// ShouldUpdateItem is the legacy freshness check: compare the exported
// file's mtime against the item's updatedAt. Used only when a category has
// no index — it prunes re-downloads of files that are provably newer than
// the server's last change. Any doubt (missing file, missing or
// unparseable timestamps) means update.
func ShouldUpdateItem(dir string, meta *huntlyapi.ItemMeta) bool {
	path := filepath.Join(dir, markdown.Filename(meta))

	info, err := os.Stat(path)
	if err != nil {
		return true
	}

	if meta.UpdatedAt == nil {
		return true
	}

	updatedAt, err := time.Parse(time.RFC3339, *meta.UpdatedAt)
	if err != nil {
		return true
	}

	return updatedAt.After(info.ModTime())
}
