package syncer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
	"github.com/lcomplete/huntly-companion/internal/metastore"
)

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func testMeta(id int64, title, updatedAt string) huntlyapi.ItemMeta {
	m := huntlyapi.ItemMeta{ID: id, ContentType: intp(0)}
	if title != "" {
		m.Title = strp(title)
	}

	if updatedAt != "" {
		m.UpdatedAt = strp(updatedAt)
	}

	return m
}

func indexFor(batch ...huntlyapi.ItemMeta) *metastore.CategoryIndex {
	idx := &metastore.CategoryIndex{Category: "Saved"}
	for i := range batch {
		idx.Items = append(idx.Items, metastore.NewIndexItem(&batch[i]))
	}

	idx.TotalCount = len(idx.Items)

	return idx
}

func TestDirtySet_NoIndexMeansAllDirty(t *testing.T) {
	batch := []huntlyapi.ItemMeta{testMeta(1, "a", ""), testMeta(2, "b", "")}

	dirty := DirtySet(batch, nil)
	assert.Equal(t, map[int64]bool{1: true, 2: true}, dirty)
}

func TestDirtySet_UnknownIDIsDirty(t *testing.T) {
	idx := indexFor(testMeta(1, "a", ""))
	batch := []huntlyapi.ItemMeta{testMeta(1, "a", ""), testMeta(2, "b", "")}

	dirty := DirtySet(batch, idx)
	assert.Equal(t, map[int64]bool{2: true}, dirty)
}

func TestDirtySet_FilenameChangeIsDirty(t *testing.T) {
	idx := indexFor(testMeta(7, "Hello", "2024-01-01T00:00:00Z"))
	batch := []huntlyapi.ItemMeta{testMeta(7, "Hi", "2024-01-01T00:00:00Z")}

	dirty := DirtySet(batch, idx)
	assert.True(t, dirty[7])
}

func TestDirtySet_UpdatedAtChangeIsDirty(t *testing.T) {
	idx := indexFor(testMeta(7, "Hello", "2024-01-01T00:00:00Z"))
	batch := []huntlyapi.ItemMeta{testMeta(7, "Hello", "2024-01-02T00:00:00Z")}

	dirty := DirtySet(batch, idx)
	assert.True(t, dirty[7])
}

func TestDirtySet_MatchingEntryIsClean(t *testing.T) {
	item := testMeta(7, "Hello", "2024-01-01T00:00:00Z")
	idx := indexFor(item)

	dirty := DirtySet([]huntlyapi.ItemMeta{item}, idx)
	assert.Empty(t, dirty)
}

func TestDirtySet_MissingUpdatedAtOnEitherSideIsClean(t *testing.T) {
	// Rule 4 only fires when both sides carry updatedAt.
	old := testMeta(7, "Hello", "")
	idx := indexFor(old)

	dirty := DirtySet([]huntlyapi.ItemMeta{testMeta(7, "Hello", "2024-01-01T00:00:00Z")}, idx)
	assert.Empty(t, dirty)

	// The same holds when only the index entry carries updatedAt.
	idx = indexFor(testMeta(7, "Hello", "2024-01-01T00:00:00Z"))

	dirty = DirtySet([]huntlyapi.ItemMeta{testMeta(7, "Hello", "")}, idx)
	assert.Empty(t, dirty)
}

func TestDirtySet_IgnoresFileExistence(t *testing.T) {
	// The index says clean; the file being gone does not matter here.
	item := testMeta(7, "Hello", "2024-01-01T00:00:00Z")
	idx := indexFor(item)

	dirty := DirtySet([]huntlyapi.ItemMeta{item}, idx)
	assert.Empty(t, dirty)
}

func TestShouldUpdateItem(t *testing.T) {
	dir := t.TempDir()

	missing := testMeta(1, "gone", "2024-01-01T00:00:00Z")
	assert.True(t, ShouldUpdateItem(dir, &missing))

	// Freshly written file is newer than a past updatedAt: no update.
	fresh := testMeta(2, "fresh", "2024-01-01T00:00:00Z")
	path := filepath.Join(dir, "2-page-fresh.md")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	assert.False(t, ShouldUpdateItem(dir, &fresh))

	// Server change after the file was written: update.
	future := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	stale := testMeta(2, "fresh", future)
	assert.True(t, ShouldUpdateItem(dir, &stale))

	// Missing updatedAt means update.
	noStamp := testMeta(2, "fresh", "")
	assert.True(t, ShouldUpdateItem(dir, &noStamp))

	// Unparseable updatedAt means update.
	bad := testMeta(2, "fresh", "not-a-time")
	assert.True(t, ShouldUpdateItem(dir, &bad))
}
