package metastore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcomplete/huntly-companion/internal/category"
	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
)

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func itemMeta(id int64, title string) huntlyapi.ItemMeta {
	return huntlyapi.ItemMeta{ID: id, Title: strp(title), ContentType: intp(0)}
}

func TestReadIndex_AbsentOnMissingAndMalformed(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	assert.Nil(t, s.ReadIndex(category.Saved))

	require.NoError(t, s.EnsureDir())
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "saved-index.json"), []byte("{broken"), 0o644))

	assert.Nil(t, s.ReadIndex(category.Saved))
}

func TestUpsertIndex_MergesAndSortsDescending(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	require.NoError(t, s.UpsertIndex(category.Saved,
		[]huntlyapi.ItemMeta{itemMeta(1, "one"), itemMeta(3, "three")}, "2024-01-01T00:00:00Z"))

	// Second pass updates id 3 and adds id 2; id 1 must survive the merge.
	require.NoError(t, s.UpsertIndex(category.Saved,
		[]huntlyapi.ItemMeta{itemMeta(3, "three v2"), itemMeta(2, "two")}, "2024-01-02T00:00:00Z"))

	idx := s.ReadIndex(category.Saved)
	require.NotNil(t, idx)

	assert.Equal(t, "Saved", idx.Category)
	assert.Equal(t, "2024-01-02T00:00:00Z", idx.SyncAt)
	assert.Equal(t, 3, idx.TotalCount)
	require.Len(t, idx.Items, 3)

	assert.Equal(t, int64(3), idx.Items[0].ID)
	assert.Equal(t, "3-page-three v2.md", idx.Items[0].Filename)
	assert.Equal(t, int64(2), idx.Items[1].ID)
	assert.Equal(t, int64(1), idx.Items[2].ID)
}

func TestIndexJSON_UsesWireKeys(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)

	m := itemMeta(7, "Hello")
	m.ConnectorID = intp(42)
	m.UpdatedAt = strp("2024-01-01T00:00:00Z")

	require.NoError(t, s.UpsertIndex(category.Twitter, []huntlyapi.ItemMeta{m}, "2024-01-01T00:00:00Z"))

	data, err := os.ReadFile(filepath.Join(dir, ".huntly", "x-index.json"))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "X", raw["category"])
	assert.Contains(t, raw, "syncAt")
	assert.Contains(t, raw, "totalCount")

	items := raw["items"].([]any)
	entry := items[0].(map[string]any)
	assert.Contains(t, entry, "connectorId")
	assert.Contains(t, entry, "updatedAt")
	assert.Contains(t, entry, "highlightCount")
}

func TestCursor_RoundTripAndClear(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	assert.Nil(t, s.ReadCursor(category.Feeds))

	id := int64(7)
	require.NoError(t, s.WriteCursor(category.Feeds, &Cursor{
		LastCursorAt: strp("2024-01-01T00:00:00Z"),
		LastCursorID: &id,
		LastSyncAt:   strp("2024-01-01T00:00:01Z"),
	}))

	c := s.ReadCursor(category.Feeds)
	require.NotNil(t, c)
	assert.Equal(t, "2024-01-01T00:00:00Z", *c.LastCursorAt)
	assert.Equal(t, int64(7), *c.LastCursorID)

	require.NoError(t, s.ClearCursor(category.Feeds))
	assert.Nil(t, s.ReadCursor(category.Feeds))

	// Clearing an absent cursor is not an error.
	require.NoError(t, s.ClearCursor(category.Feeds))

	_, err := os.Stat(filepath.Join(s.Dir(), "feeds-cursor.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestFeedIndexes(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)

	group := []huntlyapi.ItemMeta{itemMeta(10, "a"), itemMeta(11, "b")}
	require.NoError(t, s.WriteFeedIndex(42, "Blog_A", group, "2024-01-01T00:00:00Z"))

	data, err := os.ReadFile(filepath.Join(dir, ".huntly", "feeds-42-index.json"))
	require.NoError(t, err)

	var idx CategoryIndex
	require.NoError(t, json.Unmarshal(data, &idx))
	assert.Equal(t, "Blog_A", idx.Category)
	assert.Equal(t, 2, idx.TotalCount)

	require.NoError(t, s.WriteFeedsMasterIndex([]FeedSummary{
		{ConnectorID: 42, ConnectorName: "Blog_A", Folder: "42-Blog_A", ItemCount: 2},
		{ConnectorID: 43, ConnectorName: "Other", Folder: "43-Other", ItemCount: 1},
	}, "2024-01-01T00:00:00Z"))

	data, err = os.ReadFile(filepath.Join(dir, ".huntly", "feeds-index.json"))
	require.NoError(t, err)

	var master FeedsMasterIndex
	require.NoError(t, json.Unmarshal(data, &master))
	assert.Equal(t, "Feeds", master.Category)
	assert.Equal(t, 2, master.TotalFeeds)
	require.Len(t, master.Feeds, 2)
}
