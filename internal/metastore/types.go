// Package metastore persists the sidecar metadata the exporter keeps under
// the hidden .huntly directory of the export folder: per-category indexes,
// per-category cursors, and the feeds master/sub-indexes.
//
// Reads are tolerant: a missing or malformed file is "absent", never an
// error — the syncer treats absent metadata as "sync everything in this
// batch". Writes are pretty-printed JSON, full-file rewrites.
package metastore

import (
	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
	"github.com/lcomplete/huntly-companion/internal/markdown"
)

// IndexItem is one entry of a category index: a projection of the item's
// metadata plus the filename assigned to it. The JSON keys are a wire
// contract shared with the desktop UI.
type IndexItem struct {
	ID             int64   `json:"id"`
	Filename       string  `json:"filename"`
	Type           string  `json:"type"` // "x" or "page"
	ContentType    *int    `json:"contentType"`
	ConnectorType  *int    `json:"connectorType"`
	ConnectorID    *int    `json:"connectorId"`
	FolderID       *int    `json:"folderId"`
	Starred        *bool   `json:"starred"`
	ReadLater      *bool   `json:"readLater"`
	SavedAt        *string `json:"savedAt"`
	UpdatedAt      *string `json:"updatedAt"`
	CreatedAt      *string `json:"createdAt"`
	LastReadAt     *string `json:"lastReadAt"`
	ArchivedAt     *string `json:"archivedAt"`
	HighlightCount *int    `json:"highlightCount"`
}

// CategoryIndex is the manifest of everything the exporter has written for
// one category (or one feed connector, where Category is the connector
// name).
type CategoryIndex struct {
	Category   string      `json:"category"`
	SyncAt     string      `json:"syncAt"`
	TotalCount int         `json:"totalCount"`
	Items      []IndexItem `json:"items"`
}

// Cursor resumes a paginated category listing on the server side.
type Cursor struct {
	LastCursorAt *string `json:"lastCursorAt"`
	LastCursorID *int64  `json:"lastCursorId"`
	LastSyncAt   *string `json:"lastSyncAt"`
}

// FeedSummary is one connector's row in the feeds master index.
type FeedSummary struct {
	ConnectorID   int    `json:"connectorId"`
	ConnectorName string `json:"connectorName"`
	Folder        string `json:"folder"`
	ItemCount     int    `json:"itemCount"`
}

// FeedsMasterIndex lists every feed connector seen in the latest Feeds pass.
type FeedsMasterIndex struct {
	Category   string        `json:"category"`
	SyncAt     string        `json:"syncAt"`
	TotalFeeds int           `json:"totalFeeds"`
	Feeds      []FeedSummary `json:"feeds"`
}

// NewIndexItem projects item metadata into an index entry, assigning the
// deterministic filename.
func NewIndexItem(meta *huntlyapi.ItemMeta) IndexItem {
	return IndexItem{
		ID:             meta.ID,
		Filename:       markdown.Filename(meta),
		Type:           markdown.TypeLabel(meta),
		ContentType:    meta.ContentType,
		ConnectorType:  meta.ConnectorType,
		ConnectorID:    meta.ConnectorID,
		FolderID:       meta.FolderID,
		Starred:        meta.Starred,
		ReadLater:      meta.ReadLater,
		SavedAt:        meta.SavedAt,
		UpdatedAt:      meta.UpdatedAt,
		CreatedAt:      meta.CreatedAt,
		LastReadAt:     meta.LastReadAt,
		ArchivedAt:     meta.ArchivedAt,
		HighlightCount: meta.HighlightCount,
	}
}
