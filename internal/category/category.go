// Package category defines the closed set of content buckets mirrored from
// the Huntly server. It is a leaf package with no dependencies — imported by
// the API client, the metadata store, and the sync engine.
package category

// Category identifies one of the six logical content buckets. Each category
// maps to a server list endpoint and a top-level subdirectory of the export
// folder. The zero value is Saved.
type Category int

const (
	Saved Category = iota
	Twitter
	Github
	Feeds
	RecentlyRead
	Highlights
)

// All returns the categories in sync order. The orchestrator processes them
// in exactly this order on every pass.
func All() []Category {
	return []Category{Saved, Twitter, Github, Feeds, RecentlyRead, Highlights}
}

// APIPath returns the server list endpoint for this category.
func (c Category) APIPath() string {
	switch c {
	case Saved:
		return "/api/sync/saved"
	case Twitter:
		return "/api/sync/x"
	case Github:
		return "/api/sync/github"
	case Feeds:
		return "/api/sync/feeds"
	case RecentlyRead:
		return "/api/sync/recently-read"
	case Highlights:
		return "/api/sync/highlights"
	default:
		return ""
	}
}

// FolderName returns the export subdirectory name for this category.
// Twitter exports into "X", matching the product's rebranded folder name.
func (c Category) FolderName() string {
	switch c {
	case Saved:
		return "Saved"
	case Twitter:
		return "X"
	case Github:
		return "Github"
	case Feeds:
		return "Feeds"
	case RecentlyRead:
		return "RecentlyRead"
	case Highlights:
		return "Highlights"
	default:
		return ""
	}
}

func (c Category) String() string {
	return c.FolderName()
}

// AfterParam returns the query parameter name for the incremental lower
// bound. RecentlyRead is keyed by read time on the server; every other
// category is keyed by update time.
func (c Category) AfterParam() string {
	if c == RecentlyRead {
		return "readAfter"
	}

	return "updatedAfter"
}

// CursorAtParam returns the query parameter name for the cursor timestamp,
// following the same read-time split as AfterParam.
func (c Category) CursorAtParam() string {
	if c == RecentlyRead {
		return "cursorReadAt"
	}

	return "cursorUpdatedAt"
}
