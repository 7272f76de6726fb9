package huntlyapi

// Wire types for the sync API. The server speaks camelCase JSON; the field
// tags below are the contract and must not be renamed.

// ItemMeta is one listed library item. Metadata only — the article body is
// fetched separately through FetchContentBatch.
type ItemMeta struct {
	ID                 int64   `json:"id"`
	Title              *string `json:"title"`
	URL                *string `json:"url"`
	Author             *string `json:"author"`
	AuthorScreenName   *string `json:"authorScreenName"`
	ConnectorType      *int    `json:"connectorType"`
	ConnectorID        *int    `json:"connectorId"`
	ConnectorName      *string `json:"connectorName"`
	FolderID           *int    `json:"folderId"`
	FolderName         *string `json:"folderName"`
	ContentType        *int    `json:"contentType"`
	SavedAt            *string `json:"savedAt"`
	ArchivedAt         *string `json:"archivedAt"`
	UpdatedAt          *string `json:"updatedAt"`
	CreatedAt          *string `json:"createdAt"`
	LastReadAt         *string `json:"lastReadAt"`
	Starred            *bool   `json:"starred"`
	ReadLater          *bool   `json:"readLater"`
	LibrarySaveStatus  *int    `json:"librarySaveStatus"`
	HighlightCount     *int    `json:"highlightCount"`
	ThumbURL           *string `json:"thumbUrl"`
	PageJSONProperties *string `json:"pageJsonProperties"`
}

// ListResponse is one page of a cursor-paginated category listing.
type ListResponse struct {
	Items        []ItemMeta `json:"items"`
	HasMore      bool       `json:"hasMore"`
	NextCursorAt *string    `json:"nextCursorAt"`
	NextCursorID *int64     `json:"nextCursorId"`
	Count        *int       `json:"count"`
	SyncAt       *string    `json:"syncAt"`
}

// ItemContent is the on-demand content of one item. Markdown is the
// server-side pre-rendered body; Content is the raw HTML and is unused by
// the exporter.
type ItemContent struct {
	ID         int64           `json:"id"`
	Title      *string         `json:"title"`
	Content    *string         `json:"content"`
	Markdown   *string         `json:"markdown"`
	UpdatedAt  *string         `json:"updatedAt"`
	Highlights []HighlightInfo `json:"highlights"`
}

// HighlightInfo is one text highlight attached to an item's content.
type HighlightInfo struct {
	ID        int64   `json:"id"`
	Text      *string `json:"text"`
	CreatedAt *string `json:"createdAt"`
}

// PageItem is the original page-list shape returned by /api/page/list.
// Used by the library preview, not by the sync pipeline.
type PageItem struct {
	ID                 int64   `json:"id"`
	Title              *string `json:"title"`
	URL                *string `json:"url"`
	Author             *string `json:"author"`
	Domain             *string `json:"domain"`
	ConnectorType      *int    `json:"connectorType"`
	ContentType        *int    `json:"contentType"`
	RecordAt           *string `json:"recordAt"`
	ConnectedAt        *string `json:"connectedAt"`
	UpdatedAt          *string `json:"updatedAt"`
	PageJSONProperties *string `json:"pageJsonProperties"`
	Starred            *bool   `json:"starred"`
	ReadLater          *bool   `json:"readLater"`
	Category           *string `json:"category"`
	SiteName           *string `json:"siteName"`
}

// envelope is the server's generic response wrapper for auth endpoints.
// Code 0 means success; 428 means authorization pending (device flow);
// anything else is an error carrying Message.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// envelopeCodePending is the server's "authorization pending" code for
// device-token polling.
const envelopeCodePending = 428

// DeviceCode is the server's answer to a device-code request. The user
// approves UserCode at VerificationURL; the client polls with DeviceCode.
type DeviceCode struct {
	DeviceCode      string `json:"deviceCode"`
	UserCode        string `json:"userCode"`
	VerificationURL string `json:"verificationUrl"`
	IntervalSeconds int    `json:"intervalSeconds"`
}

// DeviceToken is the granted credential: the sync token plus the canonical
// server URL the token belongs to.
type DeviceToken struct {
	Token     string `json:"token"`
	ServerURL string `json:"serverUrl"`
}

// Str dereferences an optional wire string, returning "" when absent.
func Str(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
