package huntlyapi

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/lcomplete/huntly-companion/internal/category"
)

// listLimit is the fixed page size for category listings. One batch per
// sync tick bounds memory and background latency; a backlog catches up over
// subsequent ticks.
const listLimit = 100

// ListOptions carries the optional incremental and cursor parameters for a
// category listing. Zero values are omitted from the query.
type ListOptions struct {
	// After restricts the listing to items changed after this RFC3339
	// timestamp (updatedAfter, or readAfter for RecentlyRead).
	After string

	// CursorAt and CursorID resume a paginated listing where the previous
	// page left off. CursorID is only sent when non-nil.
	CursorAt string
	CursorID *int64
}

// ListCategory fetches one metadata page for cat. The response never
// includes article bodies. Non-2xx responses fail with *APIError.
func (c *Client) ListCategory(
	ctx context.Context, cat category.Category, opts ListOptions,
) (*ListResponse, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(listLimit))

	if opts.After != "" {
		query.Set(cat.AfterParam(), opts.After)
	}

	if opts.CursorAt != "" {
		query.Set(cat.CursorAtParam(), opts.CursorAt)
	}

	if opts.CursorID != nil {
		query.Set("cursorId", strconv.FormatInt(*opts.CursorID, 10))
	}

	resp, err := c.get(ctx, cat.APIPath(), query)
	if err != nil {
		return nil, err
	}

	var list ListResponse
	if err := decodeBody(resp, &list); err != nil {
		return nil, err
	}

	c.logger.Debug("listed category",
		slog.String("category", cat.String()),
		slog.Int("items", len(list.Items)),
		slog.Bool("has_more", list.HasMore),
	)

	return &list, nil
}

// FetchLibraryPages fetches the saved-page listing used by the library
// preview. Not part of the sync pipeline.
func (c *Client) FetchLibraryPages(ctx context.Context) ([]PageItem, error) {
	query := url.Values{}
	query.Set("saveStatus", "SAVED")
	query.Set("sort", "SAVED_AT")
	query.Set("count", strconv.Itoa(listLimit))

	resp, err := c.get(ctx, "/api/page/list", query)
	if err != nil {
		return nil, err
	}

	var pages []PageItem
	if err := decodeBody(resp, &pages); err != nil {
		return nil, err
	}

	return pages, nil
}
