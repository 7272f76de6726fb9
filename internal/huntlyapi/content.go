package huntlyapi

import (
	"context"
	"log/slog"
)

// FetchContentBatch fetches pre-rendered content for up to fifty items in
// one request. The server does not guarantee response order, and may omit
// ids it no longer knows.
func (c *Client) FetchContentBatch(ctx context.Context, ids []int64) ([]ItemContent, error) {
	resp, err := c.postJSON(ctx, "/api/sync/content/batch", ids)
	if err != nil {
		return nil, err
	}

	var contents []ItemContent
	if err := decodeBody(resp, &contents); err != nil {
		return nil, err
	}

	c.logger.Debug("fetched content batch",
		slog.Int("requested", len(ids)),
		slog.Int("returned", len(contents)),
	)

	return contents, nil
}
