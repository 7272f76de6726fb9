package huntlyapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcomplete/huntly-companion/internal/category"
)

// noopSleep returns immediately, for fast device-flow tests.
func noopSleep(_ context.Context, _ time.Duration) error {
	return nil
}

// newTestClient creates a Client pointing at the given httptest server.
func newTestClient(t *testing.T, url string) *Client {
	t.Helper()

	c := NewClient(url, "test-token", http.DefaultClient, nil)
	c.sleepFunc = noopSleep

	return c
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://localhost:8123///", "t", nil, nil)
	assert.Equal(t, "http://localhost:8123", c.ServerURL())
}

func TestListCategory_SendsTokenAndCursorParams(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	var gotToken string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotToken = r.Header.Get("X-Huntly-Sync-Token")

		_ = json.NewEncoder(w).Encode(ListResponse{Items: []ItemMeta{}, HasMore: false})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	cursorID := int64(42)

	_, err := c.ListCategory(context.Background(), category.Saved, ListOptions{
		CursorAt: "2024-01-01T00:00:00Z",
		CursorID: &cursorID,
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/sync/saved", gotPath)
	assert.Equal(t, "test-token", gotToken)
	assert.Equal(t, []string{"100"}, gotQuery["limit"])
	assert.Equal(t, []string{"2024-01-01T00:00:00Z"}, gotQuery["cursorUpdatedAt"])
	assert.Equal(t, []string{"42"}, gotQuery["cursorId"])
	assert.NotContains(t, gotQuery, "updatedAfter")
}

func TestListCategory_RecentlyReadUsesReadParams(t *testing.T) {
	var gotQuery map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(ListResponse{})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	_, err := c.ListCategory(context.Background(), category.RecentlyRead, ListOptions{
		After:    "2024-02-01T00:00:00Z",
		CursorAt: "2024-03-01T00:00:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-02-01T00:00:00Z"}, gotQuery["readAfter"])
	assert.Equal(t, []string{"2024-03-01T00:00:00Z"}, gotQuery["cursorReadAt"])
	assert.NotContains(t, gotQuery, "cursorUpdatedAt")
}

func TestListCategory_ServerErrorClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	_, err := c.ListCategory(context.Background(), category.Saved, ListOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServer)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestFetchContentBatch_PostsIDArray(t *testing.T) {
	var gotBody []int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/sync/content/batch", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode([]ItemContent{{ID: 7}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	contents, err := c.FetchContentBatch(context.Background(), []int64{5, 6, 7})
	require.NoError(t, err)

	assert.Equal(t, []int64{5, 6, 7}, gotBody)
	require.Len(t, contents, 1)
	assert.Equal(t, int64(7), contents[0].ID)
}

func TestFetchContentBatch_MalformedJSONIsProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	_, err := c.FetchContentBatch(context.Background(), []int64{1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestCheckHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			w.WriteHeader(http.StatusOK)
			return
		}

		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.True(t, newTestClient(t, srv.URL).CheckHealth(context.Background()))

	down := newTestClient(t, "http://127.0.0.1:1")
	assert.False(t, down.CheckHealth(context.Background()))
}

func TestVerifyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Huntly-Sync-Token") == "good" {
			w.WriteHeader(http.StatusOK)
			return
		}

		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	good := NewClient(srv.URL, "good", http.DefaultClient, nil)
	assert.True(t, good.VerifyToken(context.Background()))

	bad := NewClient(srv.URL, "bad", http.DefaultClient, nil)
	assert.False(t, bad.VerifyToken(context.Background()))
}
