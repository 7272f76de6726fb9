package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcomplete/huntly-companion/internal/config"
	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
	"github.com/lcomplete/huntly-companion/internal/syncer"
	"github.com/lcomplete/huntly-companion/internal/tokenstore"
)

// newTestCLIContext wires the global CLI context against temp directories.
func newTestCLIContext(t *testing.T) (dataDir string) {
	t.Helper()

	dataDir = t.TempDir()

	// Keep path resolution away from the real user directories.
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dataDir, "xdg-config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dataDir, "xdg-data"))

	cliCtx = &CLIContext{
		Cfg:        config.Defaults(),
		DataDir:    dataDir,
		StateStore: syncer.NewStateStore(dataDir),
		Tokens:     tokenstore.NewStore(dataDir),
		Logger:     slog.Default(),
	}

	flagServer = ""
	flagToken = ""
	flagJSON = false
	flagQuiet = true

	t.Cleanup(func() {
		cliCtx = nil
		flagServer = ""
		flagToken = ""
		flagQuiet = false
	})

	return dataDir
}

// huntlyTestServer serves one Saved item and content for it.
func huntlyTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	strp := func(s string) *string { return &s }
	id := int64(7)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/sync/saved":
			_ = json.NewEncoder(w).Encode(huntlyapi.ListResponse{
				Items: []huntlyapi.ItemMeta{{
					ID:        7,
					Title:     strp("Hello"),
					UpdatedAt: strp("2024-01-01T00:00:00Z"),
				}},
				NextCursorAt: strp("2024-01-01T00:00:00Z"),
				NextCursorID: &id,
			})
		case "/api/sync/content/batch":
			_ = json.NewEncoder(w).Encode([]huntlyapi.ItemContent{
				{ID: 7, Markdown: strp("Body.")},
			})
		default:
			// Other category listings are empty.
			_ = json.NewEncoder(w).Encode(huntlyapi.ListResponse{})
		}
	}))
}

func TestRunSync_EndToEnd(t *testing.T) {
	dataDir := newTestCLIContext(t)

	srv := huntlyTestServer(t)
	defer srv.Close()

	exportDir := t.TempDir()
	flagServer = srv.URL
	flagToken = "tok"

	require.NoError(t, runSync(context.Background(), exportDir, false))

	data, err := os.ReadFile(filepath.Join(exportDir, "Saved", "7-page-Hello.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Hello")

	// A clean pass advances the persisted marker.
	settings := syncer.NewStateStore(dataDir).LoadSettings()
	assert.NotNil(t, settings.LastSyncAt)
}

func TestRunSync_NoFolderConfigured(t *testing.T) {
	newTestCLIContext(t)

	err := runSync(context.Background(), "", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export folder")
}

func TestRunSync_MissingTokenFails(t *testing.T) {
	newTestCLIContext(t)

	flagServer = "http://localhost:1"

	err := runSync(context.Background(), t.TempDir(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, tokenstore.ErrTokenMissing)
}
