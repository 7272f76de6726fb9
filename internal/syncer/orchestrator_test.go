package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcomplete/huntly-companion/internal/category"
	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
	"github.com/lcomplete/huntly-companion/internal/lease"
)

func TestDoSync_AggregatesAllCategories(t *testing.T) {
	dir := t.TempDir()

	client := &fakeClient{
		list: func(cat category.Category, _ huntlyapi.ListOptions) (*huntlyapi.ListResponse, error) {
			if cat != category.Saved {
				return &huntlyapi.ListResponse{}, nil
			}

			return &huntlyapi.ListResponse{
				Items: []huntlyapi.ItemMeta{testMeta(7, "Hello", "2024-01-01T00:00:00Z")},
			}, nil
		},
		content: func(ids []int64) ([]huntlyapi.ItemContent, error) {
			return []huntlyapi.ItemContent{{ID: 7, Markdown: strp("b")}}, nil
		},
	}

	o := NewOrchestrator(client, dir, nil)

	result, err := o.DoSync(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.SyncedCount)
	assert.Equal(t, 0, result.SkippedCount)
	assert.Empty(t, result.Errors)
	assert.False(t, result.IsIncremental)

	// One list call per category.
	assert.Len(t, client.listCalls, len(category.All()))
}

func TestDoSync_IncrementalFlag(t *testing.T) {
	client := &fakeClient{
		list: func(category.Category, huntlyapi.ListOptions) (*huntlyapi.ListResponse, error) {
			return &huntlyapi.ListResponse{}, nil
		},
	}

	o := NewOrchestrator(client, t.TempDir(), nil)

	result, err := o.DoSync(context.Background(), strp("2024-01-01T00:00:00Z"))
	require.NoError(t, err)
	assert.True(t, result.IsIncremental)
}

func TestDoSync_CategoryFailureDoesNotAbortPass(t *testing.T) {
	client := &fakeClient{
		list: func(cat category.Category, _ huntlyapi.ListOptions) (*huntlyapi.ListResponse, error) {
			if cat == category.Twitter {
				return nil, fmt.Errorf("huntlyapi: HTTP 500")
			}

			return &huntlyapi.ListResponse{}, nil
		},
	}

	o := NewOrchestrator(client, t.TempDir(), nil)

	result, err := o.DoSync(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Failed to sync X")

	// The four categories after Twitter still ran.
	assert.Len(t, client.listCalls, len(category.All()))
}

func TestDoSync_LeaseFailureIsFatal(t *testing.T) {
	client := &fakeClient{
		list: func(category.Category, huntlyapi.ListOptions) (*huntlyapi.ListResponse, error) {
			t.Fatal("no category must run without the lease")
			return nil, nil
		},
	}

	o := NewOrchestrator(client, t.TempDir(), nil)
	o.acquireLease = func(string, *slog.Logger) (*lease.Lease, error) {
		return nil, fmt.Errorf("%w: no permission", lease.ErrFolderAccess)
	}

	_, err := o.DoSync(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, lease.ErrFolderAccess))
}
