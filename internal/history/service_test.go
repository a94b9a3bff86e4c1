package history

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tana/tana/internal/testutil"
)

func TestHistoryService_Create(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := NewService(tdb.Conn, tdb.Logger)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	service.SetClock(clock)

	entry, err := service.Create(context.Background(), CreateInput{
		BatchID: "batch-1",
		Action:  ActionOrganize,
		Details: map[string]any{"series": "Blacksad"},
	})
	require.NoError(t, err)

	assert.NotZero(t, entry.ID)
	assert.Equal(t, ActionOrganize, entry.Action)
	assert.Equal(t, "2026-03-01T10:00:00Z", entry.CreatedAt)
}

func TestHistoryService_LogAndList(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	require.NoError(t, service.Log(ctx, "b1", ActionOrganize, MoveData{
		Source: "Blacksad T01.cbz", Destination: "/bd/Blacksad/Blacksad - T01.cbz",
		NewName: "Blacksad - T01.cbz", Series: "Blacksad",
	}))
	require.NoError(t, service.Log(ctx, "b2", ActionDelete, TrashData{Filename: "junk.cbr", SourceDir: "/in"}))
	require.NoError(t, service.Log(ctx, "b3", ActionFixNaming, RenameData{
		Series: "Blacksad", Current: "blacksad 2.cbz", Expected: "Blacksad - T02.cbz",
	}))

	resp, err := service.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, int64(3), resp.TotalCount)
	assert.Equal(t, ActionFixNaming, resp.Items[0].Action, "newest first")
	assert.Equal(t, ActionOrganize, resp.Items[2].Action)
	assert.Equal(t, "Blacksad - T01.cbz", resp.Items[2].Details["newName"])
	assert.Equal(t, "b1", resp.Items[2].BatchID)

	filtered, err := service.List(ctx, ListOptions{Action: string(ActionDelete)})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	assert.Equal(t, int64(1), filtered.TotalCount)
	assert.Equal(t, "junk.cbr", filtered.Items[0].Details["filename"])
}

func TestHistoryService_TrimsToMaxEntries(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := NewService(tdb.Conn, tdb.Logger)
	service.SetMaxEntries(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, service.Log(ctx, "", ActionUndelete, TrashData{Filename: string(rune('a' + i))}))
	}

	resp, err := service.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, "e", resp.Items[0].Details["filename"])
	assert.Equal(t, "c", resp.Items[2].Details["filename"])
}

func TestHistoryService_SetMaxEntriesIgnoresInvalid(t *testing.T) {
	service := NewService(nil, testutil.NewTestLogger(t))
	service.SetMaxEntries(0)
	assert.Equal(t, DefaultMaxEntries, service.MaxEntries())
	service.SetMaxEntries(10)
	assert.Equal(t, 10, service.MaxEntries())
}

func TestHistoryService_Pagination(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, service.Log(ctx, "", ActionDelete, TrashData{Filename: string(rune('a' + i))}))
	}

	resp, err := service.List(ctx, ListOptions{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, "c", resp.Items[0].Details["filename"])
}

func TestHistoryService_DeleteAll(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()
	require.NoError(t, service.Log(ctx, "", ActionDelete, TrashData{Filename: "x.cbz"}))

	require.NoError(t, service.DeleteAll(ctx))

	resp, err := service.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Zero(t, resp.TotalCount)
}
