package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidworks/clipcrawl/internal/video"
)

func TestMemorySink_UpsertOverwrites(t *testing.T) {
	t.Parallel()

	s := NewMemorySink()
	ctx := context.Background()

	first := testRecord("a")
	first.Title = "x"
	second := testRecord("a")
	second.Title = "y"

	require.NoError(t, s.Store(ctx, "detail", first))
	require.NoError(t, s.Store(ctx, "detail", second))

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "y", records[0].Title)
	assert.Equal(t, 1, s.Len())
}

func TestMemorySink_ListInsertionOrder(t *testing.T) {
	t.Parallel()

	s := NewMemorySink()
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, "detail", testRecord("c")))
	require.NoError(t, s.Store(ctx, "detail", testRecord("a")))
	require.NoError(t, s.Store(ctx, "detail", testRecord("b")))
	require.NoError(t, s.Store(ctx, "detail", testRecord("a")))

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "c", records[0].ID)
	assert.Equal(t, "a", records[1].ID)
	assert.Equal(t, "b", records[2].ID)
}

func TestMemorySink_RejectsEmptyID(t *testing.T) {
	t.Parallel()

	err := NewMemorySink().Store(context.Background(), "detail", video.Record{})
	require.ErrorIs(t, err, video.ErrStorage)
}
