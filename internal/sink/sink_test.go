package sink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voidworks/clipcrawl/internal/video"
)

// fixedClock pins the destination date so tests address a known file.
type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

var testClock = fixedClock{at: time.Date(2023, 7, 22, 10, 30, 0, 0, time.UTC)}

func testRecord(id string) video.Record {
	return video.Record{
		ID:             id,
		Kind:           "0",
		Title:          "a title",
		Description:    "a title",
		CreatedAt:      1690000000,
		UserID:         "42",
		AltUserID:      "MS4wLjABAAAA",
		UniqueID:       "gopher",
		DisplayName:    "Gopher",
		AvatarURL:      "https://cdn.example.com/a.jpg",
		LikeCount:      "12345",
		SaveCount:      "10",
		CommentCount:   "7",
		ShareCount:     "3",
		Location:       "Shanghai",
		LastModifiedAt: 1690001234567,
		CoverURL:       "https://cdn.example.com/c.jpg",
		CanonicalURL:   "https://www.douyin.com/video/" + id,
	}
}

func TestNew_VariantSelection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("CSV", func(t *testing.T) {
		s, err := New(ctx, Config{Variant: VariantCSV, BasePath: t.TempDir()}, testClock, logger)
		require.NoError(t, err)
		assert.IsType(t, &CSVSink{}, s)
	})
	t.Run("JSON", func(t *testing.T) {
		s, err := New(ctx, Config{Variant: VariantJSON, BasePath: t.TempDir()}, testClock, logger)
		require.NoError(t, err)
		assert.IsType(t, &JSONSink{}, s)
	})
	t.Run("Memory", func(t *testing.T) {
		s, err := New(ctx, Config{Variant: VariantMemory}, testClock, logger)
		require.NoError(t, err)
		assert.IsType(t, &MemorySink{}, s)
	})
	t.Run("Unknown", func(t *testing.T) {
		_, err := New(ctx, Config{Variant: "redis"}, testClock, logger)
		require.Error(t, err)
	})
	t.Run("PostgresNeedsDSN", func(t *testing.T) {
		_, err := New(ctx, Config{Variant: VariantPostgres}, testClock, logger)
		require.Error(t, err)
	})
}

func TestDestinationPath(t *testing.T) {
	t.Parallel()

	got := destinationPath("/data/douyin", "detail", testClock, "csv")
	assert.Equal(t, "/data/douyin/detail_20230722.csv", got)
}

func TestCheckRecord_RequiresID(t *testing.T) {
	t.Parallel()

	err := checkRecord(video.Record{})
	require.ErrorIs(t, err, video.ErrStorage)
	assert.NoError(t, checkRecord(testRecord("1")))
}
