package sink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voidworks/clipcrawl/internal/video"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVSink_HeaderOnFreshFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewCSVSink(dir, testClock, zap.NewNop())

	require.NoError(t, s.Store(context.Background(), "detail", testRecord("111")))

	rows := readCSV(t, filepath.Join(dir, "detail_20230722.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, columns, rows[0])
	assert.Equal(t, "111", rows[1][0])
	assert.Equal(t, "https://www.douyin.com/video/111", rows[1][len(rows[1])-1])
}

func TestCSVSink_AppendWithoutHeaderRewrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewCSVSink(dir, testClock, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, "detail", testRecord("111")))
	require.NoError(t, s.Store(ctx, "detail", testRecord("222")))
	require.NoError(t, s.Store(ctx, "detail", testRecord("111")))

	rows := readCSV(t, filepath.Join(dir, "detail_20230722.csv"))
	// One header plus three rows; duplicate ids append, nothing dedupes.
	require.Len(t, rows, 4)
	assert.Equal(t, columns, rows[0])
	assert.Equal(t, "111", rows[1][0])
	assert.Equal(t, "222", rows[2][0])
	assert.Equal(t, "111", rows[3][0])
}

func TestCSVSink_CategoriesGetSeparateFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewCSVSink(dir, testClock, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, "detail", testRecord("1")))
	require.NoError(t, s.Store(ctx, "comments", testRecord("2")))

	assert.FileExists(t, filepath.Join(dir, "detail_20230722.csv"))
	assert.FileExists(t, filepath.Join(dir, "comments_20230722.csv"))
}

func TestCSVSink_ConcurrentStores(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewCSVSink(dir, testClock, zap.NewNop())

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record := testRecord(string(rune('a' + i)))
			assert.NoError(t, s.Store(context.Background(), "detail", record))
		}(i)
	}
	wg.Wait()

	rows := readCSV(t, filepath.Join(dir, "detail_20230722.csv"))
	// Exactly one header no matter how the writers raced.
	require.Len(t, rows, n+1)
	assert.Equal(t, columns, rows[0])
	for _, row := range rows[1:] {
		assert.NotEqual(t, columns[0], row[0])
	}
}

func TestCSVSink_RejectsEmptyID(t *testing.T) {
	t.Parallel()

	s := NewCSVSink(t.TempDir(), testClock, zap.NewNop())
	err := s.Store(context.Background(), "detail", video.Record{})
	require.ErrorIs(t, err, video.ErrStorage)
}

func TestCSVSink_CancelledContext(t *testing.T) {
	t.Parallel()

	s := NewCSVSink(t.TempDir(), testClock, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Store(ctx, "detail", testRecord("1"))
	require.ErrorIs(t, err, video.ErrStorage)
}
