package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voidworks/clipcrawl/internal/video"
)

func readDocument(t *testing.T, path string) []video.Record {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var records []video.Record
	require.NoError(t, json.Unmarshal(data, &records))
	return records
}

func TestJSONSink_MissingFileIsEmptyArray(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewJSONSink(dir, testClock, zap.NewNop())

	require.NoError(t, s.Store(context.Background(), "detail", testRecord("111")))

	records := readDocument(t, filepath.Join(dir, "detail_20230722.json"))
	require.Len(t, records, 1)
	assert.Equal(t, "111", records[0].ID)
}

func TestJSONSink_AppendsToExistingDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewJSONSink(dir, testClock, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, "detail", testRecord("111")))
	require.NoError(t, s.Store(ctx, "detail", testRecord("222")))

	records := readDocument(t, filepath.Join(dir, "detail_20230722.json"))
	require.Len(t, records, 2)
	assert.Equal(t, "111", records[0].ID)
	assert.Equal(t, "222", records[1].ID)
}

func TestJSONSink_ConcurrentStoresAllLand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewJSONSink(dir, testClock, zap.NewNop())

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Store(context.Background(), "detail", testRecord(fmt.Sprintf("id-%02d", i))))
		}(i)
	}
	wg.Wait()

	// M concurrent stores yield exactly M elements; no lost updates.
	records := readDocument(t, filepath.Join(dir, "detail_20230722.json"))
	require.Len(t, records, n)
	seen := make(map[string]bool, n)
	for _, record := range records {
		seen[record.ID] = true
	}
	assert.Len(t, seen, n)
}

func TestJSONSink_CorruptDocumentFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dest := filepath.Join(dir, "detail_20230722.json")
	require.NoError(t, os.WriteFile(dest, []byte("{not json"), 0o600))

	s := NewJSONSink(dir, testClock, zap.NewNop())
	err := s.Store(context.Background(), "detail", testRecord("1"))
	require.ErrorIs(t, err, video.ErrStorage)
}

func TestJSONSink_RejectsEmptyID(t *testing.T) {
	t.Parallel()

	s := NewJSONSink(t.TempDir(), testClock, zap.NewNop())
	err := s.Store(context.Background(), "detail", video.Record{})
	require.ErrorIs(t, err, video.ErrStorage)
}
