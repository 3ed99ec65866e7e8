package sink

import (
	"context"
	"sync"

	"github.com/voidworks/clipcrawl/internal/video"
)

// MemorySink keeps records in-memory with upsert semantics. It backs
// the serve mode's listing endpoint and tests.
type MemorySink struct {
	mu      sync.RWMutex
	records map[string]video.Record
	order   []string
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{records: make(map[string]video.Record)}
}

// Store inserts or fully overwrites the record keyed by id.
func (s *MemorySink) Store(_ context.Context, _ string, record video.Record) error {
	if err := checkRecord(record); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ID]; !exists {
		s.order = append(s.order, record.ID)
	}
	s.records[record.ID] = record
	return nil
}

// List returns stored records in first-insertion order.
func (s *MemorySink) List(_ context.Context) ([]video.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]video.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

// Len reports how many distinct ids are stored.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
