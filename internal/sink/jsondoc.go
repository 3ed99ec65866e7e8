package sink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/voidworks/clipcrawl/internal/video"
)

// JSONSink maintains one JSON document per (category, date) holding an
// array of records. Every store is a read-existing, append-in-memory,
// rewrite-whole-file sequence. That sequence is not atomic, so it runs
// under a mutex keyed by destination; the Nth writer to take the lock
// produces the Nth array element.
type JSONSink struct {
	basePath string
	clock    video.Clock
	logger   *zap.Logger
	locks    *destLocks
}

// NewJSONSink returns a sink rooted at basePath.
func NewJSONSink(basePath string, clock video.Clock, logger *zap.Logger) *JSONSink {
	return &JSONSink{
		basePath: basePath,
		clock:    clock,
		logger:   logger,
		locks:    newDestLocks(),
	}
}

// Store appends the record to the destination document. A missing
// document is treated as an empty array.
func (s *JSONSink) Store(ctx context.Context, category string, record video.Record) error {
	if err := checkRecord(record); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return storageError("store json record", err)
	}

	dest := destinationPath(s.basePath, category, s.clock, "json")
	lock := s.locks.forDestination(dest)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return storageError("create sink dir", err)
	}

	var records []video.Record
	// #nosec G304 -- destination is derived from configuration, not user input.
	existing, err := os.ReadFile(dest)
	switch {
	case err == nil:
		if len(existing) > 0 {
			if uerr := json.Unmarshal(existing, &records); uerr != nil {
				return storageError("decode existing document", uerr)
			}
		}
	case os.IsNotExist(err):
		// First write to this destination.
	default:
		return storageError("read existing document", err)
	}

	records = append(records, record)
	payload, err := json.Marshal(records)
	if err != nil {
		return storageError("encode document", err)
	}
	if err := os.WriteFile(dest, payload, 0o600); err != nil {
		return storageError("rewrite document", err)
	}

	s.logger.Debug("json record appended",
		zap.String("item_id", record.ID),
		zap.String("path", dest),
		zap.Int("document_len", len(records)),
	)
	return nil
}
