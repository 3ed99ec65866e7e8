package sink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/voidworks/clipcrawl/internal/video"
)

// CSVSink appends one row per record to a file scoped by category and
// the current date. The first write to a fresh file emits a header row
// derived from the record field names. Duplicate ids across runs are
// accepted behavior; nothing is deduplicated here.
type CSVSink struct {
	basePath string
	clock    video.Clock
	logger   *zap.Logger
	locks    *destLocks
}

// NewCSVSink returns a sink rooted at basePath.
func NewCSVSink(basePath string, clock video.Clock, logger *zap.Logger) *CSVSink {
	return &CSVSink{
		basePath: basePath,
		clock:    clock,
		logger:   logger,
		locks:    newDestLocks(),
	}
}

// Store appends the record, writing the header first when the
// destination is empty. The header-then-row sequence is held under the
// destination lock so concurrent writers never interleave a partial
// header with data.
func (s *CSVSink) Store(ctx context.Context, category string, record video.Record) error {
	if err := checkRecord(record); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return storageError("store csv record", err)
	}

	dest := destinationPath(s.basePath, category, s.clock, "csv")
	lock := s.locks.forDestination(dest)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return storageError("create sink dir", err)
	}
	// #nosec G304 -- destination is derived from configuration, not user input.
	file, err := os.OpenFile(dest, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return storageError("open csv destination", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			s.logger.Warn("close csv destination failed", zap.String("path", dest), zap.Error(cerr))
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return storageError("stat csv destination", err)
	}

	writer := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := writer.Write(columns); err != nil {
			return storageError("write csv header", err)
		}
	}
	if err := writer.Write(rowFor(record)); err != nil {
		return storageError("write csv row", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return storageError("flush csv row", err)
	}

	s.logger.Debug("csv record appended",
		zap.String("item_id", record.ID),
		zap.String("path", dest),
	)
	return nil
}
