// Package sink implements the interchangeable storage backends for
// normalized records.
package sink

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/voidworks/clipcrawl/internal/video"
)

// Sink variant names accepted in configuration.
const (
	VariantCSV      = "csv"
	VariantJSON     = "json"
	VariantPostgres = "postgres"
	VariantMemory   = "memory"
)

// Config selects and parameterizes the active sink variant.
type Config struct {
	Variant  string `mapstructure:"variant"`
	BasePath string `mapstructure:"base_path"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
}

// New builds the sink variant named by cfg. Exactly one variant is
// active per pipeline run.
func New(ctx context.Context, cfg Config, clock video.Clock, logger *zap.Logger) (video.Sink, error) {
	switch cfg.Variant {
	case VariantCSV:
		return NewCSVSink(cfg.BasePath, clock, logger), nil
	case VariantJSON:
		return NewJSONSink(cfg.BasePath, clock, logger), nil
	case VariantPostgres:
		return NewPostgresSink(ctx, PostgresConfig{DSN: cfg.DSN, Table: cfg.Table})
	case VariantMemory:
		return NewMemorySink(), nil
	default:
		return nil, fmt.Errorf("unknown sink variant %q", cfg.Variant)
	}
}

// columns is the persisted field order shared by the file variants.
// The CSV header row is derived from it.
var columns = []string{
	"aweme_id",
	"aweme_type",
	"title",
	"desc",
	"create_time",
	"user_id",
	"sec_uid",
	"short_user_id",
	"user_unique_id",
	"user_signature",
	"nickname",
	"avatar",
	"liked_count",
	"collected_count",
	"comment_count",
	"share_count",
	"ip_location",
	"last_modify_ts",
	"cover",
	"aweme_url",
}

func rowFor(record video.Record) []string {
	return []string{
		record.ID,
		record.Kind,
		record.Title,
		record.Description,
		strconv.FormatInt(record.CreatedAt, 10),
		record.UserID,
		record.AltUserID,
		record.ShortUserID,
		record.UniqueID,
		record.Signature,
		record.DisplayName,
		record.AvatarURL,
		record.LikeCount,
		record.SaveCount,
		record.CommentCount,
		record.ShareCount,
		record.Location,
		strconv.FormatInt(record.LastModifiedAt, 10),
		record.CoverURL,
		record.CanonicalURL,
	}
}

// destinationPath names the file for one (category, date) pair.
func destinationPath(basePath, category string, clock video.Clock, ext string) string {
	name := fmt.Sprintf("%s_%s.%s", category, clock.Now().Format("20060102"), ext)
	return filepath.Join(basePath, name)
}

func checkRecord(record video.Record) error {
	if record.ID == "" {
		return fmt.Errorf("record id is required: %w", video.ErrStorage)
	}
	return nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(video.ErrStorage, err))
}

// destLocks hands out one mutex per destination key so unrelated
// destinations never serialize against each other.
type destLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newDestLocks() *destLocks {
	return &destLocks{locks: make(map[string]*sync.Mutex)}
}

func (d *destLocks) forDestination(dest string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.locks[dest]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[dest] = lock
	}
	return lock
}
