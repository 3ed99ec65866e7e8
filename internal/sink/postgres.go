package sink

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voidworks/clipcrawl/internal/video"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "video_records"

// PostgresConfig controls the connection pool behind the upsert sink.
type PostgresConfig struct {
	DSN      string
	Table    string
	MaxConns int32
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// PostgresSink persists records keyed by id. Storing an existing id
// replaces every field (full overwrite, not a partial patch), so
// re-ingesting the same record is idempotent.
type PostgresSink struct {
	pool  execCloser
	table string
}

// NewPostgresSink connects a pool from cfg.
func NewPostgresSink(ctx context.Context, cfg PostgresConfig) (*PostgresSink, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sink.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresSink{pool: pool, table: table}, nil
}

// NewPostgresSinkWithPool constructs a sink from an existing pool
// (primarily for testing).
func NewPostgresSinkWithPool(pool execCloser, table string) (*PostgresSink, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresSink{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *PostgresSink) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Store upserts one record. Category is not part of the key; the
// external store is addressed by id alone.
func (s *PostgresSink) Store(ctx context.Context, _ string, record video.Record) error {
	if err := checkRecord(record); err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	aweme_id,
	aweme_type,
	title,
	"desc",
	create_time,
	user_id,
	sec_uid,
	short_user_id,
	user_unique_id,
	user_signature,
	nickname,
	avatar,
	liked_count,
	collected_count,
	comment_count,
	share_count,
	ip_location,
	last_modify_ts,
	cover,
	aweme_url
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20
)
ON CONFLICT (aweme_id) DO UPDATE SET
	aweme_type = EXCLUDED.aweme_type,
	title = EXCLUDED.title,
	"desc" = EXCLUDED."desc",
	create_time = EXCLUDED.create_time,
	user_id = EXCLUDED.user_id,
	sec_uid = EXCLUDED.sec_uid,
	short_user_id = EXCLUDED.short_user_id,
	user_unique_id = EXCLUDED.user_unique_id,
	user_signature = EXCLUDED.user_signature,
	nickname = EXCLUDED.nickname,
	avatar = EXCLUDED.avatar,
	liked_count = EXCLUDED.liked_count,
	collected_count = EXCLUDED.collected_count,
	comment_count = EXCLUDED.comment_count,
	share_count = EXCLUDED.share_count,
	ip_location = EXCLUDED.ip_location,
	last_modify_ts = EXCLUDED.last_modify_ts,
	cover = EXCLUDED.cover,
	aweme_url = EXCLUDED.aweme_url`, s.table)

	args := []any{
		record.ID,
		record.Kind,
		record.Title,
		record.Description,
		record.CreatedAt,
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
		record.LastModifiedAt,
		record.CoverURL,
		record.CanonicalURL,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return storageError("upsert record", err)
	}
	return nil
}

// List returns every stored record, oldest creation first.
func (s *PostgresSink) List(ctx context.Context) ([]video.Record, error) {
	query := fmt.Sprintf(`
SELECT
	aweme_id,
	aweme_type,
	title,
	"desc",
	create_time,
	user_id,
	sec_uid,
	short_user_id,
	user_unique_id,
	user_signature,
	nickname,
	avatar,
	liked_count,
	collected_count,
	comment_count,
	share_count,
	ip_location,
	last_modify_ts,
	cover,
	aweme_url
FROM %s
ORDER BY create_time`, s.table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, storageError("list records", err)
	}
	defer rows.Close()

	var out []video.Record
	for rows.Next() {
		var r video.Record
		if err := rows.Scan(
			&r.ID,
			&r.Kind,
			&r.Title,
			&r.Description,
			&r.CreatedAt,
			&r.UserID,
			&r.AltUserID,
			&r.ShortUserID,
			&r.UniqueID,
			&r.Signature,
			&r.DisplayName,
			&r.AvatarURL,
			&r.LikeCount,
			&r.SaveCount,
			&r.CommentCount,
			&r.ShareCount,
			&r.Location,
			&r.LastModifiedAt,
			&r.CoverURL,
			&r.CanonicalURL,
		); err != nil {
			return nil, storageError("scan record", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate records", err)
	}
	return out, nil
}
