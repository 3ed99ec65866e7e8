// Package archive persists raw item payloads to a blob store before
// normalization, so upstream schema changes can be replayed later.
package archive

import (
	"context"
	"fmt"

	gcstorage "cloud.google.com/go/storage"

	"github.com/voidworks/clipcrawl/internal/video"
)

// Blob store variant names accepted in configuration.
const (
	VariantNone   = "none"
	VariantLocal  = "local"
	VariantGCS    = "gcs"
	VariantMemory = "memory"
)

// Config selects and parameterizes the raw archive target.
type Config struct {
	Variant string `mapstructure:"variant"`
	Bucket  string `mapstructure:"bucket"`
	BaseDir string `mapstructure:"base_dir"`
	Prefix  string `mapstructure:"prefix"`
}

// New builds the configured blob store, or nil when archival is
// disabled.
func New(ctx context.Context, cfg Config) (video.BlobStore, error) {
	switch cfg.Variant {
	case "", VariantNone:
		return nil, nil
	case VariantLocal:
		return NewLocalStore(cfg.BaseDir)
	case VariantGCS:
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		return NewGCSStore(client, cfg.Bucket)
	case VariantMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown archive variant %q", cfg.Variant)
	}
}
