package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/voidworks/clipcrawl/internal/archive"
	"github.com/voidworks/clipcrawl/internal/config"
	"github.com/voidworks/clipcrawl/internal/metrics"
	"github.com/voidworks/clipcrawl/internal/pipeline"
	"github.com/voidworks/clipcrawl/internal/proxy"
	"github.com/voidworks/clipcrawl/internal/publish"
	"github.com/voidworks/clipcrawl/internal/session"
	"github.com/voidworks/clipcrawl/internal/sink"
	"github.com/voidworks/clipcrawl/internal/video"
)

// buildDriver wires the pipeline from configuration. The returned
// cleanup releases long-lived resources (publisher, sink pool,
// browser) and must run after the last pipeline pass.
func buildDriver(ctx context.Context, cfg config.Config, logger *zap.Logger) (*pipeline.Driver, video.Lister, func(), error) {
	metrics.Init()

	var pool pipeline.ProxyPool
	if cfg.Proxy.Enabled {
		provider, err := proxy.NewStaticProvider(cfg.Proxy.Entries)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init proxy provider: %w", err)
		}
		prober := proxy.NewCollyProber(cfg.Proxy.ProbeURL, cfg.Session.UserAgent, 0, logger)
		p, err := proxy.NewPool(ctx, cfg.Proxy.PoolSize, cfg.Proxy.Validate, provider, prober, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init proxy pool: %w", err)
		}
		pool = p
	}

	clock := video.SystemClock{}
	activeSink, err := sink.New(ctx, cfg.Sink, clock, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init sink: %w", err)
	}
	var lister video.Lister
	if l, ok := activeSink.(video.Lister); ok {
		lister = l
	}

	blobs, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init archive: %w", err)
	}

	var publisher video.Publisher
	var pubsubPublisher *publish.PubSub
	if cfg.Publish.Topic != "" {
		pubsubPublisher, err = publish.NewPubSub(ctx, cfg.Publish.ProjectID, cfg.Publish.Topic)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init publisher: %w", err)
		}
		publisher = pubsubPublisher
	}

	newClient := func(egress *video.ProxyIdentity) (video.SessionClient, error) {
		return session.New(session.Config{
			UserAgent:   cfg.Session.UserAgent,
			Headless:    cfg.Session.Headless,
			UserDataDir: cfg.Session.UserDataDir,
			Proxy:       egress,
		}, logger)
	}

	itemIDs := make([]video.ItemID, 0, len(cfg.Crawler.ItemIDs))
	for _, id := range cfg.Crawler.ItemIDs {
		itemIDs = append(itemIDs, video.ItemID(id))
	}

	driver := pipeline.New(
		pipeline.Config{
			ItemIDs:       itemIDs,
			Concurrency:   cfg.Crawler.Concurrency,
			Category:      cfg.Crawler.Category,
			LoginMode:     video.LoginMode(cfg.Session.LoginMode),
			Cookie:        cfg.Session.Cookie,
			Topic:         cfg.Publish.Topic,
			ArchivePrefix: cfg.Archive.Prefix,
		},
		pool,
		newClient,
		activeSink,
		blobs,
		publisher,
		clock,
		pipeline.UUIDGenerator{},
		logger,
	)

	cleanup := func() {
		driver.Close()
		if pubsubPublisher != nil {
			if err := pubsubPublisher.Close(); err != nil {
				logger.Warn("close publisher failed", zap.Error(err))
			}
		}
		if closer, ok := activeSink.(interface{ Close() }); ok {
			closer.Close()
		}
		// Give zap a chance to flush buffered entries.
		_ = logger.Sync()
	}
	return driver, lister, cleanup, nil
}
