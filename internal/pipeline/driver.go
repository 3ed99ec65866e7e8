// Package pipeline composes proxy acquisition, session login, the
// fetch orchestrator, normalization and persistence into one pass.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/voidworks/clipcrawl/internal/fetch"
	"github.com/voidworks/clipcrawl/internal/metrics"
	"github.com/voidworks/clipcrawl/internal/normalize"
	"github.com/voidworks/clipcrawl/internal/video"
)

// ProxyPool hands out one egress identity per run.
type ProxyPool interface {
	Next() video.ProxyIdentity
}

// ClientFactory builds the session client, optionally bound to a
// proxy identity. The driver calls it once and reuses the client.
type ClientFactory func(proxy *video.ProxyIdentity) (video.SessionClient, error)

// Config captures one run's parameters.
type Config struct {
	ItemIDs       []video.ItemID
	Concurrency   int
	Category      string
	LoginMode     video.LoginMode
	Cookie        string
	Topic         string
	ArchivePrefix string
}

// Driver runs the acquisition-and-persistence pipeline. A run is a
// single pass: per-item failures are logged and skipped, and no batch
// retry or cross-run progress is kept beyond what the sink files
// already contain.
type Driver struct {
	cfg       Config
	pool      ProxyPool
	newClient ClientFactory
	sink      video.Sink
	blobs     video.BlobStore
	publisher video.Publisher
	clock     video.Clock
	idGen     video.IDGenerator
	orch      *fetch.Orchestrator
	logger    *zap.Logger

	mu         sync.Mutex
	client     video.SessionClient
	session    video.Session
	hasSession bool
}

// New constructs a Driver. pool, blobs and publisher may be nil when
// the corresponding feature is disabled.
func New(
	cfg Config,
	pool ProxyPool,
	newClient ClientFactory,
	sink video.Sink,
	blobs video.BlobStore,
	publisher video.Publisher,
	clock video.Clock,
	idGen video.IDGenerator,
	logger *zap.Logger,
) *Driver {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Category == "" {
		cfg.Category = "detail"
	}
	return &Driver{
		cfg:       cfg,
		pool:      pool,
		newClient: newClient,
		sink:      sink,
		blobs:     blobs,
		publisher: publisher,
		clock:     clock,
		idGen:     idGen,
		orch:      fetch.New(logger),
		logger:    logger,
	}
}

// Run executes one pipeline pass. Runs are serialized; a second
// caller blocks until the first pass finishes.
func (d *Driver) Run(ctx context.Context) (video.RunSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := d.clock.Now()
	runID, err := d.idGen.NewID()
	if err != nil {
		return video.RunSummary{}, fmt.Errorf("generate run id: %w", err)
	}
	logger := d.logger.With(zap.String("run_id", runID))

	client, err := d.ensureClient(logger)
	if err != nil {
		return video.RunSummary{}, err
	}
	session, err := d.ensureSession(ctx, client, logger)
	if err != nil {
		return video.RunSummary{}, err
	}

	outcomes := d.orch.FetchAll(ctx, session, d.cfg.ItemIDs, d.cfg.Concurrency, client)

	stored := 0
	for _, outcome := range outcomes {
		metrics.ObserveFetchOutcome(string(outcome.Status))
		if outcome.Status != video.OutcomeFetched {
			logger.Info("skipping item",
				zap.String("item_id", string(outcome.ID)),
				zap.String("status", string(outcome.Status)),
			)
			continue
		}
		if d.persistItem(ctx, runID, outcome, logger) {
			stored++
		}
	}

	summary := video.RunSummary{
		RunID:    runID,
		Total:    len(outcomes),
		Stored:   stored,
		Skipped:  len(outcomes) - stored,
		Duration: d.clock.Now().Sub(start).Milliseconds(),
	}
	metrics.ObserveRunDuration(d.clock.Now().Sub(start))
	logger.Info("run finished",
		zap.Int("total", summary.Total),
		zap.Int("stored", summary.Stored),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

// Close releases the session client if one was built and it holds
// resources (for example a headless browser).
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if closer, ok := d.client.(interface{ Close() }); ok {
		closer.Close()
	}
}

// ensureClient builds the session client on first use, acquiring a
// proxy identity first when a pool is configured.
func (d *Driver) ensureClient(logger *zap.Logger) (video.SessionClient, error) {
	if d.client != nil {
		return d.client, nil
	}
	var egress *video.ProxyIdentity
	if d.pool != nil {
		identity := d.pool.Next()
		egress = &identity
		logger.Info("using proxy egress",
			zap.String("host", identity.Host),
			zap.Int("port", identity.Port),
		)
	}
	client, err := d.newClient(egress)
	if err != nil {
		return nil, fmt.Errorf("build session client: %w", err)
	}
	d.client = client
	return client, nil
}

// ensureSession reuses the previous session while it is still alive
// and falls back to a fresh login when it is not.
func (d *Driver) ensureSession(ctx context.Context, client video.SessionClient, logger *zap.Logger) (video.Session, error) {
	if d.hasSession && client.IsAlive(ctx, d.session) {
		logger.Debug("reusing persisted session")
		return d.session, nil
	}
	session, err := client.Login(ctx, d.cfg.LoginMode, d.cfg.Cookie)
	if err != nil {
		return video.Session{}, fmt.Errorf("acquire session: %w", err)
	}
	d.session = session
	d.hasSession = true
	logger.Info("session acquired", zap.String("mode", string(d.cfg.LoginMode)))
	return session, nil
}

// persistItem archives, normalizes, stores and announces one fetched
// item. It reports whether the record reached the sink; every failure
// is a logged skip, never a pipeline abort.
func (d *Driver) persistItem(ctx context.Context, runID string, outcome video.FetchOutcome, logger *zap.Logger) bool {
	d.archiveRaw(ctx, runID, outcome, logger)

	record, err := normalize.Normalize(outcome.Raw, d.clock.Now())
	if err != nil {
		logger.Error("normalize failed",
			zap.String("item_id", string(outcome.ID)),
			zap.Error(err),
		)
		return false
	}

	err = d.sink.Store(ctx, d.cfg.Category, record)
	metrics.ObserveSinkWrite(err)
	if err != nil {
		logger.Error("store failed",
			zap.String("item_id", record.ID),
			zap.Error(err),
		)
		return false
	}
	logger.Debug("record stored",
		zap.String("item_id", record.ID),
		zap.String("title", record.Title),
	)

	d.announce(ctx, runID, record, logger)
	return true
}

func (d *Driver) archiveRaw(ctx context.Context, runID string, outcome video.FetchOutcome, logger *zap.Logger) {
	if d.blobs == nil {
		return
	}
	payload, err := json.Marshal(outcome.Raw)
	if err != nil {
		logger.Warn("marshal raw item failed",
			zap.String("item_id", string(outcome.ID)),
			zap.Error(err),
		)
		return
	}
	prefix := strings.Trim(d.cfg.ArchivePrefix, "/")
	path := fmt.Sprintf("%s/%s.json", runID, outcome.ID)
	if prefix != "" {
		path = fmt.Sprintf("%s/%s", prefix, path)
	}
	uri, err := d.blobs.PutObject(ctx, path, "application/json", payload)
	if err != nil {
		logger.Warn("archive raw item failed",
			zap.String("item_id", string(outcome.ID)),
			zap.Error(err),
		)
		return
	}
	logger.Debug("raw item archived",
		zap.String("item_id", string(outcome.ID)),
		zap.String("blob_uri", uri),
	)
}

func (d *Driver) announce(ctx context.Context, runID string, record video.Record, logger *zap.Logger) {
	if d.publisher == nil || d.cfg.Topic == "" {
		return
	}
	payload := map[string]any{
		"run_id":    runID,
		"item_id":   record.ID,
		"title":     record.Title,
		"url":       record.CanonicalURL,
		"stored_at": d.clock.Now().UnixMilli(),
	}
	if _, err := d.publisher.Publish(ctx, d.cfg.Topic, payload); err != nil {
		logger.Warn("publish stored event failed",
			zap.String("item_id", record.ID),
			zap.Error(err),
		)
	}
}
