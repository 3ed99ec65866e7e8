// Package fetch drives the bounded-concurrency acquisition of items.
package fetch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/voidworks/clipcrawl/internal/normalize"
	"github.com/voidworks/clipcrawl/internal/video"
)

// Orchestrator fans out item fetches over a fixed concurrency ceiling.
// Each item is a bulkhead: its failure never cancels, delays, or
// corrupts the outcome of any other item, and nothing is retried here.
type Orchestrator struct {
	logger *zap.Logger
}

// New constructs an Orchestrator.
func New(logger *zap.Logger) *Orchestrator {
	return &Orchestrator{logger: logger}
}

// FetchAll fetches every id and returns one outcome per input id, in
// input order. It returns only after every scheduled fetch has
// produced an outcome; there is no early return on first failure.
func (o *Orchestrator) FetchAll(
	ctx context.Context,
	session video.Session,
	ids []video.ItemID,
	limit int,
	client video.SessionClient,
) []video.FetchOutcome {
	if limit <= 0 {
		limit = 1
	}
	outcomes := make([]video.FetchOutcome, len(ids))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, id := range ids {
		g.Go(func() error {
			outcomes[i] = o.fetchOne(ctx, session, id, client)
			return nil
		})
	}
	// Workers never return errors; Wait is purely the fan-in barrier.
	_ = g.Wait()
	return outcomes
}

func (o *Orchestrator) fetchOne(
	ctx context.Context,
	session video.Session,
	id video.ItemID,
	client video.SessionClient,
) video.FetchOutcome {
	if err := ctx.Err(); err != nil {
		return video.FetchOutcome{
			ID:     id,
			Status: video.OutcomeFailed,
			Err:    fmt.Errorf("fetch aborted: %w", err),
		}
	}

	raw, err := client.FetchItem(ctx, session, id)
	if err != nil {
		o.logger.Error("item fetch failed",
			zap.String("item_id", string(id)),
			zap.Error(err),
		)
		return video.FetchOutcome{ID: id, Status: video.OutcomeFailed, Err: err}
	}

	if _, err := normalize.ItemIdentifier(raw); err != nil {
		o.logger.Error("item detail not found",
			zap.String("item_id", string(id)),
			zap.Error(err),
		)
		return video.FetchOutcome{ID: id, Status: video.OutcomeNotFound}
	}

	return video.FetchOutcome{ID: id, Status: video.OutcomeFetched, Raw: raw}
}
