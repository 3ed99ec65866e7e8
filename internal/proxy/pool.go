// Package proxy maintains a small pool of validated egress identities.
package proxy

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/voidworks/clipcrawl/internal/video"
)

// Pool hands out egress identities. It is read-only after construction
// and safe for concurrent Next calls. Distinctness across calls is not
// guaranteed; identities rotate round-robin.
type Pool struct {
	identities []video.ProxyIdentity
	cursor     atomic.Uint64
}

// NewPool populates size candidate identities from the provider and,
// when validate is set, discards candidates that fail the liveness
// probe. It fails with ErrProxyPoolExhausted if no identity survives.
func NewPool(
	ctx context.Context,
	size int,
	validate bool,
	provider video.ProxyProvider,
	prober video.ProxyProber,
	logger *zap.Logger,
) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be > 0, got %d", size)
	}
	candidates, err := provider.List(ctx, size)
	if err != nil {
		return nil, fmt.Errorf("list proxy candidates: %w", err)
	}

	identities := make([]video.ProxyIdentity, 0, len(candidates))
	for _, candidate := range candidates {
		if validate && !prober.Validate(ctx, candidate) {
			logger.Warn("discarding dead proxy candidate",
				zap.String("host", candidate.Host),
				zap.Int("port", candidate.Port),
			)
			continue
		}
		identities = append(identities, candidate)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no usable identity out of %d candidates: %w",
			len(candidates), video.ErrProxyPoolExhausted)
	}

	logger.Info("proxy pool ready",
		zap.Int("requested", size),
		zap.Int("usable", len(identities)),
	)
	return &Pool{identities: identities}, nil
}

// Next returns the next identity in rotation.
func (p *Pool) Next() video.ProxyIdentity {
	n := p.cursor.Add(1) - 1
	return p.identities[n%uint64(len(p.identities))]
}

// Size reports how many identities survived validation.
func (p *Pool) Size() int { return len(p.identities) }
