package proxy

import (
	"context"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/voidworks/clipcrawl/internal/video"
)

const defaultProbeTimeout = 10 * time.Second

// CollyProber checks candidate liveness by fetching a probe URL
// through the candidate proxy.
type CollyProber struct {
	probeURL  string
	userAgent string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewCollyProber constructs a prober against probeURL.
func NewCollyProber(probeURL, userAgent string, timeout time.Duration, logger *zap.Logger) *CollyProber {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &CollyProber{
		probeURL:  probeURL,
		userAgent: userAgent,
		timeout:   timeout,
		logger:    logger,
	}
}

// Validate reports whether the probe URL is reachable through the
// candidate with a non-error status.
func (p *CollyProber) Validate(_ context.Context, candidate video.ProxyIdentity) bool {
	collector := colly.NewCollector(colly.UserAgent(p.userAgent))
	collector.SetRequestTimeout(p.timeout)
	if err := collector.SetProxy(candidate.URL()); err != nil {
		p.logger.Warn("invalid proxy URL",
			zap.String("host", candidate.Host),
			zap.Error(err),
		)
		return false
	}

	alive := false
	collector.OnResponse(func(r *colly.Response) {
		alive = r.StatusCode < 400
	})
	if err := collector.Visit(p.probeURL); err != nil {
		p.logger.Debug("proxy probe failed",
			zap.String("host", candidate.Host),
			zap.Error(err),
		)
		return false
	}
	collector.Wait()
	return alive
}
