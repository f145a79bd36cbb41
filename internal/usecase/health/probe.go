package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/metrics"
)

// Probe caches the embedding service reachability result for a fixed TTL.
// Concurrent callers share one in-flight check.
type Probe struct {
	checker EmbeddingChecker
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu        sync.Mutex
	checkedAt time.Time
	result    bool
	checked   bool
}

// NewProbe creates a reachability probe. Each check is bounded by timeout.
func NewProbe(checker EmbeddingChecker, ttl, timeout time.Duration, logger *zap.Logger) *Probe {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Probe{
		checker: checker,
		ttl:     ttl,
		timeout: timeout,
		now:     time.Now,
		logger:  logger,
	}
}

// Reachable returns the cached result, re-probing once it is older than the TTL.
func (p *Probe) Reachable(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.checked && p.now().Sub(p.checkedAt) < p.ttl {
		return p.result
	}

	// A cancelled page load must not poison the cache for a whole TTL.
	checkCtx := context.WithoutCancel(ctx)
	if p.timeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(checkCtx, p.timeout)
		defer cancel()
	}

	err := p.checker.HealthCheck(checkCtx)
	p.result = err == nil
	p.checkedAt = p.now()
	p.checked = true

	if err != nil {
		p.logger.Warn("Embedding service not reachable", zap.Error(err))
		metrics.EmbeddingServiceUp.Set(0)
	} else {
		metrics.EmbeddingServiceUp.Set(1)
	}

	return p.result
}
