package cursor

import (
	"context"
	"sync"
	"time"

	"github.com/scratchd/scratchd/internal/util"
)

// Source tags where a sample came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceCached   Source = "cached"
	SourceFallback Source = "fallback-center"
)

// Sample is one pointer observation in absolute coordinates. Valid=false
// means no position is known and the consumer substitutes its own center.
type Sample struct {
	X      int
	Y      int
	Source Source
	Valid  bool
	At     time.Time
}

// Querier asks a concrete backend for the pointer position.
type Querier interface {
	QueryPointer(ctx context.Context) (x, y int, err error)
}

// Locator resolves the pointer through a three-tier chain: live query under
// a hard timeout, recent cache, synthetic center. Locate never returns an
// error; the worst outcome is an invalid sample.
type Locator struct {
	querier Querier
	timeout time.Duration
	ttl     time.Duration
	logger  *util.Logger
	now     func() time.Time

	mu    sync.Mutex
	cache Sample
}

// NewLocator builds a locator over the given backend. A nil querier skips
// straight to the cache and fallback tiers.
func NewLocator(querier Querier, timeout, ttl time.Duration, logger *util.Logger) *Locator {
	if timeout <= 0 {
		timeout = 150 * time.Millisecond
	}
	if ttl <= 0 {
		ttl = 2 * time.Second
	}
	return &Locator{querier: querier, timeout: timeout, ttl: ttl, logger: logger, now: time.Now}
}

// Locate returns the best sample available right now.
func (l *Locator) Locate(ctx context.Context) Sample {
	if l.querier != nil {
		qctx, cancel := context.WithTimeout(ctx, l.timeout)
		x, y, err := l.querier.QueryPointer(qctx)
		cancel()
		if err == nil {
			sample := Sample{X: x, Y: y, Source: SourceLive, Valid: true, At: l.now()}
			l.mu.Lock()
			l.cache = sample
			l.mu.Unlock()
			return sample
		}
		l.logger.Debugf("cursor query failed: %v", err)
	}
	l.mu.Lock()
	cached := l.cache
	l.mu.Unlock()
	if cached.Valid && l.now().Sub(cached.At) <= l.ttl {
		cached.Source = SourceCached
		return cached
	}
	return Sample{Source: SourceFallback}
}
