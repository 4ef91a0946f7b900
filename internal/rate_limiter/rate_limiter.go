package ratelimiter

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/quantract/certledger/internal/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClientRateLimiter keeps one token bucket per client key. Idle buckets
// expire so the registry does not grow with every address ever seen.
type ClientRateLimiter struct {
	cfg     config.RateLimiterConfig
	limit   rate.Limit
	buckets *cache.Cache
	mu      sync.Mutex
	logger  *zap.SugaredLogger
}

func NewRateLimiter(cfg config.RateLimiterConfig, logger *zap.SugaredLogger) *ClientRateLimiter {
	// For unit test
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.TimeFrame <= 0 {
		cfg.TimeFrame = time.Minute
	}
	if cfg.RequestsPerTimeFrame <= 0 {
		cfg.RequestsPerTimeFrame = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	idle := 2 * cfg.TimeFrame
	return &ClientRateLimiter{
		cfg:     cfg,
		limit:   rate.Every(cfg.TimeFrame / time.Duration(cfg.RequestsPerTimeFrame)),
		buckets: cache.New(idle, idle),
		logger:  logger,
	}
}

// Allow reports whether key may make a request now and, if not, how long it
// should wait before retrying.
func (rl *ClientRateLimiter) Allow(key string) (bool, time.Duration) {
	if !rl.cfg.Enabled {
		return true, 0
	}

	rl.mu.Lock()
	var limiter *rate.Limiter
	if v, ok := rl.buckets.Get(key); ok {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(rl.limit, rl.cfg.Burst)
	}
	// Re-set on every hit so active clients keep their bucket.
	rl.buckets.SetDefault(key, limiter)
	rl.mu.Unlock()

	r := limiter.Reserve()
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		rl.logger.Debugf("Rate limit exceeded for %s, retry in %s", key, delay)
		return false, delay
	}
	return true, 0
}
