package middleware

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	ratelimiter "github.com/quantract/certledger/internal/rate_limiter"
	"github.com/quantract/certledger/internal/util"
)

var errRateLimited = errors.New("rate limit exceeded")

func (m Middleware) RateLimiterMiddleware(ctx *gin.Context) {
	m.limit(ctx, m.rateLimiter)
}

// VerifyRateLimiterMiddleware applies the public verification budget.
func (m Middleware) VerifyRateLimiterMiddleware(ctx *gin.Context) {
	m.limit(ctx, m.verifyRateLimiter)
}

func (m Middleware) limit(ctx *gin.Context, rl *ratelimiter.ClientRateLimiter) {
	if rl == nil {
		ctx.Next()
		return
	}

	ok, retry := rl.Allow(ctx.ClientIP())
	if !ok {
		ctx.Header("Retry-After", retryAfterSeconds(retry))
		util.ResponseFailed(ctx, http.StatusTooManyRequests, "Too many requests", util.GenerateErrorMessages(errRateLimited, "rateLimit"), nil)
		return
	}

	ctx.Next()
}

func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(max(int(math.Ceil(d.Seconds())), 1))
}
