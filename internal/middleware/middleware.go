package middleware

import (
	appcontext "github.com/quantract/certledger/internal/app_context"
	ratelimiter "github.com/quantract/certledger/internal/rate_limiter"
)

type Middleware struct {
	rateLimiter       *ratelimiter.ClientRateLimiter
	verifyRateLimiter *ratelimiter.ClientRateLimiter
	app               *appcontext.Application
}

// NewMiddleware takes the admin limiter and the tighter limiter used by the
// public verification routes.
func NewMiddleware(app *appcontext.Application,
	rateLimiter *ratelimiter.ClientRateLimiter,
	verifyRateLimiter *ratelimiter.ClientRateLimiter,
) *Middleware {
	return &Middleware{app: app, rateLimiter: rateLimiter, verifyRateLimiter: verifyRateLimiter}
}
