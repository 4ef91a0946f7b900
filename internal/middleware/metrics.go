package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware labels requests by route template so tokens and ids
// never become label values.
func (m Middleware) MetricsMiddleware(ctx *gin.Context) {
	start := time.Now()
	m.app.Metrics.RequestStarted()

	ctx.Next()

	path := ctx.FullPath()
	if path == "" {
		path = "unmatched"
	}
	m.app.Metrics.RequestFinished(ctx.Request.Method, path, strconv.Itoa(ctx.Writer.Status()), time.Since(start))
}
