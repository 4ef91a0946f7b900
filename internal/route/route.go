package route

import (
	"github.com/gin-gonic/gin"
	"github.com/quantract/certledger/internal/controller"
	"github.com/quantract/certledger/internal/middleware"
)

// Setup registers every route on r.
func Setup(r *gin.Engine, c *controller.Controller, m *middleware.Middleware) {
	r.Use(m.MetricsMiddleware)

	r.GET("/", c.Index.Index)

	rApi := r.Group("/api")
	V1_Certificates(rApi, c.Certificate, m)

	Verify(r, c.Verify, m)
}
