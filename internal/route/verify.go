package route

import (
	"github.com/gin-gonic/gin"
	"github.com/quantract/certledger/internal/controller"
	"github.com/quantract/certledger/internal/middleware"
)

// Verify mounts the unauthenticated endpoints at the root, outside /api, so
// the URL printed in the QR code stays short.
func Verify(r gin.IRouter, vc *controller.VerifyController, middleware *middleware.Middleware) {
	v := r.Group("/verify/:token")
	v.Use(middleware.VerifyRateLimiterMiddleware)
	{
		v.GET("/json", vc.VerifyJSON)
		v.GET("/pdf", vc.VerifyPDF)
	}
}
