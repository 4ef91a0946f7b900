package route

import (
	"github.com/gin-gonic/gin"
	"github.com/quantract/certledger/internal/constant"
	"github.com/quantract/certledger/internal/controller"
	"github.com/quantract/certledger/internal/middleware"
)

func V1_Certificates(r *gin.RouterGroup, cc *controller.CertificateController, middleware *middleware.Middleware) {
	read := middleware.RequirePermission(constant.CertificateRead)
	write := middleware.RequirePermission(constant.CertificateWrite)
	issue := middleware.RequirePermission(constant.CertificateIssue)

	v1 := r.Group("/v1/certificates")
	v1.Use(middleware.RateLimiterMiddleware, middleware.AuthMiddleware)
	{
		v1.POST("", write, cc.CreateCertificate)
		v1.GET("/:certificateId", read, cc.GetCertificate)
		v1.PUT("/:certificateId", write, cc.UpdateCertificate)
		v1.GET("/:certificateId/readiness", read, cc.GetReadiness)
		v1.POST("/:certificateId/complete", write, cc.CompleteCertificate)
		v1.POST("/:certificateId/reopen", write, cc.ReopenCertificate)
		v1.POST("/:certificateId/issue", issue, cc.IssueCertificate)
		v1.POST("/:certificateId/reissue", issue, cc.ReissueCertificate)
		v1.POST("/:certificateId/void", middleware.RequirePermission(constant.CertificateVoid), cc.VoidCertificate)
		v1.POST("/:certificateId/revoke", middleware.RequirePermission(constant.CertificateRevoke), cc.RevokeVerification)
		v1.POST("/:certificateId/restore", middleware.RequirePermission(constant.CertificateRestore), cc.RestoreVerification)
		v1.GET("/:certificateId/revisions", read, cc.GetRevisions)
		v1.GET("/:certificateId/revisions/:revision", read, cc.GetRevision)
		v1.GET("/:certificateId/logs", read, cc.GetAuditLogs)
	}
}
