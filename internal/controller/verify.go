package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quantract/certledger/internal/constant"
	"github.com/quantract/certledger/internal/ledger"
)

// VerifyController serves the public verification endpoints. Bodies here
// are a public contract and deliberately differ from the admin envelope.
type VerifyController struct {
	*baseController
}

func (vc VerifyController) VerifyJSON(ctx *gin.Context) {
	record, err := vc.app.Gate.ResolveRecord(ctx.Request.Context(), ctx.Params.ByName("token"))
	if err != nil {
		vc.verifyFailed(ctx, err)
		return
	}

	ctx.Header("Cache-Control", "no-store")
	ctx.JSON(http.StatusOK, record)
}

func (vc VerifyController) VerifyPDF(ctx *gin.Context) {
	pdf, err := vc.app.Gate.ResolvePDF(ctx.Request.Context(), ctx.Params.ByName("token"))
	if err != nil {
		vc.verifyFailed(ctx, err)
		return
	}

	// Revocation must take effect on the next request, so nothing is cached.
	ctx.Header("Cache-Control", "no-store")
	ctx.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, pdf.Filename))
	if pdf.CID != "" {
		ctx.Header("ETag", `"`+pdf.CID+`"`)
	}
	ctx.Data(http.StatusOK, "application/pdf", pdf.Data)
}

func (vc VerifyController) verifyFailed(ctx *gin.Context, err error) {
	var revoked *ledger.RevokedError

	switch {
	case errors.Is(err, ledger.ErrNotFound):
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": constant.VERIFY_NOT_FOUND})
	case errors.As(err, &revoked):
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": revoked.Reason})
	case errors.Is(err, ledger.ErrStorageUnavailable):
		vc.app.Logger.Warnw("Verification storage unavailable", "error", err)
		ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": constant.VERIFY_UNAVAILABLE})
	case errors.Is(err, ledger.ErrUnavailable):
		vc.app.Logger.Errorw("Verification artifact could not be regenerated", "error", err)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": constant.VERIFY_REGENERATION_FAILED})
	default:
		vc.app.Logger.Errorw("Verification failed", "error", err)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": constant.VERIFY_UNAVAILABLE})
	}
}
