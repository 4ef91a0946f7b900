package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quantract/certledger/internal/auth"
	"github.com/quantract/certledger/internal/constant"
	"github.com/quantract/certledger/internal/util"
)

func (m Middleware) AuthMiddleware(ctx *gin.Context) {
	token, err := util.ReadBearerToken(ctx)
	if err != nil {
		m.app.Logger.Debugf("Failed to read token: %v", err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err, "unauthorized"), nil)
		ctx.Abort()
		return
	}

	claim, err := m.app.JWTService.VerifyJwtToken(token)
	if err != nil {
		m.app.Logger.Debugf("Failed to verify token: %v", err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Invalid token", util.GenerateErrorMessages(err, "unauthorized"), nil)
		ctx.Abort()
		return
	}

	if claim.Type != constant.JWT_TYPE_ACCESS {
		m.app.Logger.Debugf("Invalid token type: %s", claim.Type)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Invalid access token type", util.GenerateErrorMessages(errors.New("invalid token type"), "unauthorized"), nil)
		ctx.Abort()
		return
	}

	ctx.Set(constant.CONTEXT_USER_KEY, claim.Payload())
	ctx.Next()
}

// RequirePermission must run after AuthMiddleware.
func (m Middleware) RequirePermission(permissions ...constant.CertificatePermission) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		v, _ := ctx.Get(constant.CONTEXT_USER_KEY)
		user, ok := v.(auth.JWTPayload)
		if !ok {
			util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(errors.New("user not found in context"), "unauthorized"), nil)
			return
		}

		if !util.HasPermission(user.Role, permissions) {
			m.app.Logger.Debugf("User %s with role %s lacks %v", user.UserID, user.Role, permissions)
			util.ResponseFailed(ctx, http.StatusForbidden, "You do not have permission to perform this action", util.GenerateErrorMessages(errors.New("you do not have permission to perform this action"), "forbidden"), nil)
			return
		}

		ctx.Next()
	}
}
