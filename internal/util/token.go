package util

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	ErrNoAuthorization = errors.New("no authorization header specified")
	ErrMalformedBearer = errors.New("authorization header must be 'Bearer <token>'")
)

// ReadBearerToken returns the token of an "Authorization: Bearer <token>" header.
func ReadBearerToken(ctx *gin.Context) (string, error) {
	header := strings.TrimSpace(ctx.GetHeader("Authorization"))
	if header == "" {
		return "", ErrNoAuthorization
	}

	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrMalformedBearer
	}

	return token, nil
}
