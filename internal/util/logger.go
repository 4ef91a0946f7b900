package util

import (
	"strings"

	"go.uber.org/zap"
)

// NewLogger returns a JSON logger in production and a console logger
// elsewhere. Every entry carries the app name.
func NewLogger(env string) *zap.SugaredLogger {
	var logger *zap.Logger

	if strings.EqualFold(env, "production") {
		logger = zap.Must(zap.NewProduction())
	} else {
		logger = zap.Must(zap.NewDevelopment())
	}

	return logger.Sugar().With("app", GetAppName())
}
