package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	constant "github.com/quantract/certledger/internal/constant"
)

// Response is the admin API envelope. Public verification responses do not
// use it.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func BuildResponseSuccess(data any) Response {
	if data == nil {
		data = gin.H{}
	}

	return Response{
		Success: true,
		Message: constant.REQUEST_SUCCESSFUL,
		Data:    data,
	}
}

func ResponseSuccess(ctx *gin.Context, data any) {
	ctx.JSON(http.StatusOK, BuildResponseSuccess(data))
	ctx.Abort()
}

// ResponseCreated answers 201 with the created resource.
func ResponseCreated(ctx *gin.Context, data any) {
	ctx.JSON(http.StatusCreated, BuildResponseSuccess(data))
	ctx.Abort()
}

// BuildResponseFailed accepts either prepared []ApiError or a raw error,
// which is converted with GenerateErrorMessages.
func BuildResponseFailed(message string, errs any, data any) Response {
	if message == "" {
		message = constant.REQUEST_UNSUCCESSFUL
	}

	if err, ok := errs.(error); ok {
		errs = GenerateErrorMessages(err)
	}
	if errs == nil {
		errs = gin.H{}
	}
	if data == nil {
		data = gin.H{}
	}

	return Response{
		Success: false,
		Message: message,
		Errors:  errs,
		Data:    data,
	}
}

func ResponseFailed(ctx *gin.Context, code int, message string, errs any, data any) {
	ctx.JSON(code, BuildResponseFailed(message, errs, data))
	ctx.Abort()
}
