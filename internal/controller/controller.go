package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	appcontext "github.com/quantract/certledger/internal/app_context"
	"github.com/quantract/certledger/internal/auth"
	"github.com/quantract/certledger/internal/constant"
	"github.com/quantract/certledger/internal/ledger"
	"github.com/quantract/certledger/internal/util"
)

type baseController struct {
	app *appcontext.Application
}

type Controller struct {
	Index       *IndexController
	Certificate *CertificateController
	Verify      *VerifyController
}

func newBaseController(app *appcontext.Application) *baseController {
	return &baseController{app: app}
}

func NewController(app *appcontext.Application) *Controller {
	bc := newBaseController(app)

	return &Controller{
		Index:       &IndexController{baseController: bc},
		Certificate: &CertificateController{baseController: bc},
		Verify:      &VerifyController{baseController: bc},
	}
}

func (b *baseController) getAuthUser(ctx *gin.Context) (*auth.JWTPayload, error) {
	v, exists := ctx.Get(constant.CONTEXT_USER_KEY)
	if !exists {
		return nil, errors.New("user not found in context")
	}

	user, ok := v.(auth.JWTPayload)
	if !ok {
		return nil, errors.New("unexpected user type in context")
	}

	return &user, nil
}

func (b *baseController) getActor(ctx *gin.Context) (ledger.Actor, error) {
	user, err := b.getAuthUser(ctx)
	if err != nil {
		return ledger.Actor{}, err
	}
	return ledger.Actor{UserID: user.UserID, CompanyID: user.CompanyID, Role: user.Role}, nil
}

// responseLedgerError maps ledger and verification errors onto the admin
// response envelope. Unknown errors are logged and answered with a 500 that
// carries no internals.
func (b *baseController) responseLedgerError(ctx *gin.Context, message string, err error) {
	var (
		validationErr *ledger.ValidationError
		conflictErr   *ledger.ConflictError
		renderErr     *ledger.RenderError
	)

	switch {
	case errors.As(err, &validationErr):
		util.ResponseFailed(ctx, http.StatusUnprocessableEntity, "Certificate is not ready", missingFieldErrors(validationErr.Missing), nil)
	case errors.As(err, &conflictErr):
		ctx.Header("Retry-After", "1")
		util.ResponseFailed(ctx, http.StatusConflict, "Certificate was modified concurrently, try again", util.GenerateErrorMessages(err, "conflict"), nil)
	case errors.Is(err, ledger.ErrInvalidContent), errors.Is(err, ledger.ErrReasonRequired):
		util.ResponseFailed(ctx, http.StatusBadRequest, message, util.GenerateErrorMessages(err), nil)
	case errors.Is(err, ledger.ErrNotFound):
		util.ResponseFailed(ctx, http.StatusNotFound, "Certificate not found", util.GenerateErrorMessages(ledger.ErrNotFound, "notFound"), nil)
	case errors.Is(err, ledger.ErrInvalidState),
		errors.Is(err, ledger.ErrConflict),
		errors.Is(err, ledger.ErrNoToken),
		errors.Is(err, ledger.ErrAlreadyRevoked),
		errors.Is(err, ledger.ErrNotRevoked):
		util.ResponseFailed(ctx, http.StatusConflict, message, util.GenerateErrorMessages(err, "status"), nil)
	case errors.As(err, &renderErr):
		b.app.Logger.Errorw(message, "error", err)
		util.ResponseFailed(ctx, http.StatusBadGateway, "Certificate could not be rendered", util.GenerateErrorMessages(errors.New("renderer failed"), "renderer"), nil)
	case errors.Is(err, ledger.ErrStorageUnavailable):
		b.app.Logger.Errorw(message, "error", err)
		util.ResponseFailed(ctx, http.StatusServiceUnavailable, "Artifact storage unavailable", util.GenerateErrorMessages(ledger.ErrStorageUnavailable, "storage"), nil)
	default:
		b.app.Logger.Errorw(message, "error", err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, message, util.GenerateErrorMessages(errors.New("internal error")), nil)
	}
}

func missingFieldErrors(missing []string) []util.ApiError {
	out := make([]util.ApiError, len(missing))
	for i, field := range missing {
		out[i] = util.ApiError{Field: field, Message: field + " is required"}
	}
	return out
}
