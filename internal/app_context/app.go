package appcontext

import (
	"github.com/quantract/certledger/internal/auth"
	"github.com/quantract/certledger/internal/config"
	"github.com/quantract/certledger/internal/ledger"
	"github.com/quantract/certledger/internal/metrics"
	"github.com/quantract/certledger/internal/repository"
	"github.com/quantract/certledger/internal/verification"
	"go.uber.org/zap"
)

// Application contains core dependencies for the app.
type Application struct {
	// Config holds application settings provided from .env file.
	Config *config.Config

	Logger *zap.SugaredLogger

	// Repository provides read access to audit logs. Certificate writes go
	// through Ledger.
	Repository *repository.Repository

	// JWTService verifies the access tokens minted by the identity provider.
	JWTService auth.JWTInterface

	// Ledger owns drafts, issuance and revision history.
	Ledger *ledger.Service

	// Gate serves public verification and owns revocation.
	Gate *verification.Gate

	// Metrics may be nil.
	Metrics *metrics.Metrics
}
