package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/quantract/certledger/internal/config"
	"github.com/quantract/certledger/internal/constant"
	"go.uber.org/zap"
)

var ErrInvalidClaims = errors.New("invalid token: required claims are missing")

type JWT struct {
	logger    *zap.SugaredLogger
	jwtSecret string
	issuer    string
}

type JWTInterface interface {
	GenerateAccessToken(payload JWTPayload, ttl time.Duration) (string, error)
	VerifyJwtToken(token string) (*JWTClaims, error)
}

func NewJwt(cfg config.AuthConfig, logger *zap.SugaredLogger) *JWT {
	// For unit test
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &JWT{
		jwtSecret: cfg.JWT_SECRET,
		issuer:    cfg.Issuer,
		logger:    logger,
	}
}

// JWTPayload is the authenticated caller: a user acting inside one company.
type JWTPayload struct {
	UserID    string               `json:"userId"`
	CompanyID string               `json:"companyId"`
	Role      constant.CompanyRole `json:"role"`
}

type JWTClaims struct {
	CompanyID string               `json:"companyId"`
	Role      constant.CompanyRole `json:"role"`
	Type      string               `json:"type"`
	jwt.RegisteredClaims
}

func (c JWTClaims) Payload() JWTPayload {
	return JWTPayload{UserID: c.Subject, CompanyID: c.CompanyID, Role: c.Role}
}

// GenerateAccessToken signs a short-lived access token. Sessions and refresh
// are owned by the identity provider in front of this service.
func (j JWT) GenerateAccessToken(payload JWTPayload, ttl time.Duration) (string, error) {
	j.logger.Debugf("Generate access token for user %s in company %s", payload.UserID, payload.CompanyID)

	now := time.Now()
	claims := JWTClaims{
		CompanyID: payload.CompanyID,
		Role:      payload.Role,
		Type:      constant.JWT_TYPE_ACCESS,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.UserID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.jwtSecret))
}

func (j JWT) VerifyJwtToken(token string) (*JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &JWTClaims{}
	parsedToken, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(j.jwtSecret), nil
	}, opts...)
	if err != nil {
		j.logger.Debugf("Failed to verify jwt token. Error: %v", err)
		return nil, err
	}

	if !parsedToken.Valid {
		j.logger.Debug("Jwt token is not valid")
		return nil, errors.New("jwt token is not valid")
	}

	if claims.Subject == "" || claims.CompanyID == "" || claims.Role == "" {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}
