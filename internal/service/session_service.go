package service

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/schedule-builder-api/internal/dto"
	"github.com/noah-isme/schedule-builder-api/internal/models"
	appErrors "github.com/noah-isme/schedule-builder-api/pkg/errors"
)

const sessionIssuer = "schedule-builder-api"

// SessionConfig configures anonymous session tokens.
type SessionConfig struct {
	Secret   string
	Expiry   time.Duration
	AdminKey string
}

// SessionService issues and validates the bearer tokens that identify a workspace owner.
type SessionService struct {
	config SessionConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(config SessionConfig, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Expiry <= 0 {
		config.Expiry = 30 * 24 * time.Hour
	}
	return &SessionService{config: config, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Issue creates a token for a fresh owner. A matching admin key grants the ADMIN role; a wrong
// one is refused rather than silently downgraded.
func (s *SessionService) Issue(req dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	role := models.RoleStudent
	if req.AdminKey != "" {
		if s.config.AdminKey == "" || subtle.ConstantTimeCompare([]byte(req.AdminKey), []byte(s.config.AdminKey)) != 1 {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid admin key")
		}
		role = models.RoleAdmin
	}

	ownerID := uuid.NewString()
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.config.Expiry)
	claims := &models.SessionClaims{
		OwnerID: ownerID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   ownerID,
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session token")
	}

	s.logger.Info("session issued", zap.String("owner_id", ownerID), zap.String("role", string(role)))
	return &dto.SessionResponse{
		Token:     token,
		OwnerID:   ownerID,
		Role:      role,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken parses a bearer token and returns its claims.
func (s *SessionService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session token")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.OwnerID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session claims")
	}
	return claims, nil
}
