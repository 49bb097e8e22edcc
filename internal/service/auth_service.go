package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
)

// TokenType is reported alongside issued access tokens.
const TokenType = "Bearer"

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type authInstructorRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Instructor, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry models.AuditEntry)
}

// AuthConfig defines configuration for token issuance.
type AuthConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// AuthService verifies credentials for both principal kinds and resolves tokens back to principals.
type AuthService struct {
	users       authUserRepository
	instructors authInstructorRepository
	audit       auditRecorder
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	config      AuthConfig
	dummyHash   []byte
	now         func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, instructors authInstructorRepository, audit auditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = 24 * time.Hour
	}
	// Compared against when no account matches so both paths cost one bcrypt round.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	return &AuthService{
		users:       users,
		instructors: instructors,
		audit:       audit,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		config:      config,
		dummyHash:   dummy,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Login authenticates against staff accounts first, then instructors with portal access.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}
	email := normalizeEmail(req.Email)

	principal, err := s.verify(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}

	active := principal.Info().Active
	if !active {
		s.metrics.LoginAttempt("disabled")
		return nil, appErrors.Clone(appErrors.ErrAccountDisabled, "account is disabled")
	}

	token, _, err := s.IssueToken(principal)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	s.metrics.LoginAttempt("success")
	if s.audit != nil {
		s.audit.Record(ctx, models.AuditEntry{
			Actor:   principal.Email(),
			Action:  models.AuditActionLogin,
			Module:  models.AuditModuleAuth,
			IP:      req.IP,
			Details: fmt.Sprintf("login as %s", principal.Kind),
		})
	}

	return &models.LoginResponse{
		Token:     token,
		TokenType: TokenType,
		ExpiresIn: int64(s.config.Expiry.Seconds()),
		User:      principal.Info(),
	}, nil
}

// verify returns the first record whose password matches. Unknown emails and bad
// passwords produce the same error.
func (s *AuthService) verify(ctx context.Context, email, password string) (models.Principal, error) {
	matched := false

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		matched = true
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil {
			return models.UserPrincipal(*user), nil
		}
	case !errors.Is(err, sql.ErrNoRows):
		return models.Principal{}, appErrors.Internal(err, "failed to fetch user")
	}

	instructor, err := s.instructors.FindByEmail(ctx, email)
	switch {
	case err == nil && instructor.CanLogin():
		matched = true
		if bcrypt.CompareHashAndPassword([]byte(*instructor.PasswordHash), []byte(password)) == nil {
			return models.InstructorPrincipal(*instructor), nil
		}
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return models.Principal{}, appErrors.Internal(err, "failed to fetch instructor")
	}

	if !matched {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
	}
	s.metrics.LoginAttempt("invalid")
	return models.Principal{}, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
}

// Resolve validates the token and re-reads the principal so deleted or disabled accounts are cut off.
func (s *AuthService) Resolve(ctx context.Context, tokenString string) (models.Principal, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return models.Principal{}, err
	}

	email := normalizeEmail(claims.Subject)
	switch claims.Kind {
	case models.PrincipalInstructor:
		instructor, err := s.instructors.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.Principal{}, appErrors.Clone(appErrors.ErrPrincipalNotFound, "instructor not found")
			}
			return models.Principal{}, appErrors.Internal(err, "failed to load instructor")
		}
		if !instructor.Active || !instructor.CanLogin() {
			return models.Principal{}, appErrors.Clone(appErrors.ErrAccountDisabled, "instructor access is disabled")
		}
		return models.InstructorPrincipal(*instructor), nil
	case models.PrincipalUser, "":
		user, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.Principal{}, appErrors.Clone(appErrors.ErrPrincipalNotFound, "user not found")
			}
			return models.Principal{}, appErrors.Internal(err, "failed to load user")
		}
		if !user.Active {
			return models.Principal{}, appErrors.Clone(appErrors.ErrAccountDisabled, "account is disabled")
		}
		return models.UserPrincipal(*user), nil
	}
	return models.Principal{}, appErrors.Clone(appErrors.ErrTokenInvalid, "unknown principal kind")
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.Wrap(err, appErrors.ErrTokenExpired.Code, appErrors.ErrTokenExpired.Status, "token expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrTokenInvalid.Code, appErrors.ErrTokenInvalid.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrTokenInvalid, "invalid token claims")
	}
	return claims, nil
}

// IssueToken signs an access token for the principal.
func (s *AuthService) IssueToken(p models.Principal) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.config.Expiry)
	claims := &models.JWTClaims{
		Kind: p.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   p.Email(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
