package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
)

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

type authFixture struct {
	svc         *AuthService
	users       *memUserRepo
	instructors *memInstructorRepo
	audit       *fakeAudit
	metrics     *MetricsService
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	instructorHash := hashFor(t, "coach123")
	users := newMemUserRepo(
		models.User{ID: "u-admin", Name: "Admin", Email: "admin@academia.com", PasswordHash: hashFor(t, "admin123"), Role: models.RoleAdmin, Active: true},
		models.User{ID: "u-off", Name: "Former", Email: "former@academia.com", PasswordHash: hashFor(t, "former123"), Role: models.RoleControl, Active: false},
	)
	instructors := newMemInstructorRepo(
		models.Instructor{ID: "i-1", Name: "Carla Ruiz", Email: "carla@academia.com", Active: true, PasswordHash: &instructorHash},
		models.Instructor{ID: "i-2", Name: "No Login", Email: "nologin@academia.com", Active: true},
	)
	audit := &fakeAudit{}
	metrics := NewMetricsService()
	svc := NewAuthService(users, instructors, audit, metrics, validator.New(), zap.NewNop(), AuthConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"})
	return authFixture{svc: svc, users: users, instructors: instructors, audit: audit, metrics: metrics}
}

func TestAuthServiceLoginUser(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "Admin@Academia.com", Password: "admin123", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, TokenType, resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.PrincipalUser, resp.User.Kind)
	assert.Equal(t, "admin", resp.User.Role)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionLogin, f.audit.entries[0].Action)
	assert.Equal(t, "10.0.0.1", f.audit.entries[0].IP)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.loginAttempts.WithLabelValues("success")))

	claims, err := f.svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin@academia.com", claims.Subject)
	assert.Equal(t, models.PrincipalUser, claims.Kind)
}

func TestAuthServiceLoginInstructor(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "carla@academia.com", Password: "coach123"})
	require.NoError(t, err)
	assert.Equal(t, models.PrincipalInstructor, resp.User.Kind)

	principal, err := f.svc.Resolve(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.True(t, principal.IsInstructor())
	assert.Equal(t, "Carla Ruiz", principal.Name())
}

func TestAuthServiceLoginFailuresDoNotRevealAccounts(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, wrongPassword := f.svc.Login(ctx, models.LoginRequest{Email: "admin@academia.com", Password: "nope"})
	_, unknown := f.svc.Login(ctx, models.LoginRequest{Email: "ghost@academia.com", Password: "nope"})
	_, noLogin := f.svc.Login(ctx, models.LoginRequest{Email: "nologin@academia.com", Password: "nope"})

	for _, err := range []error{wrongPassword, unknown, noLogin} {
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
		assert.Equal(t, "invalid email or password", appErr.Message)
	}
	assert.Empty(t, f.audit.entries)
}

func TestAuthServiceLoginDisabledAccount(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "former@academia.com", Password: "former123"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrAccountDisabled)
}

func TestAuthServiceLoginValidation(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceResolveRejectsExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	issued := time.Now().Add(-2 * time.Hour)
	f.svc.now = func() time.Time { return issued }
	token, _, err := f.svc.IssueToken(models.UserPrincipal(*f.users.users["u-admin"]))
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now() }
	_, err = f.svc.Resolve(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrTokenExpired)
}

func TestAuthServiceResolveRejectsTamperedToken(t *testing.T) {
	f := newAuthFixture(t)
	token, _, err := f.svc.IssueToken(models.UserPrincipal(*f.users.users["u-admin"]))
	require.NoError(t, err)

	_, err = f.svc.Resolve(context.Background(), token+"x")
	assert.ErrorIs(t, err, appErrors.ErrTokenInvalid)

	_, err = f.svc.Resolve(context.Background(), "garbage")
	assert.ErrorIs(t, err, appErrors.ErrTokenInvalid)
}

func TestAuthServiceResolveCutsOffDeletedAndDisabledAccounts(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	token, _, err := f.svc.IssueToken(models.UserPrincipal(*f.users.users["u-admin"]))
	require.NoError(t, err)
	delete(f.users.users, "u-admin")
	_, err = f.svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, appErrors.ErrPrincipalNotFound)

	instructorToken, _, err := f.svc.IssueToken(models.InstructorPrincipal(*f.instructors.instructors["i-1"]))
	require.NoError(t, err)
	f.instructors.instructors["i-1"].PasswordHash = nil
	_, err = f.svc.Resolve(ctx, instructorToken)
	assert.ErrorIs(t, err, appErrors.ErrAccountDisabled)
}
