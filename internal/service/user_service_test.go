package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	"github.com/noah-isme/academy-inventory-api/internal/repository"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
)

func TestUserServiceCreate(t *testing.T) {
	repo := newMemUserRepo(models.User{ID: "u-1", Email: "taken@academia.com", Role: models.RoleControl, Active: true})
	audit := &fakeAudit{}
	svc := NewUserService(repo, audit, nil, zap.NewNop())
	ctx := context.Background()

	user, err := svc.Create(ctx, models.CreateUserRequest{
		Name: "Controller", Email: " New@Academia.com ", Password: "secret1", Role: models.RoleControl,
	}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "new@academia.com", user.Email)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
	assert.Equal(t, []string{models.AuditActionCreate}, audit.actions())

	_, err = svc.Create(ctx, models.CreateUserRequest{
		Name: "Dup", Email: "TAKEN@academia.com", Password: "secret1", Role: models.RoleAdmin,
	}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Create(ctx, models.CreateUserRequest{
		Name: "Bad", Email: "bad@academia.com", Password: "secret1", Role: "owner",
	}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUserServiceCreateMapsDuplicateRace(t *testing.T) {
	repo := newMemUserRepo()
	repo.createErr = repository.ErrDuplicate
	svc := NewUserService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), models.CreateUserRequest{
		Name: "A", Email: "a@academia.com", Password: "secret1", Role: models.RoleAdmin,
	}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestUserServiceUpdate(t *testing.T) {
	repo := newMemUserRepo(models.User{ID: "u-1", Name: "Old", Email: "old@academia.com", Role: models.RoleControl, Active: true})
	svc := NewUserService(repo, nil, nil, nil)
	ctx := context.Background()

	user, err := svc.Update(ctx, "u-1", models.UpdateUserRequest{
		Email:    models.Some("NEW@academia.com"),
		Role:     models.Some(models.RoleAdmin),
		Active:   models.Some(false),
		Password: models.Some("another1"),
	}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "Old", user.Name)
	assert.Equal(t, "new@academia.com", user.Email)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.False(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["u-1"].PasswordHash), []byte("another1")))

	_, err = svc.Update(ctx, "u-1", models.UpdateUserRequest{Password: models.Some("123")}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Update(ctx, "u-1", models.UpdateUserRequest{Name: models.Null[string]()}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Update(ctx, "u-1", models.UpdateUserRequest{Email: models.Some("not-an-email")}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Update(ctx, "u-404", models.UpdateUserRequest{}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUserServiceUpdateProtectsOwnAccount(t *testing.T) {
	repo := newMemUserRepo(models.User{ID: adminActor.ID, Name: "Admin", Email: adminActor.Email, Role: models.RoleAdmin, Active: true})
	svc := NewUserService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Update(ctx, adminActor.ID, models.UpdateUserRequest{Active: models.Some(false)}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = svc.Update(ctx, adminActor.ID, models.UpdateUserRequest{Role: models.Some(models.RoleControl)}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Equal(t, models.RoleAdmin, repo.users[adminActor.ID].Role)
	assert.True(t, repo.users[adminActor.ID].Active)

	user, err := svc.Update(ctx, adminActor.ID, models.UpdateUserRequest{
		Name:   models.Some("Head Admin"),
		Role:   models.Some(models.RoleAdmin),
		Active: models.Some(true),
	}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "Head Admin", user.Name)
}

func TestUserServiceDelete(t *testing.T) {
	repo := newMemUserRepo(
		models.User{ID: adminActor.ID, Email: adminActor.Email, Role: models.RoleAdmin, Active: true},
		models.User{ID: "u-2", Email: "two@academia.com", Role: models.RoleControl, Active: true},
	)
	audit := &fakeAudit{}
	svc := NewUserService(repo, audit, nil, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, adminActor.ID, adminActor), appErrors.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, "u-2", adminActor))
	assert.NotContains(t, repo.users, "u-2")
	assert.ErrorIs(t, svc.Delete(ctx, "u-2", adminActor), appErrors.ErrNotFound)
	assert.Equal(t, []string{models.AuditActionDelete}, audit.actions())
}

func TestUserServiceEnsureDefaultAdmin(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewUserService(repo, nil, nil, nil)
	ctx := context.Background()

	created, err := svc.EnsureDefaultAdmin(ctx, "", "Admin@Academia.com", "admin123")
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, repo.users, 1)
	for _, u := range repo.users {
		assert.Equal(t, "admin@academia.com", u.Email)
		assert.Equal(t, models.RoleAdmin, u.Role)
		assert.Equal(t, "Administrator", u.Name)
	}

	created, err = svc.EnsureDefaultAdmin(ctx, "Admin", "admin@academia.com", "admin123")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = svc.EnsureDefaultAdmin(ctx, "Admin", "", "")
	require.NoError(t, err)
	assert.False(t, created)
}
