package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// UserService handles staff account management.
type UserService struct {
	repo      userRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns all staff accounts.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list users")
	}
	return users, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "user", "load")
	}
	return user, nil
}

// Create adds a new staff account.
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest, actor models.Actor) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid create user payload")
	}
	email := normalizeEmail(req.Email)

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check email uniqueness")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         req.Role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, mapRepoError(err, "user", "create")
	}

	s.record(ctx, actor, models.AuditActionCreate, fmt.Sprintf("Created user %s (%s)", user.Email, user.Role))
	return user, nil
}

// Update patches a staff account. Only fields present in the payload change.
func (s *UserService) Update(ctx context.Context, id string, req models.UpdateUserRequest, actor models.Actor) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "user", "load")
	}
	previousRole, wasActive := user.Role, user.Active

	if err := applyString(&user.Name, req.Name, "name", true); err != nil {
		return nil, err
	}
	if req.Email.Set {
		var email string
		if err := applyString(&email, req.Email, "email", true); err != nil {
			return nil, err
		}
		if err := s.validator.Var(email, "email"); err != nil {
			return nil, validationError(err, "invalid email")
		}
		user.Email = normalizeEmail(email)
	}
	if err := applyValue(&user.Role, req.Role, "role"); err != nil {
		return nil, err
	}
	if !user.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be admin or control")
	}
	if err := applyValue(&user.Active, req.Active, "active"); err != nil {
		return nil, err
	}
	if user.ID == actor.ID && (user.Role != previousRole || (wasActive && !user.Active)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot change the role or deactivate your own account")
	}
	if req.Password.Set {
		var password string
		if err := applyValue(&password, req.Password, "password"); err != nil {
			return nil, err
		}
		if err := s.validator.Var(password, "min=6"); err != nil {
			return nil, validationError(err, "password must have at least 6 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, mapRepoError(err, "user", "update")
	}

	s.record(ctx, actor, models.AuditActionUpdate, fmt.Sprintf("Updated user %s", user.Email))
	return user, nil
}

// Delete removes a staff account. Admins cannot remove themselves.
func (s *UserService) Delete(ctx context.Context, id string, actor models.Actor) error {
	if id == actor.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot delete your own account")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepoError(err, "user", "load")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "user", "delete")
	}

	s.record(ctx, actor, models.AuditActionDelete, fmt.Sprintf("Deleted user %s", user.Email))
	return nil
}

// EnsureDefaultAdmin seeds an administrator when the configured email is not registered yet.
func (s *UserService) EnsureDefaultAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return false, appErrors.Internal(err, "failed to look up default admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, appErrors.Internal(err, "failed to hash password")
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	now := time.Now().UTC()
	admin := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		if errors.Is(mapRepoError(err, "user", "create"), appErrors.ErrConflict) {
			return false, nil
		}
		return false, appErrors.Internal(err, "failed to create default admin")
	}
	s.logger.Info("default admin created", zap.String("email", email))
	return true, nil
}

func (s *UserService) record(ctx context.Context, actor models.Actor, action, details string) {
	recordAudit(ctx, s.audit, actor, action, models.AuditModuleUsers, details)
}
