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

type instructorRepository interface {
	List(ctx context.Context) ([]models.Instructor, error)
	ActiveNames(ctx context.Context) ([]string, error)
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	FindByEmail(ctx context.Context, email string) (*models.Instructor, error)
	NameTaken(ctx context.Context, name, exceptID string) (bool, error)
	Create(ctx context.Context, instructor *models.Instructor) error
	Update(ctx context.Context, instructor *models.Instructor, previousName string) error
	IsReferenced(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// InstructorService manages instructors and their optional portal credentials.
type InstructorService struct {
	repo      instructorRepository
	audit     auditRecorder
	stats     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstructorService creates an InstructorService.
func NewInstructorService(repo instructorRepository, audit auditRecorder, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *InstructorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &InstructorService{repo: repo, audit: audit, stats: stats, validator: validate, logger: logger}
}

// List returns every instructor.
func (s *InstructorService) List(ctx context.Context) ([]models.InstructorView, error) {
	instructors, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list instructors")
	}
	views := make([]models.InstructorView, 0, len(instructors))
	for _, i := range instructors {
		views = append(views, models.NewInstructorView(i))
	}
	return views, nil
}

// ActiveNames returns the names of active instructors for assignment forms.
func (s *InstructorService) ActiveNames(ctx context.Context) ([]string, error) {
	names, err := s.repo.ActiveNames(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list instructors")
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Create registers an instructor. A password enables portal login.
func (s *InstructorService) Create(ctx context.Context, req models.CreateInstructorRequest, actor models.Actor) (*models.InstructorView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid instructor payload")
	}
	email := normalizeEmail(req.Email)
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, strings.TrimSpace(req.Name), ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	instructor := &models.Instructor{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		Phone:          strings.TrimSpace(req.Phone),
		Specialization: strings.TrimSpace(req.Specialization),
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.Active != nil {
		instructor.Active = *req.Active
	}
	if req.Password != "" {
		hash, err := hashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		instructor.PasswordHash = &hash
	}

	if err := s.repo.Create(ctx, instructor); err != nil {
		return nil, mapRepoError(err, "instructor", "create")
	}
	recordAudit(ctx, s.audit, actor, models.AuditActionCreate, models.AuditModuleInstructors, fmt.Sprintf("Created instructor %s", instructor.Name))
	view := models.NewInstructorView(*instructor)
	return &view, nil
}

// Update patches an instructor. A null password revokes portal access and a rename
// is carried over to existing assignments.
func (s *InstructorService) Update(ctx context.Context, id string, req models.UpdateInstructorRequest, actor models.Actor) (*models.InstructorView, error) {
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "instructor", "load")
	}
	previousName := instructor.Name

	if err := applyString(&instructor.Name, req.Name, "name", true); err != nil {
		return nil, err
	}
	if instructor.Name != previousName {
		if err := s.ensureNameFree(ctx, instructor.Name, instructor.ID); err != nil {
			return nil, err
		}
	}
	if req.Email.Set {
		var email string
		if err := applyString(&email, req.Email, "email", true); err != nil {
			return nil, err
		}
		if err := s.validator.Var(email, "email"); err != nil {
			return nil, validationError(err, "invalid email")
		}
		email = normalizeEmail(email)
		if email != instructor.Email {
			if err := s.ensureEmailFree(ctx, email, instructor.ID); err != nil {
				return nil, err
			}
		}
		instructor.Email = email
	}
	if err := applyString(&instructor.Phone, req.Phone, "phone", false); err != nil {
		return nil, err
	}
	if err := applyString(&instructor.Specialization, req.Specialization, "specialization", false); err != nil {
		return nil, err
	}
	if err := applyValue(&instructor.Active, req.Active, "active"); err != nil {
		return nil, err
	}
	switch {
	case req.Password.Cleared():
		instructor.PasswordHash = nil
	case req.Password.Present():
		if err := s.validator.Var(req.Password.Value, "min=6"); err != nil {
			return nil, validationError(err, "password must have at least 6 characters")
		}
		hash, err := hashPassword(req.Password.Value)
		if err != nil {
			return nil, err
		}
		instructor.PasswordHash = &hash
	}
	instructor.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, instructor, previousName); err != nil {
		return nil, mapRepoError(err, "instructor", "update")
	}
	if instructor.Name != previousName {
		invalidate(ctx, s.stats)
	}
	recordAudit(ctx, s.audit, actor, models.AuditActionUpdate, models.AuditModuleInstructors, fmt.Sprintf("Updated instructor %s", instructor.Name))
	view := models.NewInstructorView(*instructor)
	return &view, nil
}

// Delete removes an instructor unless assignments still carry their name.
func (s *InstructorService) Delete(ctx context.Context, id string, actor models.Actor) error {
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepoError(err, "instructor", "load")
	}
	referenced, err := s.repo.IsReferenced(ctx, instructor.Name)
	if err != nil {
		return appErrors.Internal(err, "failed to check instructor usage")
	}
	if referenced {
		return appErrors.Clone(appErrors.ErrInUse, "instructor has assignments")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "instructor", "delete")
	}
	recordAudit(ctx, s.audit, actor, models.AuditActionDelete, models.AuditModuleInstructors, fmt.Sprintf("Deleted instructor %s", instructor.Name))
	return nil
}

func (s *InstructorService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil && existing.ID != selfID {
		return appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Internal(err, "failed to check email uniqueness")
	}
	return nil
}

// ensureNameFree keeps instructor names unique, since assignments and the portal key on them.
func (s *InstructorService) ensureNameFree(ctx context.Context, name, selfID string) error {
	taken, err := s.repo.NameTaken(ctx, name, selfID)
	if err != nil {
		return appErrors.Internal(err, "failed to check instructor name")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrConflict, "instructor name already registered")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", appErrors.Internal(err, "failed to hash password")
	}
	return string(hash), nil
}
