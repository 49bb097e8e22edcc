package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
)

type categoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	IsReferenced(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// CategoryService manages good categories.
type CategoryService struct {
	repo      categoryRepository
	audit     auditRecorder
	stats     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(repo categoryRepository, audit auditRecorder, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CategoryService{repo: repo, audit: audit, stats: stats, validator: validate, logger: logger}
}

// List returns every category.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list categories")
	}
	return categories, nil
}

// Create registers a category.
func (s *CategoryService) Create(ctx context.Context, req models.CreateCategoryRequest, actor models.Actor) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid category payload")
	}
	now := time.Now().UTC()
	category := &models.Category{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, mapRepoError(err, "category", "create")
	}
	recordAudit(ctx, s.audit, actor, models.AuditActionCreate, models.AuditModuleCategories, fmt.Sprintf("Created category %s", category.Name))
	invalidate(ctx, s.stats)
	return category, nil
}

// Update patches a category.
func (s *CategoryService) Update(ctx context.Context, id string, req models.UpdateCategoryRequest, actor models.Actor) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "category", "load")
	}
	if err := applyString(&category.Name, req.Name, "name", true); err != nil {
		return nil, err
	}
	if err := applyString(&category.Description, req.Description, "description", false); err != nil {
		return nil, err
	}
	category.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, mapRepoError(err, "category", "update")
	}
	recordAudit(ctx, s.audit, actor, models.AuditActionUpdate, models.AuditModuleCategories, fmt.Sprintf("Updated category %s", category.Name))
	return category, nil
}

// Delete removes a category unless goods still belong to it.
func (s *CategoryService) Delete(ctx context.Context, id string, actor models.Actor) error {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepoError(err, "category", "load")
	}
	referenced, err := s.repo.IsReferenced(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to check category usage")
	}
	if referenced {
		return appErrors.Clone(appErrors.ErrInUse, "category has goods assigned to it")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "category", "delete")
	}
	recordAudit(ctx, s.audit, actor, models.AuditActionDelete, models.AuditModuleCategories, fmt.Sprintf("Deleted category %s", category.Name))
	invalidate(ctx, s.stats)
	return nil
}
