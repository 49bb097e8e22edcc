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

type sportRepository interface {
	List(ctx context.Context) ([]models.Sport, error)
	ActiveNames(ctx context.Context) ([]string, error)
	FindByID(ctx context.Context, id string) (*models.Sport, error)
	Create(ctx context.Context, sport *models.Sport) error
	Update(ctx context.Context, sport *models.Sport, previousName string) error
	IsReferenced(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// SportService manages the disciplines goods are assigned for.
type SportService struct {
	repo      sportRepository
	audit     auditRecorder
	stats     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSportService creates a SportService.
func NewSportService(repo sportRepository, audit auditRecorder, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *SportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SportService{repo: repo, audit: audit, stats: stats, validator: validate, logger: logger}
}

// List returns every sport.
func (s *SportService) List(ctx context.Context) ([]models.Sport, error) {
	sports, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list sports")
	}
	return sports, nil
}

// Disciplines returns the names of active sports.
func (s *SportService) Disciplines(ctx context.Context) ([]string, error) {
	names, err := s.repo.ActiveNames(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list disciplines")
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Create registers a sport. Sports are active unless stated otherwise.
func (s *SportService) Create(ctx context.Context, req models.CreateSportRequest, actor models.Actor) (*models.Sport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid sport payload")
	}
	now := time.Now().UTC()
	sport := &models.Sport{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Active != nil {
		sport.Active = *req.Active
	}
	if err := s.repo.Create(ctx, sport); err != nil {
		return nil, mapRepoError(err, "sport", "create")
	}
	recordAudit(ctx, s.audit, actor, models.AuditActionCreate, models.AuditModuleSports, fmt.Sprintf("Created sport %s", sport.Name))
	return sport, nil
}

// Update patches a sport. Renames are carried over to existing assignments.
func (s *SportService) Update(ctx context.Context, id string, req models.UpdateSportRequest, actor models.Actor) (*models.Sport, error) {
	sport, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "sport", "load")
	}
	previousName := sport.Name
	if err := applyString(&sport.Name, req.Name, "name", true); err != nil {
		return nil, err
	}
	if err := applyString(&sport.Description, req.Description, "description", false); err != nil {
		return nil, err
	}
	if err := applyValue(&sport.Active, req.Active, "active"); err != nil {
		return nil, err
	}
	sport.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, sport, previousName); err != nil {
		return nil, mapRepoError(err, "sport", "update")
	}
	if sport.Name != previousName {
		invalidate(ctx, s.stats)
	}
	recordAudit(ctx, s.audit, actor, models.AuditActionUpdate, models.AuditModuleSports, fmt.Sprintf("Updated sport %s", sport.Name))
	return sport, nil
}

// Delete removes a sport unless an assignment uses it as discipline.
func (s *SportService) Delete(ctx context.Context, id string, actor models.Actor) error {
	sport, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepoError(err, "sport", "load")
	}
	referenced, err := s.repo.IsReferenced(ctx, sport.Name)
	if err != nil {
		return appErrors.Internal(err, "failed to check sport usage")
	}
	if referenced {
		return appErrors.Clone(appErrors.ErrInUse, "sport is used by existing assignments")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "sport", "delete")
	}
	recordAudit(ctx, s.audit, actor, models.AuditActionDelete, models.AuditModuleSports, fmt.Sprintf("Deleted sport %s", sport.Name))
	return nil
}
