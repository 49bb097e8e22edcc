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

	"github.com/noah-isme/academy-inventory-api/internal/models"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
)

type goodRepository interface {
	List(ctx context.Context, filter models.GoodFilter) ([]models.Good, error)
	FindByID(ctx context.Context, id string) (*models.Good, error)
	Create(ctx context.Context, good *models.Good) error
	Update(ctx context.Context, good *models.Good, delta int) error
	IsReferenced(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type categoryFinder interface {
	FindByID(ctx context.Context, id string) (*models.Category, error)
}

// GoodService manages inventory items.
type GoodService struct {
	repo       goodRepository
	categories categoryFinder
	audit      auditRecorder
	stats      statsInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewGoodService creates a GoodService.
func NewGoodService(repo goodRepository, categories categoryFinder, audit auditRecorder, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *GoodService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &GoodService{repo: repo, categories: categories, audit: audit, stats: stats, validator: validate, logger: logger}
}

// List returns goods matching the filter.
func (s *GoodService) List(ctx context.Context, filter models.GoodFilter) ([]models.Good, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown good status")
	}
	goods, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list goods")
	}
	return goods, nil
}

// Get returns a single good.
func (s *GoodService) Get(ctx context.Context, id string) (*models.Good, error) {
	good, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "good", "load")
	}
	return good, nil
}

// Create registers a good with its whole quantity available.
func (s *GoodService) Create(ctx context.Context, req models.CreateGoodRequest, actor models.Actor) (*models.Good, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid good payload")
	}
	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = models.GoodStatusAvailable
	}

	now := time.Now().UTC()
	good := &models.Good{
		ID:                uuid.NewString(),
		Name:              strings.TrimSpace(req.Name),
		CategoryID:        req.CategoryID,
		Description:       strings.TrimSpace(req.Description),
		Status:            status,
		Quantity:          req.Quantity,
		AvailableQuantity: req.Quantity,
		Location:          strings.TrimSpace(req.Location),
		Responsible:       strings.TrimSpace(req.Responsible),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, good); err != nil {
		return nil, mapRepoError(err, "good", "create")
	}
	recordAudit(ctx, s.audit, actor, models.AuditActionCreate, models.AuditModuleGoods, fmt.Sprintf("Created good %s (qty %d)", good.Name, good.Quantity))
	invalidate(ctx, s.stats)
	return good, nil
}

// Update patches a good. A quantity change shifts availability by the same delta and
// is refused when more units are out on assignment than the new total.
func (s *GoodService) Update(ctx context.Context, id string, req models.UpdateGoodRequest, actor models.Actor) (*models.Good, error) {
	good, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "good", "load")
	}

	if err := applyString(&good.Name, req.Name, "name", true); err != nil {
		return nil, err
	}
	if req.CategoryID.Set {
		var categoryID string
		if err := applyString(&categoryID, req.CategoryID, "category_id", true); err != nil {
			return nil, err
		}
		if categoryID != good.CategoryID {
			if err := s.ensureCategory(ctx, categoryID); err != nil {
				return nil, err
			}
		}
		good.CategoryID = categoryID
	}
	if err := applyString(&good.Description, req.Description, "description", false); err != nil {
		return nil, err
	}
	if err := applyString(&good.Location, req.Location, "location", false); err != nil {
		return nil, err
	}
	if err := applyString(&good.Responsible, req.Responsible, "responsible", true); err != nil {
		return nil, err
	}
	if err := applyValue(&good.Status, req.Status, "status"); err != nil {
		return nil, err
	}
	if !good.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown good status")
	}

	delta := 0
	if req.Quantity.Set {
		quantity := good.Quantity
		if err := applyValue(&quantity, req.Quantity, "quantity"); err != nil {
			return nil, err
		}
		if quantity < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "quantity cannot be negative")
		}
		delta = quantity - good.Quantity
		good.Quantity = quantity
	}
	if !req.Status.Set && delta != 0 {
		good.Status = statusForAvailability(good.Status, good.AvailableQuantity+delta)
	}

	if err := s.repo.Update(ctx, good, delta); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.updateMissed(ctx, good, delta)
		}
		return nil, mapRepoError(err, "good", "update")
	}
	recordAudit(ctx, s.audit, actor, models.AuditActionUpdate, models.AuditModuleGoods, fmt.Sprintf("Updated good %s", good.Name))
	invalidate(ctx, s.stats)
	return good, nil
}

// updateMissed explains an update that matched no row: the good is gone, or the
// availability guard refused a shrink below the assigned units.
func (s *GoodService) updateMissed(ctx context.Context, good *models.Good, delta int) error {
	if delta >= 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "good not found")
	}
	if _, err := s.repo.FindByID(ctx, good.ID); err != nil {
		return mapRepoError(err, "good", "load")
	}
	return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot reduce quantity of %s: %d units are assigned", good.Name, good.Quantity-delta-good.AvailableQuantity))
}

// Delete removes a good unless an assignment line references it.
func (s *GoodService) Delete(ctx context.Context, id string, actor models.Actor) error {
	good, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepoError(err, "good", "load")
	}
	referenced, err := s.repo.IsReferenced(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to check good usage")
	}
	if referenced {
		return appErrors.Clone(appErrors.ErrInUse, "good appears in assignments")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "good", "delete")
	}
	recordAudit(ctx, s.audit, actor, models.AuditActionDelete, models.AuditModuleGoods, fmt.Sprintf("Deleted good %s", good.Name))
	invalidate(ctx, s.stats)
	return nil
}

func (s *GoodService) ensureCategory(ctx context.Context, id string) error {
	if s.categories == nil {
		return nil
	}
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "category does not exist")
		}
		return appErrors.Internal(err, "failed to load category")
	}
	return nil
}

// statusForAvailability flips between available and assigned as stock runs out or returns.
// Maintenance and retired are left alone.
func statusForAvailability(current models.GoodStatus, available int) models.GoodStatus {
	switch {
	case current == models.GoodStatusAvailable && available <= 0:
		return models.GoodStatusAssigned
	case current == models.GoodStatusAssigned && available > 0:
		return models.GoodStatusAvailable
	}
	return current
}
