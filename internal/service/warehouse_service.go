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

type warehouseRepository interface {
	List(ctx context.Context) ([]models.Warehouse, error)
	FindByID(ctx context.Context, id string) (*models.Warehouse, error)
	Create(ctx context.Context, warehouse *models.Warehouse) error
	Update(ctx context.Context, warehouse *models.Warehouse) error
	Delete(ctx context.Context, id string) error
}

// WarehouseService manages storage locations.
type WarehouseService struct {
	repo      warehouseRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWarehouseService creates a WarehouseService.
func NewWarehouseService(repo warehouseRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *WarehouseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &WarehouseService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns every warehouse.
func (s *WarehouseService) List(ctx context.Context) ([]models.Warehouse, error) {
	warehouses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list warehouses")
	}
	return warehouses, nil
}

// Create registers a warehouse.
func (s *WarehouseService) Create(ctx context.Context, req models.CreateWarehouseRequest, actor models.Actor) (*models.Warehouse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid warehouse payload")
	}
	now := time.Now().UTC()
	warehouse := &models.Warehouse{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Location:    strings.TrimSpace(req.Location),
		Capacity:    req.Capacity,
		Responsible: strings.TrimSpace(req.Responsible),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, warehouse); err != nil {
		return nil, mapRepoError(err, "warehouse", "create")
	}
	recordAudit(ctx, s.audit, actor, models.AuditActionCreate, models.AuditModuleWarehouses, fmt.Sprintf("Created warehouse %s", warehouse.Name))
	return warehouse, nil
}

// Update patches a warehouse.
func (s *WarehouseService) Update(ctx context.Context, id string, req models.UpdateWarehouseRequest, actor models.Actor) (*models.Warehouse, error) {
	warehouse, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "warehouse", "load")
	}
	if err := applyString(&warehouse.Name, req.Name, "name", true); err != nil {
		return nil, err
	}
	if err := applyString(&warehouse.Location, req.Location, "location", false); err != nil {
		return nil, err
	}
	if err := applyString(&warehouse.Responsible, req.Responsible, "responsible", false); err != nil {
		return nil, err
	}
	if err := applyValue(&warehouse.Capacity, req.Capacity, "capacity"); err != nil {
		return nil, err
	}
	if warehouse.Capacity < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "capacity cannot be negative")
	}
	warehouse.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, warehouse); err != nil {
		return nil, mapRepoError(err, "warehouse", "update")
	}
	recordAudit(ctx, s.audit, actor, models.AuditActionUpdate, models.AuditModuleWarehouses, fmt.Sprintf("Updated warehouse %s", warehouse.Name))
	return warehouse, nil
}

// Delete removes a warehouse.
func (s *WarehouseService) Delete(ctx context.Context, id string, actor models.Actor) error {
	warehouse, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepoError(err, "warehouse", "load")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "warehouse", "delete")
	}
	recordAudit(ctx, s.audit, actor, models.AuditActionDelete, models.AuditModuleWarehouses, fmt.Sprintf("Deleted warehouse %s", warehouse.Name))
	return nil
}
