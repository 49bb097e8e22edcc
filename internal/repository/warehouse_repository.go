package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-inventory-api/internal/models"
)

const warehouseColumns = `id, name, location, capacity, responsible, created_at, updated_at`

// WarehouseRepository provides database access for warehouses.
type WarehouseRepository struct {
	db *sqlx.DB
}

// NewWarehouseRepository creates a new instance of WarehouseRepository.
func NewWarehouseRepository(db *sqlx.DB) *WarehouseRepository {
	return &WarehouseRepository{db: db}
}

// List returns warehouses ordered by name.
func (r *WarehouseRepository) List(ctx context.Context) ([]models.Warehouse, error) {
	const query = `SELECT ` + warehouseColumns + ` FROM warehouses ORDER BY name ASC`
	warehouses := make([]models.Warehouse, 0)
	if err := r.db.SelectContext(ctx, &warehouses, query); err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	return warehouses, nil
}

// FindByID returns a warehouse by identifier.
func (r *WarehouseRepository) FindByID(ctx context.Context, id string) (*models.Warehouse, error) {
	const query = `SELECT ` + warehouseColumns + ` FROM warehouses WHERE id = $1 LIMIT 1`
	var warehouse models.Warehouse
	if err := r.db.GetContext(ctx, &warehouse, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find warehouse: %w", err)
	}
	return &warehouse, nil
}

// Create inserts a new warehouse.
func (r *WarehouseRepository) Create(ctx context.Context, warehouse *models.Warehouse) error {
	if warehouse.ID == "" {
		warehouse.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if warehouse.CreatedAt.IsZero() {
		warehouse.CreatedAt = now
	}
	warehouse.UpdatedAt = now

	const query = `INSERT INTO warehouses (id, name, location, capacity, responsible, created_at, updated_at) VALUES (:id, :name, :location, :capacity, :responsible, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, warehouse); err != nil {
		return classify(err, "create warehouse")
	}
	return nil
}

// Update persists a warehouse.
func (r *WarehouseRepository) Update(ctx context.Context, warehouse *models.Warehouse) error {
	warehouse.UpdatedAt = time.Now().UTC()
	const query = `UPDATE warehouses SET name = :name, location = :location, capacity = :capacity, responsible = :responsible, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, warehouse)
	if err != nil {
		return classify(err, "update warehouse")
	}
	return expectAffected(res, "update warehouse")
}

// Delete removes a warehouse.
func (r *WarehouseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM warehouses WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete warehouse: %w", err)
	}
	return expectAffected(res, "delete warehouse")
}
