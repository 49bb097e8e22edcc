package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academy-inventory-api/internal/dto"
	"github.com/noah-isme/academy-inventory-api/internal/models"
)

const goodColumns = `id, name, category_id, description, status, quantity, available_quantity, location, responsible, created_at, updated_at`

// GoodRepository provides database access for goods.
type GoodRepository struct {
	db *sqlx.DB
}

// NewGoodRepository creates a new instance of GoodRepository.
func NewGoodRepository(db *sqlx.DB) *GoodRepository {
	return &GoodRepository{db: db}
}

// List returns goods matching the filter, newest first.
func (r *GoodRepository) List(ctx context.Context, filter models.GoodFilter) ([]models.Good, error) {
	var conditions []string
	var args []interface{}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + goodColumns + ` FROM goods`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	goods := make([]models.Good, 0)
	if err := r.db.SelectContext(ctx, &goods, query, args...); err != nil {
		return nil, fmt.Errorf("list goods: %w", err)
	}
	return goods, nil
}

// FindByID returns a good by identifier.
func (r *GoodRepository) FindByID(ctx context.Context, id string) (*models.Good, error) {
	const query = `SELECT ` + goodColumns + ` FROM goods WHERE id = $1 LIMIT 1`
	var good models.Good
	if err := r.db.GetContext(ctx, &good, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find good: %w", err)
	}
	return &good, nil
}

// FindByIDs returns the goods with the given identifiers keyed by id. Missing ids are absent from the map.
func (r *GoodRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Good, error) {
	result := make(map[string]models.Good, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	const query = `SELECT ` + goodColumns + ` FROM goods WHERE id = ANY($1)`
	var goods []models.Good
	if err := r.db.SelectContext(ctx, &goods, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find goods by ids: %w", err)
	}
	for _, good := range goods {
		result[good.ID] = good
	}
	return result, nil
}

// Create inserts a new good.
func (r *GoodRepository) Create(ctx context.Context, good *models.Good) error {
	if good.ID == "" {
		good.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if good.CreatedAt.IsZero() {
		good.CreatedAt = now
	}
	good.UpdatedAt = now

	const query = `INSERT INTO goods (id, name, category_id, description, status, quantity, available_quantity, location, responsible, created_at, updated_at) VALUES (:id, :name, :category_id, :description, :status, :quantity, :available_quantity, :location, :responsible, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, good); err != nil {
		return classify(err, "create good")
	}
	return nil
}

// Update persists descriptive fields and shifts availability by delta. The write is
// skipped (sql.ErrNoRows) when the shift would leave availability negative.
func (r *GoodRepository) Update(ctx context.Context, good *models.Good, delta int) error {
	good.UpdatedAt = time.Now().UTC()
	const query = `UPDATE goods SET name = $2, category_id = $3, description = $4, status = $5, quantity = $6, available_quantity = available_quantity + $7, location = $8, responsible = $9, updated_at = $10
WHERE id = $1 AND available_quantity + $7 >= 0
RETURNING available_quantity`
	var available int
	err := r.db.GetContext(ctx, &available, query,
		good.ID, good.Name, good.CategoryID, good.Description, good.Status, good.Quantity, delta, good.Location, good.Responsible, good.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return classify(err, "update good")
	}
	good.AvailableQuantity = available
	return nil
}

// IsReferenced reports whether any assignment detail points at the good.
func (r *GoodRepository) IsReferenced(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM assignment_details WHERE good_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check good references: %w", err)
	}
	return exists, nil
}

// Delete removes a good.
func (r *GoodRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM goods WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return classify(err, "delete good")
	}
	return expectAffected(res, "delete good")
}

// Totals sums quantities over every good.
func (r *GoodRepository) Totals(ctx context.Context) (dto.InventoryTotals, error) {
	const query = `SELECT COUNT(*) AS total_goods, COALESCE(SUM(quantity), 0) AS total_quantity, COALESCE(SUM(available_quantity), 0) AS available_quantity FROM goods`
	var totals dto.InventoryTotals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return dto.InventoryTotals{}, fmt.Errorf("sum goods: %w", err)
	}
	return totals, nil
}
