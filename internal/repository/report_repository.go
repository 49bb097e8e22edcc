package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-inventory-api/internal/dto"
)

// ReportRepository runs read-only report queries.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Inventory lists goods joined with their category name, optionally for one category.
func (r *ReportRepository) Inventory(ctx context.Context, categoryID string) ([]dto.InventoryReportRow, error) {
	query := `SELECT g.id, g.name, g.category_id, g.description, g.status, g.quantity, g.available_quantity, g.location, g.responsible, g.created_at, g.updated_at,
COALESCE(c.name, 'N/A') AS category_name
FROM goods g
LEFT JOIN categories c ON c.id = g.category_id`
	var args []interface{}
	if categoryID != "" {
		query += ` WHERE g.category_id = $1`
		args = append(args, categoryID)
	}
	query += ` ORDER BY c.name ASC, g.name ASC LIMIT 10000`

	rows := make([]dto.InventoryReportRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("inventory report: %w", err)
	}
	return rows, nil
}
