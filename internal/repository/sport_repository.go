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

const sportColumns = `id, name, description, active, created_at, updated_at`

// SportRepository provides database access for sports (disciplines).
type SportRepository struct {
	db *sqlx.DB
}

// NewSportRepository creates a new instance of SportRepository.
func NewSportRepository(db *sqlx.DB) *SportRepository {
	return &SportRepository{db: db}
}

// List returns sports ordered by name.
func (r *SportRepository) List(ctx context.Context) ([]models.Sport, error) {
	const query = `SELECT ` + sportColumns + ` FROM sports ORDER BY name ASC`
	sports := make([]models.Sport, 0)
	if err := r.db.SelectContext(ctx, &sports, query); err != nil {
		return nil, fmt.Errorf("list sports: %w", err)
	}
	return sports, nil
}

// ActiveNames returns the names of active sports.
func (r *SportRepository) ActiveNames(ctx context.Context) ([]string, error) {
	const query = `SELECT name FROM sports WHERE active = TRUE ORDER BY name ASC`
	names := make([]string, 0)
	if err := r.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("list active sport names: %w", err)
	}
	return names, nil
}

// FindByID returns a sport by identifier.
func (r *SportRepository) FindByID(ctx context.Context, id string) (*models.Sport, error) {
	const query = `SELECT ` + sportColumns + ` FROM sports WHERE id = $1 LIMIT 1`
	var sport models.Sport
	if err := r.db.GetContext(ctx, &sport, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find sport: %w", err)
	}
	return &sport, nil
}

// Create inserts a new sport.
func (r *SportRepository) Create(ctx context.Context, sport *models.Sport) error {
	if sport.ID == "" {
		sport.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sport.CreatedAt.IsZero() {
		sport.CreatedAt = now
	}
	sport.UpdatedAt = now

	const query = `INSERT INTO sports (id, name, description, active, created_at, updated_at) VALUES (:id, :name, :description, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sport); err != nil {
		return classify(err, "create sport")
	}
	return nil
}

// Update persists a sport, carrying a rename over to assignments recorded under the old discipline.
func (r *SportRepository) Update(ctx context.Context, sport *models.Sport, previousName string) (err error) {
	sport.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sport update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE sports SET name = :name, description = :description, active = :active, updated_at = :updated_at WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, query, sport)
	if err != nil {
		return classify(err, "update sport")
	}
	if err = expectAffected(res, "update sport"); err != nil {
		return err
	}

	if previousName != "" && previousName != sport.Name {
		const rename = `UPDATE assignments SET discipline = $2 WHERE discipline = $1`
		if _, err = tx.ExecContext(ctx, rename, previousName, sport.Name); err != nil {
			return fmt.Errorf("rename sport assignments: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sport update: %w", err)
	}
	return nil
}

// IsReferenced reports whether any assignment uses the sport as its discipline.
func (r *SportRepository) IsReferenced(ctx context.Context, name string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM assignments WHERE discipline = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, name); err != nil {
		return false, fmt.Errorf("check sport references: %w", err)
	}
	return exists, nil
}

// Delete removes a sport.
func (r *SportRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM sports WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return classify(err, "delete sport")
	}
	return expectAffected(res, "delete sport")
}
