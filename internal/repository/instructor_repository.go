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

const instructorColumns = `id, name, email, phone, specialization, active, password_hash, created_at, updated_at`

// InstructorRepository provides database access for instructors.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository creates a new instance of InstructorRepository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// List returns instructors ordered by name.
func (r *InstructorRepository) List(ctx context.Context) ([]models.Instructor, error) {
	const query = `SELECT ` + instructorColumns + ` FROM instructors ORDER BY name ASC`
	instructors := make([]models.Instructor, 0)
	if err := r.db.SelectContext(ctx, &instructors, query); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	return instructors, nil
}

// ActiveNames returns the names of active instructors.
func (r *InstructorRepository) ActiveNames(ctx context.Context) ([]string, error) {
	const query = `SELECT name FROM instructors WHERE active = TRUE ORDER BY name ASC`
	names := make([]string, 0)
	if err := r.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("list active instructor names: %w", err)
	}
	return names, nil
}

// FindByID returns an instructor by identifier.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	const query = `SELECT ` + instructorColumns + ` FROM instructors WHERE id = $1 LIMIT 1`
	return r.get(ctx, "find instructor by id", query, id)
}

// FindByEmail returns an instructor by email, case-insensitively.
func (r *InstructorRepository) FindByEmail(ctx context.Context, email string) (*models.Instructor, error) {
	const query = `SELECT ` + instructorColumns + ` FROM instructors WHERE LOWER(email) = LOWER($1) LIMIT 1`
	return r.get(ctx, "find instructor by email", query, email)
}

// FindByName returns the instructor carrying the given name. Names are unique.
func (r *InstructorRepository) FindByName(ctx context.Context, name string) (*models.Instructor, error) {
	const query = `SELECT ` + instructorColumns + ` FROM instructors WHERE name = $1 LIMIT 1`
	return r.get(ctx, "find instructor by name", query, name)
}

// NameTaken reports whether another instructor already uses name, ignoring case.
func (r *InstructorRepository) NameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM instructors WHERE LOWER(name) = LOWER($1) AND id::text <> $2)`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, name, exceptID); err != nil {
		return false, fmt.Errorf("check instructor name: %w", err)
	}
	return taken, nil
}

func (r *InstructorRepository) get(ctx context.Context, op, query string, arg interface{}) (*models.Instructor, error) {
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &instructor, nil
}

// Create inserts a new instructor.
func (r *InstructorRepository) Create(ctx context.Context, instructor *models.Instructor) error {
	if instructor.ID == "" {
		instructor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if instructor.CreatedAt.IsZero() {
		instructor.CreatedAt = now
	}
	instructor.UpdatedAt = now

	const query = `INSERT INTO instructors (id, name, email, phone, specialization, active, password_hash, created_at, updated_at) VALUES (:id, :name, :email, :phone, :specialization, :active, :password_hash, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, instructor); err != nil {
		return classify(err, "create instructor")
	}
	return nil
}

// Update persists an instructor. When the name changes, assignments recorded under
// the previous name follow it so the portal keeps showing them.
func (r *InstructorRepository) Update(ctx context.Context, instructor *models.Instructor, previousName string) (err error) {
	instructor.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin instructor update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE instructors SET name = :name, email = :email, phone = :phone, specialization = :specialization, active = :active, password_hash = :password_hash, updated_at = :updated_at WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, query, instructor)
	if err != nil {
		return classify(err, "update instructor")
	}
	if err = expectAffected(res, "update instructor"); err != nil {
		return err
	}

	if previousName != "" && previousName != instructor.Name {
		const rename = `UPDATE assignments SET instructor_name = $2 WHERE instructor_name = $1`
		if _, err = tx.ExecContext(ctx, rename, previousName, instructor.Name); err != nil {
			return fmt.Errorf("rename instructor assignments: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit instructor update: %w", err)
	}
	return nil
}

// IsReferenced reports whether any assignment was issued to the instructor name.
func (r *InstructorRepository) IsReferenced(ctx context.Context, name string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM assignments WHERE instructor_name = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, name); err != nil {
		return false, fmt.Errorf("check instructor references: %w", err)
	}
	return exists, nil
}

// Delete removes an instructor.
func (r *InstructorRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM instructors WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return classify(err, "delete instructor")
	}
	return expectAffected(res, "delete instructor")
}
