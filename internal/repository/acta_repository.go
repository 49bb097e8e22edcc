package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-inventory-api/internal/models"
)

const actaColumns = `id, assignment_id, code, pdf_filename, type, created_by, created_at`

// ActaRepository reads generated receipts. Actas are written with their assignment.
type ActaRepository struct {
	db *sqlx.DB
}

// NewActaRepository creates a new instance of ActaRepository.
func NewActaRepository(db *sqlx.DB) *ActaRepository {
	return &ActaRepository{db: db}
}

// List returns every acta, newest first.
func (r *ActaRepository) List(ctx context.Context) ([]models.Acta, error) {
	const query = `SELECT ` + actaColumns + ` FROM actas ORDER BY created_at DESC LIMIT 1000`
	actas := make([]models.Acta, 0)
	if err := r.db.SelectContext(ctx, &actas, query); err != nil {
		return nil, fmt.Errorf("list actas: %w", err)
	}
	return actas, nil
}

// ListByInstructor returns actas for assignments issued to the instructor name.
func (r *ActaRepository) ListByInstructor(ctx context.Context, instructorName string) ([]models.Acta, error) {
	const query = `SELECT a.id, a.assignment_id, a.code, a.pdf_filename, a.type, a.created_by, a.created_at
FROM actas a
JOIN assignments s ON s.id = a.assignment_id
WHERE s.instructor_name = $1
ORDER BY a.created_at DESC`
	actas := make([]models.Acta, 0)
	if err := r.db.SelectContext(ctx, &actas, query, instructorName); err != nil {
		return nil, fmt.Errorf("list instructor actas: %w", err)
	}
	return actas, nil
}

// FindByID returns an acta by identifier.
func (r *ActaRepository) FindByID(ctx context.Context, id string) (*models.Acta, error) {
	const query = `SELECT ` + actaColumns + ` FROM actas WHERE id = $1 LIMIT 1`
	return r.get(ctx, query, id)
}

// FindByAssignmentID returns the acta of an assignment.
func (r *ActaRepository) FindByAssignmentID(ctx context.Context, assignmentID string) (*models.Acta, error) {
	const query = `SELECT ` + actaColumns + ` FROM actas WHERE assignment_id = $1 LIMIT 1`
	return r.get(ctx, query, assignmentID)
}

func (r *ActaRepository) get(ctx context.Context, query, arg string) (*models.Acta, error) {
	var acta models.Acta
	if err := r.db.GetContext(ctx, &acta, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find acta: %w", err)
	}
	return &acta, nil
}
