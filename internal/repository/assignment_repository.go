package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academy-inventory-api/internal/models"
)

const (
	assignmentColumns = `id, instructor_name, discipline, created_by, status, notes, signed_receipt_uploaded, signed_receipt_file, confirmed_at, created_at`
	maxAssignmentRows = 10000
)

// AssignmentRepository persists assignments, their lines and the stock they consume.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new instance of AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create writes the header, lines, stock decrements, acta and optional outbox row in
// one transaction. A decrement that matches no row aborts with *StockConflictError.
func (r *AssignmentRepository) Create(ctx context.Context, na *models.NewAssignment) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment tx: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = &RollbackError{Cause: err, Rollback: rbErr}
		}
	}()

	const insertHeader = `INSERT INTO assignments (id, instructor_name, discipline, created_by, status, notes, signed_receipt_uploaded, signed_receipt_file, confirmed_at, created_at) VALUES (:id, :instructor_name, :discipline, :created_by, :status, :notes, :signed_receipt_uploaded, :signed_receipt_file, :confirmed_at, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertHeader, &na.Assignment); err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}

	const insertDetail = `INSERT INTO assignment_details (id, assignment_id, good_id, quantity_assigned, created_at) VALUES (:id, :assignment_id, :good_id, :quantity_assigned, :created_at)`
	for i := range na.Details {
		if _, err = tx.NamedExecContext(ctx, insertDetail, &na.Details[i]); err != nil {
			return classify(err, "insert assignment detail")
		}
	}

	const decrement = `UPDATE goods SET available_quantity = available_quantity - $2,
status = CASE WHEN available_quantity - $2 = 0 AND status = 'available' THEN 'assigned' ELSE status END,
updated_at = $3
WHERE id = $1 AND available_quantity >= $2`
	now := time.Now().UTC()
	for _, line := range na.Decrements {
		var res sql.Result
		res, err = tx.ExecContext(ctx, decrement, line.GoodID, line.Quantity, now)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		var affected int64
		if affected, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("decrement stock: rows affected: %w", err)
		}
		if affected == 0 {
			err = &StockConflictError{GoodID: line.GoodID}
			return err
		}
	}

	const insertActa = `INSERT INTO actas (id, assignment_id, code, pdf_filename, type, created_by, created_at) VALUES (:id, :assignment_id, :code, :pdf_filename, :type, :created_by, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertActa, &na.Acta); err != nil {
		return classify(err, "insert acta")
	}

	if na.Notification != nil {
		if err = insertNotification(ctx, tx, na.Notification); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment: %w", err)
	}
	return nil
}

// List returns assignments with their lines, newest first.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	var conditions []string
	var args []interface{}
	if filter.InstructorName != "" {
		args = append(args, filter.InstructorName)
		conditions = append(conditions, fmt.Sprintf("instructor_name = $%d", len(args)))
	}
	if filter.Discipline != "" {
		args = append(args, filter.Discipline)
		conditions = append(conditions, fmt.Sprintf("discipline = $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 || limit > maxAssignmentRows {
		limit = maxAssignmentRows
	}

	query := `SELECT ` + assignmentColumns + ` FROM assignments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", limit)

	assignments := make([]models.Assignment, 0)
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	if err := r.attachDetails(ctx, assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// FindByID returns one assignment with its lines.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1 LIMIT 1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	list := []models.Assignment{assignment}
	if err := r.attachDetails(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// FindByIDs returns assignments keyed by id, without lines.
func (r *AssignmentRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Assignment, error) {
	result := make(map[string]models.Assignment, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	const query = `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = ANY($1)`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find assignments by ids: %w", err)
	}
	for _, a := range assignments {
		result[a.ID] = a
	}
	return result, nil
}

// Count returns the number of assignments.
func (r *AssignmentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM assignments`); err != nil {
		return 0, fmt.Errorf("count assignments: %w", err)
	}
	return total, nil
}

// MarkReceived flips an active assignment to received. sql.ErrNoRows means it was not active.
func (r *AssignmentRepository) MarkReceived(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE assignments SET status = $2, confirmed_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.AssignmentStatusReceived, at, models.AssignmentStatusActive)
	if err != nil {
		return fmt.Errorf("confirm assignment: %w", err)
	}
	return expectAffected(res, "confirm assignment")
}

// SetSignedReceipt records the countersigned upload for an assignment.
func (r *AssignmentRepository) SetSignedReceipt(ctx context.Context, id, filename string) error {
	const query = `UPDATE assignments SET signed_receipt_uploaded = TRUE, signed_receipt_file = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, filename)
	if err != nil {
		return fmt.Errorf("record signed receipt: %w", err)
	}
	return expectAffected(res, "record signed receipt")
}

func (r *AssignmentRepository) attachDetails(ctx context.Context, assignments []models.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	ids := make([]string, len(assignments))
	for i, a := range assignments {
		ids[i] = a.ID
	}
	const query = `SELECT d.id, d.assignment_id, d.good_id, COALESCE(g.name, 'N/A') AS good_name, d.quantity_assigned, d.created_at
FROM assignment_details d
LEFT JOIN goods g ON g.id = d.good_id
WHERE d.assignment_id = ANY($1)
ORDER BY d.created_at ASC`
	var details []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &details, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("load assignment details: %w", err)
	}
	byAssignment := make(map[string][]models.AssignmentDetail, len(assignments))
	for _, d := range details {
		byAssignment[d.AssignmentID] = append(byAssignment[d.AssignmentID], d)
	}
	for i := range assignments {
		lines := byAssignment[assignments[i].ID]
		if lines == nil {
			lines = []models.AssignmentDetail{}
		}
		assignments[i].Details = lines
	}
	return nil
}
