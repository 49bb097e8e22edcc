package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes the services care about.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

var (
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenced reports a foreign key preventing the change.
	ErrReferenced = errors.New("record is referenced")
	// ErrConstraint reports a failed CHECK constraint.
	ErrConstraint = errors.New("constraint violated")
)

// StockConflictError is returned when a conditional stock decrement matched no row.
type StockConflictError struct {
	GoodID string
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("insufficient stock for good %s", e.GoodID)
}

// RollbackError carries both the failure that aborted a transaction and the rollback failure.
type RollbackError struct {
	Cause    error
	Rollback error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("%v (rollback failed: %v)", e.Cause, e.Rollback)
}

func (e *RollbackError) Unwrap() error {
	return e.Cause
}

// classify maps driver errors onto repository sentinels while keeping the original message.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w: %s", op, ErrDuplicate, pqErr.Constraint)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w: %s", op, ErrReferenced, pqErr.Constraint)
		case pgCheckViolation:
			return fmt.Errorf("%s: %w: %s", op, ErrConstraint, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
