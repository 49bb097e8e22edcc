package service

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	"github.com/noah-isme/academy-inventory-api/internal/repository"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
)

// mapRepoError translates repository failures into typed API errors.
func mapRepoError(err error, resource, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, resource+" already exists")
	case errors.Is(err, repository.ErrReferenced):
		return appErrors.Wrap(err, appErrors.ErrInUse.Code, appErrors.ErrInUse.Status, resource+" is still referenced")
	case errors.Is(err, repository.ErrConstraint):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, resource+" violates a data constraint")
	}
	return appErrors.Internal(err, "failed to "+action+" "+resource)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// applyString sets dst from a patch field. Null is rejected for required columns.
func applyString(dst *string, field models.Optional[string], name string, required bool) error {
	if !field.Set {
		return nil
	}
	if field.Null {
		if required {
			return appErrors.Clone(appErrors.ErrValidation, name+" cannot be null")
		}
		*dst = ""
		return nil
	}
	value := strings.TrimSpace(field.Value)
	if required && value == "" {
		return appErrors.Clone(appErrors.ErrValidation, name+" cannot be empty")
	}
	*dst = value
	return nil
}

// applyValue sets dst from a non-nullable patch field.
func applyValue[T any](dst *T, field models.Optional[T], name string) error {
	if !field.Set {
		return nil
	}
	if field.Null {
		return appErrors.Clone(appErrors.ErrValidation, name+" cannot be null")
	}
	*dst = field.Value
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
