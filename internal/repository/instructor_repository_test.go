package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-inventory-api/internal/models"
)

var instructorCols = []string{"id", "name", "email", "phone", "specialization", "active", "password_hash", "created_at", "updated_at"}

func TestInstructorFindByEmailScansNullablePassword(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM instructors WHERE LOWER(email) = LOWER($1)")).
		WithArgs("carla@academia.com").
		WillReturnRows(sqlmock.NewRows(instructorCols).AddRow("i1", "Carla", "carla@academia.com", "", "Swimming", true, nil, now, now))

	inst, err := repo.FindByEmail(context.Background(), "carla@academia.com")
	require.NoError(t, err)
	assert.Nil(t, inst.PasswordHash)
	assert.False(t, inst.CanLogin())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorUpdateRenamesAssignments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE instructors SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET instructor_name = $2 WHERE instructor_name = $1")).
		WithArgs("Carla", "Carla Ruiz").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &models.Instructor{ID: "i1", Name: "Carla Ruiz", Email: "carla@academia.com", Active: true}, "Carla")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorUpdateMissingRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE instructors SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &models.Instructor{ID: "missing", Name: "X"}, "X")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorIsReferenced(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM assignments WHERE instructor_name = $1)")).
		WithArgs("Carla").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	used, err := repo.IsReferenced(context.Background(), "Carla")
	require.NoError(t, err)
	assert.True(t, used)
}

func TestInstructorActiveNames(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM instructors WHERE active = TRUE ORDER BY name ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Ana").AddRow("Carla"))

	names, err := repo.ActiveNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana", "Carla"}, names)
}

func TestInstructorNameTaken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM instructors WHERE LOWER(name) = LOWER($1) AND id::text <> $2")).
		WithArgs("ana", "i2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.NameTaken(context.Background(), "ana", "i2")
	require.NoError(t, err)
	assert.True(t, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorUpdateDuplicateNameSkipsRename(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE instructors SET").WillReturnError(&pq.Error{Code: "23505", Constraint: "instructors_name_key"})
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &models.Instructor{ID: "i1", Name: "Ana"}, "Ana Maria")
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet(), "assignments are not renamed")
}
