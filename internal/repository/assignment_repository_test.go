package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-inventory-api/internal/models"
)

func sampleNewAssignment(withNotification bool) *models.NewAssignment {
	now := time.Now().UTC()
	na := &models.NewAssignment{
		Assignment: models.Assignment{ID: "a1", InstructorName: "X", Discipline: "Soccer", CreatedBy: "admin@academia.com", Status: models.AssignmentStatusActive, CreatedAt: now},
		Details: []models.AssignmentDetail{
			{ID: "d1", AssignmentID: "a1", GoodID: "g1", QuantityAssigned: 2, CreatedAt: now},
		},
		Decrements: []models.StockDecrement{{GoodID: "g1", GoodName: "Soccer Ball", Quantity: 2}},
		Acta:       models.Acta{ID: "ac1", AssignmentID: "a1", Code: "RECEIPT-A1", PDFFilename: "RECEIPT-A1.pdf", Type: models.ActaTypeDelivery, CreatedBy: "admin@academia.com", CreatedAt: now},
	}
	if withNotification {
		id := "a1"
		na.Notification = &models.Notification{AssignmentID: &id, Recipient: "x@academia.com", Subject: "s", Body: "b"}
	}
	return na
}

func TestAssignmentCreateCommitsEverything(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO assignments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO assignment_details").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND available_quantity >= $2")).
		WithArgs("g1", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO actas").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notification_outbox").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	na := sampleNewAssignment(true)
	require.NoError(t, repo.Create(context.Background(), na))
	assert.NotEmpty(t, na.Notification.ID)
	assert.Equal(t, models.NotificationPending, na.Notification.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentCreateConditionalDecrementFails(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO assignments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO assignment_details").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE goods SET available_quantity").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleNewAssignment(false))
	var stock *StockConflictError
	require.True(t, errors.As(err, &stock))
	assert.Equal(t, "g1", stock.GoodID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentCreateRollbackFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO assignments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO assignment_details").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback().WillReturnError(errors.New("bad connection"))

	err := repo.Create(context.Background(), sampleNewAssignment(false))
	var rb *RollbackError
	require.True(t, errors.As(err, &rb))
	assert.Contains(t, rb.Cause.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentListAttachesDetails(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments WHERE instructor_name = $1 ORDER BY created_at DESC LIMIT 10000")).
		WithArgs("X").
		WillReturnRows(sqlmock.NewRows([]string{"id", "instructor_name", "discipline", "created_by", "status", "notes", "signed_receipt_uploaded", "signed_receipt_file", "confirmed_at", "created_at"}).
			AddRow("a1", "X", "Soccer", "admin@academia.com", "active", "", false, nil, nil, now).
			AddRow("a2", "X", "Soccer", "admin@academia.com", "received", "", true, "signed/SIGNED_A2.pdf", now, now))
	mock.ExpectQuery("FROM assignment_details d").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "assignment_id", "good_id", "good_name", "quantity_assigned", "created_at"}).
			AddRow("d1", "a1", "g1", "Soccer Ball", 2, now))

	list, err := repo.List(context.Background(), models.AssignmentFilter{InstructorName: "X"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Len(t, list[0].Details, 1)
	assert.Equal(t, "Soccer Ball", list[0].Details[0].GoodName)
	assert.NotNil(t, list[1].Details)
	assert.Empty(t, list[1].Details)
	require.NotNil(t, list[1].SignedReceiptFile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentMarkReceivedOnlyOnce(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET status = $2, confirmed_at = $3 WHERE id = $1 AND status = $4")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkReceived(context.Background(), "a1", time.Now())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
