package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-inventory-api/internal/models"
)

func TestAuditCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.AuditLog{UserEmail: "admin@academia.com", Action: models.AuditActionLogin, Module: models.AuditModuleAuth, IP: "10.0.0.1"}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditListClampsLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs WHERE module = $1 ORDER BY created_at DESC LIMIT 500")).
		WithArgs("goods").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_email", "action", "module", "ip", "details", "created_at"}).
			AddRow("l1", "admin@academia.com", "CREATE", "goods", "::1", "Ball", now))

	logs, err := repo.List(context.Background(), models.AuditFilter{Limit: 9000, Module: "goods"})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditListDefaultLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs ORDER BY created_at DESC LIMIT 100")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_email", "action", "module", "ip", "details", "created_at"}))

	logs, err := repo.List(context.Background(), models.AuditFilter{})
	require.NoError(t, err)
	assert.Empty(t, logs)
}
