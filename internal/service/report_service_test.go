package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-inventory-api/internal/dto"
	"github.com/noah-isme/academy-inventory-api/internal/models"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
)

type stubInventoryReport struct {
	rows       []dto.InventoryReportRow
	categoryID string
}

func (s *stubInventoryReport) Inventory(ctx context.Context, categoryID string) ([]dto.InventoryReportRow, error) {
	s.categoryID = categoryID
	return s.rows, nil
}

func newReportFixture() (*ReportService, *stubInventoryReport) {
	inventory := &stubInventoryReport{rows: []dto.InventoryReportRow{{
		Good:         models.Good{Name: "Ball", Status: models.GoodStatusAvailable, Quantity: 4, AvailableQuantity: 3, Responsible: "Coach"},
		CategoryName: "Balls",
	}}}
	assignments := stubAssignmentSummary{recent: []models.Assignment{{
		InstructorName: "X",
		Discipline:     "Football",
		Status:         models.AssignmentStatusActive,
		CreatedBy:      "admin@academia.com",
		CreatedAt:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Details:        []models.AssignmentDetail{{GoodName: "Ball", QuantityAssigned: 1}},
	}}}
	svc := NewReportService(inventory, assignments, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC) }
	return svc, inventory
}

func TestReportServiceJSON(t *testing.T) {
	svc, inventory := newReportFixture()

	rows, file, err := svc.Generate(context.Background(), dto.ReportQuery{ReportType: dto.ReportInventory, CategoryID: " c-1 "})
	require.NoError(t, err)
	assert.Nil(t, file)
	assert.Len(t, rows, 1)
	assert.Equal(t, "c-1", inventory.categoryID)
}

func TestReportServiceCSV(t *testing.T) {
	svc, _ := newReportFixture()

	_, file, err := svc.Generate(context.Background(), dto.ReportQuery{ReportType: dto.ReportAssignments, Format: dto.ReportFormatCSV})
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "assignments-report-20240302-083000.csv", file.Filename)
	assert.True(t, strings.HasPrefix(file.ContentType, "text/csv"))
	assert.Contains(t, string(file.Content), "Ball x1")
}

func TestReportServicePDF(t *testing.T) {
	svc, _ := newReportFixture()

	_, file, err := svc.Generate(context.Background(), dto.ReportQuery{ReportType: dto.ReportInventory, Format: dto.ReportFormatPDF})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Content), "%PDF"))
}

func TestReportServiceRejectsUnknownType(t *testing.T) {
	svc, _ := newReportFixture()

	_, _, err := svc.Generate(context.Background(), dto.ReportQuery{ReportType: "payroll"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = svc.Generate(context.Background(), dto.ReportQuery{ReportType: dto.ReportInventory, Format: "xlsx"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
