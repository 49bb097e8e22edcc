package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-inventory-api/internal/dto"
	"github.com/noah-isme/academy-inventory-api/internal/models"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
	"github.com/noah-isme/academy-inventory-api/pkg/export"
)

type inventoryReportRepository interface {
	Inventory(ctx context.Context, categoryID string) ([]dto.InventoryReportRow, error)
}

type assignmentReportRepository interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

// ReportService builds read-only inventory and assignment reports.
type ReportService struct {
	inventory   inventoryReportRepository
	assignments assignmentReportRepository
	renderers   map[dto.ReportFormat]datasetRenderer
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewReportService wires the report service with the CSV and PDF exporters.
func NewReportService(inventory inventoryReportRepository, assignments assignmentReportRepository, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReportService{
		inventory:   inventory,
		assignments: assignments,
		renderers: map[dto.ReportFormat]datasetRenderer{
			dto.ReportFormatCSV: export.NewCSVExporter(export.WithBOM()),
			dto.ReportFormatPDF: export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate returns the report rows for JSON, or a rendered file for csv and pdf.
func (s *ReportService) Generate(ctx context.Context, q dto.ReportQuery) (interface{}, *dto.ReportFile, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, nil, validationError(err, "report_type must be inventory or assignments")
	}
	format := q.Format
	if format == "" {
		format = dto.ReportFormatJSON
	}

	var (
		rows    interface{}
		dataset export.Dataset
	)
	switch q.ReportType {
	case dto.ReportInventory:
		items, err := s.inventory.Inventory(ctx, strings.TrimSpace(q.CategoryID))
		if err != nil {
			return nil, nil, appErrors.Internal(err, "failed to build inventory report")
		}
		rows, dataset = items, inventoryDataset(items)
	case dto.ReportAssignments:
		items, err := s.assignments.List(ctx, models.AssignmentFilter{
			InstructorName: strings.TrimSpace(q.InstructorName),
			Discipline:     strings.TrimSpace(q.Discipline),
		})
		if err != nil {
			return nil, nil, appErrors.Internal(err, "failed to build assignments report")
		}
		rows, dataset = items, assignmentDataset(items)
	}

	if format == dto.ReportFormatJSON {
		return rows, nil, nil
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
	content, err := renderer.Render(dataset)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to render report")
	}
	filename := fmt.Sprintf("%s-report-%s.%s", q.ReportType, s.now().UTC().Format("20060102-150405"), format)
	return nil, &dto.ReportFile{Filename: filename, ContentType: renderer.ContentType(), Content: content}, nil
}

func inventoryDataset(items []dto.InventoryReportRow) export.Dataset {
	data := export.Dataset{
		Title:   "Inventory report",
		Headers: []string{"Name", "Category", "Status", "Quantity", "Available", "Location", "Responsible"},
	}
	for _, item := range items {
		data.Rows = append(data.Rows, map[string]string{
			"Name":        item.Name,
			"Category":    item.CategoryName,
			"Status":      string(item.Status),
			"Quantity":    strconv.Itoa(item.Quantity),
			"Available":   strconv.Itoa(item.AvailableQuantity),
			"Location":    item.Location,
			"Responsible": item.Responsible,
		})
	}
	return data
}

func assignmentDataset(items []models.Assignment) export.Dataset {
	data := export.Dataset{
		Title:   "Assignments report",
		Headers: []string{"Date", "Instructor", "Discipline", "Status", "Items", "Created by"},
	}
	for _, a := range items {
		lines := make([]string, 0, len(a.Details))
		for _, d := range a.Details {
			lines = append(lines, fmt.Sprintf("%s x%d", d.GoodName, d.QuantityAssigned))
		}
		data.Rows = append(data.Rows, map[string]string{
			"Date":       a.CreatedAt.UTC().Format("2006-01-02 15:04"),
			"Instructor": a.InstructorName,
			"Discipline": a.Discipline,
			"Status":     string(a.Status),
			"Items":      strings.Join(lines, ", "),
			"Created by": a.CreatedBy,
		})
	}
	return data
}
