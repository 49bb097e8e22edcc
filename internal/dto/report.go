package dto

import "github.com/noah-isme/academy-inventory-api/internal/models"

// ReportType selects the report dataset.
type ReportType string

const (
	ReportInventory   ReportType = "inventory"
	ReportAssignments ReportType = "assignments"
)

// ReportFormat selects the response encoding.
type ReportFormat string

const (
	ReportFormatJSON ReportFormat = "json"
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatPDF  ReportFormat = "pdf"
)

// ReportQuery captures GET /reports parameters.
type ReportQuery struct {
	ReportType     ReportType   `form:"report_type" validate:"required,oneof=inventory assignments"`
	Format         ReportFormat `form:"format" validate:"omitempty,oneof=json csv pdf"`
	CategoryID     string       `form:"category_id"`
	InstructorName string       `form:"instructor_name"`
	Discipline     string       `form:"discipline"`
}

// InventoryReportRow is a good joined with its category name.
type InventoryReportRow struct {
	models.Good
	CategoryName string `db:"category_name" json:"category_name"`
}

// ReportFile is a rendered report ready for download.
type ReportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
