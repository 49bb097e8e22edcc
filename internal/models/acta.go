package models

import "time"

// ActaTypeDelivery marks receipts generated on checkout.
const ActaTypeDelivery = "delivery"

// Acta is the generated receipt record for an assignment.
type Acta struct {
	ID           string      `db:"id" json:"id"`
	AssignmentID string      `db:"assignment_id" json:"assignment_id"`
	Code         string      `db:"code" json:"code"`
	PDFFilename  string      `db:"pdf_filename" json:"pdf_filename"`
	Type         string      `db:"type" json:"type"`
	CreatedBy    string      `db:"created_by" json:"created_by"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	Assignment   *Assignment `db:"-" json:"assignment,omitempty"`
}

// ActaLink is a time-limited download URL.
type ActaLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignedReceipt describes a countersigned upload.
type SignedReceipt struct {
	AssignmentID string `json:"assignment_id"`
	Filename     string `json:"filename"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
}
