package models

import "time"

// AssignmentStatus tracks whether the instructor confirmed reception.
type AssignmentStatus string

const (
	AssignmentStatusActive   AssignmentStatus = "active"
	AssignmentStatusReceived AssignmentStatus = "received"
)

// Assignment is a checkout of goods to an instructor.
type Assignment struct {
	ID                    string             `db:"id" json:"id"`
	InstructorName        string             `db:"instructor_name" json:"instructor_name"`
	Discipline            string             `db:"discipline" json:"discipline"`
	CreatedBy             string             `db:"created_by" json:"created_by"`
	Status                AssignmentStatus   `db:"status" json:"status"`
	Notes                 string             `db:"notes" json:"notes"`
	SignedReceiptUploaded bool               `db:"signed_receipt_uploaded" json:"signed_receipt_uploaded"`
	SignedReceiptFile     *string            `db:"signed_receipt_file" json:"signed_receipt_file,omitempty"`
	ConfirmedAt           *time.Time         `db:"confirmed_at" json:"confirmed_at,omitempty"`
	CreatedAt             time.Time          `db:"created_at" json:"created_at"`
	Details               []AssignmentDetail `db:"-" json:"details"`
}

// AssignmentDetail is one line of an assignment.
type AssignmentDetail struct {
	ID               string    `db:"id" json:"id"`
	AssignmentID     string    `db:"assignment_id" json:"assignment_id"`
	GoodID           string    `db:"good_id" json:"good_id"`
	GoodName         string    `db:"good_name" json:"good_name,omitempty"`
	QuantityAssigned int       `db:"quantity_assigned" json:"quantity_assigned"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	InstructorName string
	Discipline     string
	Limit          int
}

// AssignmentLine requests a quantity of one good.
type AssignmentLine struct {
	GoodID           string `json:"good_id" validate:"required"`
	QuantityAssigned int    `json:"quantity_assigned" validate:"required,gt=0"`
}

// CreateAssignmentRequest is the payload for checking goods out to an instructor.
type CreateAssignmentRequest struct {
	InstructorName string           `json:"instructor_name" validate:"required,max=120"`
	Discipline     string           `json:"discipline" validate:"required,max=120"`
	Details        []AssignmentLine `json:"details" validate:"required,min=1,dive"`
	Notes          string           `json:"notes" validate:"max=1000"`
}

// CreateAssignmentResult is returned after an assignment commits.
type CreateAssignmentResult struct {
	Message      string `json:"message"`
	AssignmentID string `json:"assignment_id"`
	ActaCode     string `json:"acta_code"`
}

// StockDecrement is one conditional decrement applied inside the assignment transaction.
type StockDecrement struct {
	GoodID   string
	GoodName string
	Quantity int
}

// NewAssignment bundles everything persisted atomically for one assignment.
type NewAssignment struct {
	Assignment   Assignment
	Details      []AssignmentDetail
	Decrements   []StockDecrement
	Acta         Acta
	Notification *Notification
}
