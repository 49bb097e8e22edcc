package models

import "time"

// NotificationStatus tracks outbox delivery.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSending NotificationStatus = "sending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// Notification is a row of the transactional e-mail outbox.
type Notification struct {
	ID           string             `db:"id" json:"id"`
	AssignmentID *string            `db:"assignment_id" json:"assignment_id,omitempty"`
	Recipient    string             `db:"recipient" json:"recipient"`
	Subject      string             `db:"subject" json:"subject"`
	Body         string             `db:"body" json:"body"`
	Status       NotificationStatus `db:"status" json:"status"`
	Attempts     int                `db:"attempts" json:"attempts"`
	LastError    *string            `db:"last_error" json:"last_error,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
	SentAt       *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
}
