package models

import "time"

// Audit actions.
const (
	AuditActionLogin             = "LOGIN"
	AuditActionCreate            = "CREATE"
	AuditActionUpdate            = "UPDATE"
	AuditActionDelete            = "DELETE"
	AuditActionCreateAssignment  = "CREATE_ASSIGNMENT"
	AuditActionConfirmAssignment = "CONFIRM_ASSIGNMENT"
	AuditActionUploadSigned      = "UPLOAD_SIGNED_ACTA"
)

// Audit modules.
const (
	AuditModuleAuth        = "auth"
	AuditModuleUsers       = "users"
	AuditModuleCategories  = "categories"
	AuditModuleGoods       = "goods"
	AuditModuleInstructors = "instructors"
	AuditModuleSports      = "sports"
	AuditModuleWarehouses  = "warehouses"
	AuditModuleAssignments = "assignments"
	AuditModuleActas       = "actas"
)

// AuditLog is an append-only trail record.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	UserEmail string    `db:"user_email" json:"user_email"`
	Action    string    `db:"action" json:"action"`
	Module    string    `db:"module" json:"module"`
	IP        string    `db:"ip" json:"ip"`
	Details   string    `db:"details" json:"details"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AuditEntry is what callers hand to the audit recorder.
type AuditEntry struct {
	Actor   string
	Action  string
	Module  string
	IP      string
	Details string
}

// AuditFilter narrows audit listings.
type AuditFilter struct {
	Limit  int
	Module string
	Action string
}
