package models

import "time"

// UserRole represents the available roles for staff accounts.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleControl UserRole = "control"
)

// Valid reports whether the role is known.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleControl
}

// User represents a staff account stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CreateUserRequest is the payload for creating staff accounts.
type CreateUserRequest struct {
	Name     string   `json:"name" validate:"required,max=120"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	Role     UserRole `json:"role" validate:"required,oneof=admin control"`
}

// UpdateUserRequest patches a staff account. Null is rejected for every field.
type UpdateUserRequest struct {
	Name     Optional[string]   `json:"name"`
	Email    Optional[string]   `json:"email"`
	Password Optional[string]   `json:"password"`
	Role     Optional[UserRole] `json:"role"`
	Active   Optional[bool]     `json:"active"`
}
