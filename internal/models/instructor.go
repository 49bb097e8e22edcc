package models

import "time"

// Instructor is a coach who receives equipment. A password hash enables portal login.
type Instructor struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	Phone          string    `db:"phone" json:"phone"`
	Specialization string    `db:"specialization" json:"specialization"`
	Active         bool      `db:"active" json:"active"`
	PasswordHash   *string   `db:"password_hash" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// CanLogin reports whether the instructor has portal credentials.
func (i Instructor) CanLogin() bool {
	return i.PasswordHash != nil && *i.PasswordHash != ""
}

// InstructorView is the API representation of an instructor.
type InstructorView struct {
	Instructor
	HasLogin bool `json:"has_login"`
}

// NewInstructorView decorates an instructor for responses.
func NewInstructorView(i Instructor) InstructorView {
	return InstructorView{Instructor: i, HasLogin: i.CanLogin()}
}

// CreateInstructorRequest is the payload for registering an instructor.
type CreateInstructorRequest struct {
	Name           string `json:"name" validate:"required,max=120"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"omitempty,max=40"`
	Specialization string `json:"specialization" validate:"omitempty,max=120"`
	Active         *bool  `json:"active"`
	Password       string `json:"password" validate:"omitempty,min=6"`
}

// UpdateInstructorRequest patches an instructor. A null password revokes portal access.
type UpdateInstructorRequest struct {
	Name           Optional[string] `json:"name"`
	Email          Optional[string] `json:"email"`
	Phone          Optional[string] `json:"phone"`
	Specialization Optional[string] `json:"specialization"`
	Active         Optional[bool]   `json:"active"`
	Password       Optional[string] `json:"password"`
}
