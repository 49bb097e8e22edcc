package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// PrincipalKind distinguishes staff accounts from instructors in tokens.
type PrincipalKind string

const (
	PrincipalUser       PrincipalKind = "user"
	PrincipalInstructor PrincipalKind = "instructor"
)

// Principal is the authenticated identity of a request. Exactly one of User or Instructor is set.
type Principal struct {
	Kind       PrincipalKind
	User       *User
	Instructor *Instructor
}

// UserPrincipal wraps a staff account.
func UserPrincipal(u User) Principal {
	return Principal{Kind: PrincipalUser, User: &u}
}

// InstructorPrincipal wraps an instructor.
func InstructorPrincipal(i Instructor) Principal {
	return Principal{Kind: PrincipalInstructor, Instructor: &i}
}

// ID returns the identifier of the underlying record.
func (p Principal) ID() string {
	switch p.Kind {
	case PrincipalUser:
		return p.User.ID
	case PrincipalInstructor:
		return p.Instructor.ID
	}
	return ""
}

// Email returns the login email.
func (p Principal) Email() string {
	switch p.Kind {
	case PrincipalUser:
		return p.User.Email
	case PrincipalInstructor:
		return p.Instructor.Email
	}
	return ""
}

// Name returns the display name. Instructors are matched to assignments by it.
func (p Principal) Name() string {
	switch p.Kind {
	case PrincipalUser:
		return p.User.Name
	case PrincipalInstructor:
		return p.Instructor.Name
	}
	return ""
}

// IsUser reports whether the principal is a staff account.
func (p Principal) IsUser() bool {
	return p.Kind == PrincipalUser && p.User != nil
}

// IsInstructor reports whether the principal is an instructor.
func (p Principal) IsInstructor() bool {
	return p.Kind == PrincipalInstructor && p.Instructor != nil
}

// IsAdmin reports whether the principal is an admin staff account.
func (p Principal) IsAdmin() bool {
	return p.IsUser() && p.User.Role == RoleAdmin
}

// Info renders the principal for responses.
func (p Principal) Info() PrincipalInfo {
	info := PrincipalInfo{ID: p.ID(), Email: p.Email(), Name: p.Name(), Kind: p.Kind}
	switch p.Kind {
	case PrincipalUser:
		info.Role = string(p.User.Role)
		info.Active = p.User.Active
	case PrincipalInstructor:
		info.Role = string(PrincipalInstructor)
		info.Active = p.Instructor.Active
		info.Specialization = p.Instructor.Specialization
	}
	return info
}

// PrincipalInfo describes the authenticated principal in responses.
type PrincipalInfo struct {
	ID             string        `json:"id"`
	Email          string        `json:"email"`
	Name           string        `json:"name"`
	Kind           PrincipalKind `json:"kind"`
	Role           string        `json:"role"`
	Active         bool          `json:"active"`
	Specialization string        `json:"specialization,omitempty"`
}

// LoginRequest holds credentials for authenticating.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	IP       string `json:"-"`
}

// LoginResponse returns the issued token and principal info.
type LoginResponse struct {
	Token     string        `json:"token"`
	TokenType string        `json:"token_type"`
	ExpiresIn int64         `json:"expires_in"`
	User      PrincipalInfo `json:"user"`
}

// JWTClaims is the access token payload. The subject carries the email.
type JWTClaims struct {
	Kind PrincipalKind `json:"kind"`
	jwt.RegisteredClaims
}
