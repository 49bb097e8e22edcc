package models

import "time"

// Sport is a discipline taught at the academy.
type Sport struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CreateSportRequest is the payload for creating a sport.
type CreateSportRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=500"`
	Active      *bool  `json:"active"`
}

// UpdateSportRequest patches a sport.
type UpdateSportRequest struct {
	Name        Optional[string] `json:"name"`
	Description Optional[string] `json:"description"`
	Active      Optional[bool]   `json:"active"`
}
