package models

import "time"

// GoodStatus tracks the lifecycle of an inventory item.
type GoodStatus string

const (
	GoodStatusAvailable   GoodStatus = "available"
	GoodStatusAssigned    GoodStatus = "assigned"
	GoodStatusMaintenance GoodStatus = "maintenance"
	GoodStatusRetired     GoodStatus = "retired"
)

// Valid reports whether the status is known.
func (s GoodStatus) Valid() bool {
	switch s {
	case GoodStatusAvailable, GoodStatusAssigned, GoodStatusMaintenance, GoodStatusRetired:
		return true
	}
	return false
}

// Good is a trackable piece of equipment.
type Good struct {
	ID                string     `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	CategoryID        string     `db:"category_id" json:"category_id"`
	Description       string     `db:"description" json:"description"`
	Status            GoodStatus `db:"status" json:"status"`
	Quantity          int        `db:"quantity" json:"quantity"`
	AvailableQuantity int        `db:"available_quantity" json:"available_quantity"`
	Location          string     `db:"location" json:"location"`
	Responsible       string     `db:"responsible" json:"responsible"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// GoodFilter narrows good listings.
type GoodFilter struct {
	CategoryID string
	Status     GoodStatus
}

// CreateGoodRequest is the payload for registering equipment.
type CreateGoodRequest struct {
	Name        string     `json:"name" validate:"required,max=160"`
	CategoryID  string     `json:"category_id" validate:"required"`
	Description string     `json:"description" validate:"max=1000"`
	Status      GoodStatus `json:"status" validate:"omitempty,oneof=available assigned maintenance retired"`
	Quantity    int        `json:"quantity" validate:"gte=0"`
	Location    string     `json:"location" validate:"max=160"`
	Responsible string     `json:"responsible" validate:"max=160"`
}

// UpdateGoodRequest patches a good. Quantity changes shift availability by the same delta.
type UpdateGoodRequest struct {
	Name        Optional[string]     `json:"name"`
	CategoryID  Optional[string]     `json:"category_id"`
	Description Optional[string]     `json:"description"`
	Status      Optional[GoodStatus] `json:"status"`
	Quantity    Optional[int]        `json:"quantity"`
	Location    Optional[string]     `json:"location"`
	Responsible Optional[string]     `json:"responsible"`
}
