package models

import "time"

// Warehouse is a storage location.
type Warehouse struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Location    string    `db:"location" json:"location"`
	Capacity    int       `db:"capacity" json:"capacity"`
	Responsible string    `db:"responsible" json:"responsible"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CreateWarehouseRequest is the payload for creating a warehouse.
type CreateWarehouseRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Location    string `json:"location" validate:"max=200"`
	Capacity    int    `json:"capacity" validate:"gte=0"`
	Responsible string `json:"responsible" validate:"max=160"`
}

// UpdateWarehouseRequest patches a warehouse.
type UpdateWarehouseRequest struct {
	Name        Optional[string] `json:"name"`
	Location    Optional[string] `json:"location"`
	Capacity    Optional[int]    `json:"capacity"`
	Responsible Optional[string] `json:"responsible"`
}
