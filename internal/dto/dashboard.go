package dto

import "github.com/noah-isme/academy-inventory-api/internal/models"

// DashboardStats is the aggregated inventory overview.
type DashboardStats struct {
	TotalGoods        int                 `json:"total_goods"`
	TotalQuantity     int                 `json:"total_quantity"`
	AvailableQuantity int                 `json:"available_quantity"`
	AssignedQuantity  int                 `json:"assigned_quantity"`
	TotalAssignments  int                 `json:"total_assignments"`
	TotalCategories   int                 `json:"total_categories"`
	RecentAssignments []models.Assignment `json:"recent_assignments"`
}

// InventoryTotals are the summed quantities over every good.
type InventoryTotals struct {
	TotalGoods        int `db:"total_goods"`
	TotalQuantity     int `db:"total_quantity"`
	AvailableQuantity int `db:"available_quantity"`
}
