package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	"github.com/noah-isme/academy-inventory-api/pkg/response"
)

type warehouseService interface {
	List(ctx context.Context) ([]models.Warehouse, error)
	Create(ctx context.Context, req models.CreateWarehouseRequest, actor models.Actor) (*models.Warehouse, error)
	Update(ctx context.Context, id string, req models.UpdateWarehouseRequest, actor models.Actor) (*models.Warehouse, error)
	Delete(ctx context.Context, id string, actor models.Actor) error
}

// WarehouseHandler exposes storage locations.
type WarehouseHandler struct {
	service warehouseService
}

// NewWarehouseHandler creates a WarehouseHandler.
func NewWarehouseHandler(svc warehouseService) *WarehouseHandler {
	return &WarehouseHandler{service: svc}
}

// List godoc
// @Summary List warehouses
// @Tags Warehouses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.Warehouse}
// @Router /warehouses [get]
func (h *WarehouseHandler) List(c *gin.Context) {
	warehouses, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, warehouses)
}

// Create godoc
// @Summary Create warehouse
// @Tags Warehouses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateWarehouseRequest true "Warehouse"
// @Success 201 {object} response.Envelope{data=models.Warehouse}
// @Router /warehouses [post]
func (h *WarehouseHandler) Create(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateWarehouseRequest
	if !bindJSON(c, &req, "invalid warehouse payload") {
		return
	}
	warehouse, err := h.service.Create(c.Request.Context(), req, act)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, warehouse)
}

// Update godoc
// @Summary Update warehouse
// @Tags Warehouses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Warehouse ID"
// @Param payload body models.UpdateWarehouseRequest true "Patch"
// @Success 200 {object} response.Envelope{data=models.Warehouse}
// @Router /warehouses/{id} [put]
func (h *WarehouseHandler) Update(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	var req models.UpdateWarehouseRequest
	if !bindJSON(c, &req, "invalid warehouse payload") {
		return
	}
	warehouse, err := h.service.Update(c.Request.Context(), c.Param("id"), req, act)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, warehouse)
}

// Delete godoc
// @Summary Delete warehouse
// @Tags Warehouses
// @Security BearerAuth
// @Param id path string true "Warehouse ID"
// @Success 204
// @Router /warehouses/{id} [delete]
func (h *WarehouseHandler) Delete(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), act); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
