package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	"github.com/noah-isme/academy-inventory-api/pkg/response"
)

type categoryService interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, req models.CreateCategoryRequest, actor models.Actor) (*models.Category, error)
	Update(ctx context.Context, id string, req models.UpdateCategoryRequest, actor models.Actor) (*models.Category, error)
	Delete(ctx context.Context, id string, actor models.Actor) error
}

// CategoryHandler exposes good categories.
type CategoryHandler struct {
	service categoryService
}

// NewCategoryHandler creates a CategoryHandler.
func NewCategoryHandler(svc categoryService) *CategoryHandler {
	return &CategoryHandler{service: svc}
}

// List godoc
// @Summary List categories
// @Tags Categories
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.Category}
// @Router /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, categories)
}

// Create godoc
// @Summary Create category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateCategoryRequest true "Category"
// @Success 201 {object} response.Envelope{data=models.Category}
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateCategoryRequest
	if !bindJSON(c, &req, "invalid category payload") {
		return
	}
	category, err := h.service.Create(c.Request.Context(), req, act)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// Update godoc
// @Summary Update category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Param payload body models.UpdateCategoryRequest true "Patch"
// @Success 200 {object} response.Envelope{data=models.Category}
// @Failure 404 {object} response.Envelope
// @Router /categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	var req models.UpdateCategoryRequest
	if !bindJSON(c, &req, "invalid category payload") {
		return
	}
	category, err := h.service.Update(c.Request.Context(), c.Param("id"), req, act)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, category)
}

// Delete godoc
// @Summary Delete category
// @Description Refused with IN_USE while goods belong to the category
// @Tags Categories
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
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
