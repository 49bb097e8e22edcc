package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	"github.com/noah-isme/academy-inventory-api/pkg/response"
)

type goodService interface {
	List(ctx context.Context, filter models.GoodFilter) ([]models.Good, error)
	Get(ctx context.Context, id string) (*models.Good, error)
	Create(ctx context.Context, req models.CreateGoodRequest, actor models.Actor) (*models.Good, error)
	Update(ctx context.Context, id string, req models.UpdateGoodRequest, actor models.Actor) (*models.Good, error)
	Delete(ctx context.Context, id string, actor models.Actor) error
}

// GoodHandler exposes inventory items.
type GoodHandler struct {
	service goodService
}

// NewGoodHandler creates a GoodHandler.
func NewGoodHandler(svc goodService) *GoodHandler {
	return &GoodHandler{service: svc}
}

// List godoc
// @Summary List goods
// @Tags Goods
// @Produce json
// @Security BearerAuth
// @Param category_id query string false "Category filter"
// @Param status query string false "available, assigned, maintenance or retired"
// @Success 200 {object} response.Envelope{data=[]models.Good}
// @Failure 400 {object} response.Envelope
// @Router /goods [get]
func (h *GoodHandler) List(c *gin.Context) {
	filter := models.GoodFilter{
		CategoryID: c.Query("category_id"),
		Status:     models.GoodStatus(c.Query("status")),
	}
	goods, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, goods)
}

// Get godoc
// @Summary Get good
// @Tags Goods
// @Produce json
// @Security BearerAuth
// @Param id path string true "Good ID"
// @Success 200 {object} response.Envelope{data=models.Good}
// @Failure 404 {object} response.Envelope
// @Router /goods/{id} [get]
func (h *GoodHandler) Get(c *gin.Context) {
	good, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, good)
}

// Create godoc
// @Summary Create good
// @Description The whole quantity starts available
// @Tags Goods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateGoodRequest true "Good"
// @Success 201 {object} response.Envelope{data=models.Good}
// @Failure 400 {object} response.Envelope
// @Router /goods [post]
func (h *GoodHandler) Create(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateGoodRequest
	if !bindJSON(c, &req, "invalid good payload") {
		return
	}
	good, err := h.service.Create(c.Request.Context(), req, act)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, good)
}

// Update godoc
// @Summary Update good
// @Description A quantity change shifts availability by the same delta
// @Tags Goods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Good ID"
// @Param payload body models.UpdateGoodRequest true "Patch"
// @Success 200 {object} response.Envelope{data=models.Good}
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /goods/{id} [put]
func (h *GoodHandler) Update(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	var req models.UpdateGoodRequest
	if !bindJSON(c, &req, "invalid good payload") {
		return
	}
	good, err := h.service.Update(c.Request.Context(), c.Param("id"), req, act)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, good)
}

// Delete godoc
// @Summary Delete good
// @Tags Goods
// @Security BearerAuth
// @Param id path string true "Good ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /goods/{id} [delete]
func (h *GoodHandler) Delete(c *gin.Context) {
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
