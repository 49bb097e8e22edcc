package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	"github.com/noah-isme/academy-inventory-api/pkg/response"
)

type sportService interface {
	List(ctx context.Context) ([]models.Sport, error)
	Disciplines(ctx context.Context) ([]string, error)
	Create(ctx context.Context, req models.CreateSportRequest, actor models.Actor) (*models.Sport, error)
	Update(ctx context.Context, id string, req models.UpdateSportRequest, actor models.Actor) (*models.Sport, error)
	Delete(ctx context.Context, id string, actor models.Actor) error
}

// SportHandler manages sports and serves the discipline lookup.
type SportHandler struct {
	service sportService
}

// NewSportHandler creates a SportHandler.
func NewSportHandler(svc sportService) *SportHandler {
	return &SportHandler{service: svc}
}

// Disciplines godoc
// @Summary Active discipline names
// @Tags Lookups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]string}
// @Router /disciplines [get]
func (h *SportHandler) Disciplines(c *gin.Context) {
	names, err := h.service.Disciplines(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, names)
}

// List godoc
// @Summary List sports
// @Tags Sports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.Sport}
// @Router /sports-management [get]
func (h *SportHandler) List(c *gin.Context) {
	sports, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sports)
}

// Create godoc
// @Summary Create sport
// @Tags Sports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateSportRequest true "Sport"
// @Success 201 {object} response.Envelope{data=models.Sport}
// @Failure 409 {object} response.Envelope
// @Router /sports-management [post]
func (h *SportHandler) Create(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateSportRequest
	if !bindJSON(c, &req, "invalid sport payload") {
		return
	}
	sport, err := h.service.Create(c.Request.Context(), req, act)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sport)
}

// Update godoc
// @Summary Update sport
// @Tags Sports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sport ID"
// @Param payload body models.UpdateSportRequest true "Patch"
// @Success 200 {object} response.Envelope{data=models.Sport}
// @Router /sports-management/{id} [put]
func (h *SportHandler) Update(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	var req models.UpdateSportRequest
	if !bindJSON(c, &req, "invalid sport payload") {
		return
	}
	sport, err := h.service.Update(c.Request.Context(), c.Param("id"), req, act)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sport)
}

// Delete godoc
// @Summary Delete sport
// @Tags Sports
// @Security BearerAuth
// @Param id path string true "Sport ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /sports-management/{id} [delete]
func (h *SportHandler) Delete(c *gin.Context) {
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
