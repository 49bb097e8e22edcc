package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	"github.com/noah-isme/academy-inventory-api/pkg/response"
)

type instructorService interface {
	List(ctx context.Context) ([]models.InstructorView, error)
	ActiveNames(ctx context.Context) ([]string, error)
	Create(ctx context.Context, req models.CreateInstructorRequest, actor models.Actor) (*models.InstructorView, error)
	Update(ctx context.Context, id string, req models.UpdateInstructorRequest, actor models.Actor) (*models.InstructorView, error)
	Delete(ctx context.Context, id string, actor models.Actor) error
}

// InstructorHandler manages instructors and serves the active-name lookup.
type InstructorHandler struct {
	service instructorService
}

// NewInstructorHandler creates an InstructorHandler.
func NewInstructorHandler(svc instructorService) *InstructorHandler {
	return &InstructorHandler{service: svc}
}

// Names godoc
// @Summary Active instructor names
// @Description Lookup used by assignment forms
// @Tags Lookups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]string}
// @Router /instructors [get]
func (h *InstructorHandler) Names(c *gin.Context) {
	names, err := h.service.ActiveNames(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, names)
}

// List godoc
// @Summary List instructors
// @Tags Instructors
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.InstructorView}
// @Router /instructors-management [get]
func (h *InstructorHandler) List(c *gin.Context) {
	instructors, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, instructors)
}

// Create godoc
// @Summary Create instructor
// @Description A password enables instructor portal login
// @Tags Instructors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateInstructorRequest true "Instructor"
// @Success 201 {object} response.Envelope{data=models.InstructorView}
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /instructors-management [post]
func (h *InstructorHandler) Create(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateInstructorRequest
	if !bindJSON(c, &req, "invalid instructor payload") {
		return
	}
	instructor, err := h.service.Create(c.Request.Context(), req, act)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, instructor)
}

// Update godoc
// @Summary Update instructor
// @Description A null password revokes portal access
// @Tags Instructors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Instructor ID"
// @Param payload body models.UpdateInstructorRequest true "Patch"
// @Success 200 {object} response.Envelope{data=models.InstructorView}
// @Failure 404 {object} response.Envelope
// @Router /instructors-management/{id} [put]
func (h *InstructorHandler) Update(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	var req models.UpdateInstructorRequest
	if !bindJSON(c, &req, "invalid instructor payload") {
		return
	}
	instructor, err := h.service.Update(c.Request.Context(), c.Param("id"), req, act)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, instructor)
}

// Delete godoc
// @Summary Delete instructor
// @Tags Instructors
// @Security BearerAuth
// @Param id path string true "Instructor ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /instructors-management/{id} [delete]
func (h *InstructorHandler) Delete(c *gin.Context) {
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
