package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	"github.com/noah-isme/academy-inventory-api/pkg/response"
)

type assignmentService interface {
	Create(ctx context.Context, req models.CreateAssignmentRequest, actor models.Actor) (*models.CreateAssignmentResult, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	Get(ctx context.Context, id string) (*models.Assignment, error)
	ListForInstructor(ctx context.Context, instructorName string) ([]models.Assignment, error)
	Confirm(ctx context.Context, id string, instructor models.Principal, ip string) (*models.Assignment, error)
}

// AssignmentHandler exposes checkouts for staff and the instructor portal.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler creates an AssignmentHandler.
func NewAssignmentHandler(svc assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// List godoc
// @Summary List assignments
// @Description Newest first, each with its lines
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param instructor_name query string false "Instructor filter"
// @Param discipline query string false "Discipline filter"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope{data=[]models.Assignment}
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	filter := models.AssignmentFilter{
		InstructorName: c.Query("instructor_name"),
		Discipline:     c.Query("discipline"),
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	assignments, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, assignments)
}

// Get godoc
// @Summary Get assignment
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope{data=models.Assignment}
// @Failure 404 {object} response.Envelope
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	assignment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, assignment)
}

// Create godoc
// @Summary Assign goods to an instructor
// @Description Decrements stock atomically and issues the delivery acta
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateAssignmentRequest true "Assignment"
// @Success 201 {object} response.Envelope{data=models.CreateAssignmentResult}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateAssignmentRequest
	if !bindJSON(c, &req, "invalid assignment payload") {
		return
	}
	result, err := h.service.Create(c.Request.Context(), req, act)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Mine godoc
// @Summary Instructor assignments
// @Description Assignments handed to the authenticated instructor
// @Tags Instructor portal
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.Assignment}
// @Router /instructor/assignments [get]
func (h *AssignmentHandler) Mine(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	assignments, err := h.service.ListForInstructor(c.Request.Context(), p.Name())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, assignments)
}

// Confirm godoc
// @Summary Confirm reception
// @Tags Instructor portal
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope{data=models.Assignment}
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /instructor/assignments/{id}/confirm [post]
func (h *AssignmentHandler) Confirm(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	assignment, err := h.service.Confirm(c.Request.Context(), c.Param("id"), p, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, assignment)
}
