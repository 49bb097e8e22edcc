package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
	"github.com/noah-isme/academy-inventory-api/pkg/response"
)

type auditService interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
}

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	service auditService
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(svc auditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// List godoc
// @Summary List audit logs
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum rows (default 100)"
// @Param module query string false "Module filter"
// @Param action query string false "Action filter"
// @Success 200 {object} response.Envelope{data=[]models.AuditLog}
// @Failure 400 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	filter := models.AuditFilter{
		Module: strings.TrimSpace(c.Query("module")),
		Action: strings.TrimSpace(c.Query("action")),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		filter.Limit = limit
	}
	logs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, logs)
}
