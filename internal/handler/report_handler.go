package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-inventory-api/internal/dto"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
	"github.com/noah-isme/academy-inventory-api/pkg/response"
)

type reportService interface {
	Generate(ctx context.Context, q dto.ReportQuery) (interface{}, *dto.ReportFile, error)
}

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Generate godoc
// @Summary Inventory and assignment reports
// @Tags Reports
// @Produce json,text/csv,application/pdf
// @Security BearerAuth
// @Param report_type query string true "inventory or assignments"
// @Param format query string false "json (default), csv or pdf"
// @Param category_id query string false "Inventory category filter"
// @Param instructor_name query string false "Assignment instructor filter"
// @Param discipline query string false "Assignment discipline filter"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) Generate(c *gin.Context) {
	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report query"))
		return
	}
	rows, file, err := h.service.Generate(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	if file == nil {
		response.OK(c, rows)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
