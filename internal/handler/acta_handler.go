package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	"github.com/noah-isme/academy-inventory-api/internal/service"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
	"github.com/noah-isme/academy-inventory-api/pkg/response"
)

// SignatureQueryParam carries signed download tokens.
const SignatureQueryParam = "signature"

const multipartOverhead = 1 << 20

type actaService interface {
	List(ctx context.Context, p models.Principal) ([]models.Acta, error)
	Open(ctx context.Context, id string, p models.Principal) (*service.ActaFile, error)
	Link(ctx context.Context, id string, p models.Principal, basePath string) (*models.ActaLink, error)
	OpenSigned(ctx context.Context, id, token string) (*service.ActaFile, error)
	UploadSigned(ctx context.Context, assignmentID string, p models.Principal, content io.Reader, size int64, ip string) (*models.SignedReceipt, error)
	OpenSignedCopy(ctx context.Context, assignmentID string, p models.Principal) (*service.ActaFile, error)
	MaxUploadBytes() int64
}

// ActaHandler serves generated actas and countersigned uploads.
type ActaHandler struct {
	service  actaService
	basePath string
	logger   *zap.Logger
}

// NewActaHandler creates an ActaHandler. basePath prefixes generated download links.
func NewActaHandler(svc actaService, basePath string, logger *zap.Logger) *ActaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActaHandler{service: svc, basePath: basePath, logger: logger}
}

// List godoc
// @Summary List actas
// @Description Instructors only see their own
// @Tags Actas
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.Acta}
// @Router /actas [get]
func (h *ActaHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	actas, err := h.service.List(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, actas)
}

// Download godoc
// @Summary Download acta PDF
// @Description Accepts a bearer token, a token query parameter or a signed link
// @Tags Actas
// @Produce application/pdf
// @Param id path string true "Acta ID"
// @Param signature query string false "Signed link token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /actas/{id}/download [get]
func (h *ActaHandler) Download(c *gin.Context) {
	id := c.Param("id")
	if signature := c.Query(SignatureQueryParam); signature != "" {
		file, err := h.service.OpenSigned(c.Request.Context(), id, signature)
		if err != nil {
			response.Error(c, err)
			return
		}
		h.serve(c, file, "inline")
		return
	}

	p, ok := principal(c)
	if !ok {
		return
	}
	file, err := h.service.Open(c.Request.Context(), id, p)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.serve(c, file, "inline")
}

// Link godoc
// @Summary Signed download link
// @Description Issues a time-limited URL that needs no bearer token
// @Tags Actas
// @Produce json
// @Security BearerAuth
// @Param id path string true "Acta ID"
// @Success 200 {object} response.Envelope{data=models.ActaLink}
// @Router /actas/{id}/link [get]
func (h *ActaHandler) Link(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	link, err := h.service.Link(c.Request.Context(), c.Param("id"), p, h.basePath)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, link)
}

// UploadSigned godoc
// @Summary Upload countersigned acta
// @Tags Actas
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param file formData file true "Signed PDF or image"
// @Success 201 {object} response.Envelope{data=models.SignedReceipt}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /actas/{id}/upload-signed [post]
func (h *ActaHandler) UploadSigned(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.service.MaxUploadBytes()+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "multipart field 'file' is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read upload"))
		return
	}
	defer file.Close()

	receipt, err := h.service.UploadSigned(c.Request.Context(), c.Param("id"), p, file, header.Size, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, receipt)
}

// DownloadSigned godoc
// @Summary Download countersigned acta
// @Tags Actas
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /actas/{id}/download-signed [get]
func (h *ActaHandler) DownloadSigned(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	file, err := h.service.OpenSignedCopy(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.serve(c, file, "attachment")
}

// Mine godoc
// @Summary Instructor actas
// @Tags Instructor portal
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.Acta}
// @Router /instructor/actas [get]
func (h *ActaHandler) Mine(c *gin.Context) {
	h.List(c)
}

func (h *ActaHandler) serve(c *gin.Context, file *service.ActaFile, disposition string) {
	defer func() {
		if err := file.File.Close(); err != nil {
			h.logger.Warn("failed to close acta file", zap.String("file", file.Name), zap.Error(err))
		}
	}()
	c.Header("Cache-Control", "private, no-store")
	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, file.File, map[string]string{
		"Content-Disposition": fmt.Sprintf(`%s; filename="%s"`, disposition, file.Name),
	})
}
