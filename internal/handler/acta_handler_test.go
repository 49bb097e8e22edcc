package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	"github.com/noah-isme/academy-inventory-api/internal/service"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
)

type fakeActaSrv struct {
	t          *testing.T
	content    []byte
	listedFor  models.Principal
	token      string
	basePath   string
	uploaded   []byte
	uploadSize int64
	openErr    error
}

func (f *fakeActaSrv) file(name, contentType string) *service.ActaFile {
	path := filepath.Join(f.t.TempDir(), name)
	require.NoError(f.t, os.WriteFile(path, f.content, 0o600))
	file, err := os.Open(path)
	require.NoError(f.t, err)
	return &service.ActaFile{Name: name, ContentType: contentType, Size: int64(len(f.content)), File: file}
}

func (f *fakeActaSrv) List(_ context.Context, p models.Principal) ([]models.Acta, error) {
	f.listedFor = p
	return []models.Acta{{ID: "acta-1", Code: "RECEIPT-ABCD1234"}}, nil
}

func (f *fakeActaSrv) Open(context.Context, string, models.Principal) (*service.ActaFile, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.file("RECEIPT-ABCD1234.pdf", "application/pdf"), nil
}

func (f *fakeActaSrv) Link(_ context.Context, id string, _ models.Principal, basePath string) (*models.ActaLink, error) {
	f.basePath = basePath
	return &models.ActaLink{URL: basePath + "/actas/" + id + "/download?signature=x", ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func (f *fakeActaSrv) OpenSigned(_ context.Context, _ string, token string) (*service.ActaFile, error) {
	f.token = token
	if token != "valid" {
		return nil, appErrors.ErrTokenInvalid
	}
	return f.file("RECEIPT-ABCD1234.pdf", "application/pdf"), nil
}

func (f *fakeActaSrv) UploadSigned(_ context.Context, assignmentID string, _ models.Principal, content io.Reader, size int64, _ string) (*models.SignedReceipt, error) {
	data, err := io.ReadAll(content)
	require.NoError(f.t, err)
	f.uploaded = data
	f.uploadSize = size
	return &models.SignedReceipt{AssignmentID: assignmentID, Filename: "signed_" + assignmentID + ".pdf", ContentType: "application/pdf", Size: size}, nil
}

func (f *fakeActaSrv) OpenSignedCopy(context.Context, string, models.Principal) (*service.ActaFile, error) {
	return f.file("signed_a-1.pdf", "application/pdf"), nil
}

func (f *fakeActaSrv) MaxUploadBytes() int64 {
	return 1024
}

func TestActaHandlerDownloadWithPrincipal(t *testing.T) {
	svc := &fakeActaSrv{t: t, content: []byte("%PDF-1.4 acta")}
	handler := NewActaHandler(svc, "/api", nil)

	c, rec := newGinContext(http.MethodGet, "/actas/acta-1/download", nil)
	c.Params = gin.Params{{Key: "id", Value: "acta-1"}}
	withPrincipal(c, adminPrincipal)
	handler.Download(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="RECEIPT-ABCD1234.pdf"`)
	assert.Equal(t, "%PDF-1.4 acta", rec.Body.String())
}

func TestActaHandlerDownloadWithSignature(t *testing.T) {
	svc := &fakeActaSrv{t: t, content: []byte("%PDF-1.4 acta")}
	handler := NewActaHandler(svc, "/api", nil)

	c, rec := newGinContext(http.MethodGet, "/actas/acta-1/download?signature=valid", nil)
	c.Params = gin.Params{{Key: "id", Value: "acta-1"}}
	handler.Download(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "valid", svc.token)

	c, rec = newGinContext(http.MethodGet, "/actas/acta-1/download?signature=forged", nil)
	c.Params = gin.Params{{Key: "id", Value: "acta-1"}}
	handler.Download(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestActaHandlerDownloadRequiresCredentials(t *testing.T) {
	handler := NewActaHandler(&fakeActaSrv{t: t}, "/api", nil)

	c, rec := newGinContext(http.MethodGet, "/actas/acta-1/download", nil)
	c.Params = gin.Params{{Key: "id", Value: "acta-1"}}
	handler.Download(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestActaHandlerDownloadHiddenActa(t *testing.T) {
	handler := NewActaHandler(&fakeActaSrv{t: t, openErr: appErrors.Clone(appErrors.ErrNotFound, "acta not found")}, "/api", nil)

	c, rec := newGinContext(http.MethodGet, "/actas/acta-9/download", nil)
	c.Params = gin.Params{{Key: "id", Value: "acta-9"}}
	withPrincipal(c, instructorPrincipal)
	handler.Download(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActaHandlerLinkUsesBasePath(t *testing.T) {
	svc := &fakeActaSrv{t: t}
	handler := NewActaHandler(svc, "/api", nil)

	c, rec := newGinContext(http.MethodGet, "/actas/acta-1/link", nil)
	c.Params = gin.Params{{Key: "id", Value: "acta-1"}}
	withPrincipal(c, adminPrincipal)
	handler.Link(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api", svc.basePath)
}

func TestActaHandlerMineListsForInstructor(t *testing.T) {
	svc := &fakeActaSrv{t: t}
	handler := NewActaHandler(svc, "/api", nil)

	c, rec := newGinContext(http.MethodGet, "/instructor/actas", nil)
	withPrincipal(c, instructorPrincipal)
	handler.Mine(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.listedFor.IsInstructor())
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestActaHandlerUploadSigned(t *testing.T) {
	svc := &fakeActaSrv{t: t}
	handler := NewActaHandler(svc, "/api", nil)

	content := []byte("%PDF-1.4 countersigned")
	body, contentType := multipartBody(t, "file", "scan.pdf", content)
	c, rec := newGinContext(http.MethodPost, "/actas/a-1/upload-signed", nil)
	c.Request, _ = http.NewRequest(http.MethodPost, "/actas/a-1/upload-signed", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Params = gin.Params{{Key: "id", Value: "a-1"}}
	withPrincipal(c, adminPrincipal)
	handler.UploadSigned(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, content, svc.uploaded)
	assert.Equal(t, int64(len(content)), svc.uploadSize)
}

func TestActaHandlerUploadSignedMissingFile(t *testing.T) {
	handler := NewActaHandler(&fakeActaSrv{t: t}, "/api", nil)

	body, contentType := multipartBody(t, "document", "scan.pdf", []byte("%PDF-1.4"))
	c, rec := newGinContext(http.MethodPost, "/actas/a-1/upload-signed", nil)
	c.Request, _ = http.NewRequest(http.MethodPost, "/actas/a-1/upload-signed", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Params = gin.Params{{Key: "id", Value: "a-1"}}
	withPrincipal(c, adminPrincipal)
	handler.UploadSigned(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActaHandlerDownloadSignedCopy(t *testing.T) {
	handler := NewActaHandler(&fakeActaSrv{t: t, content: []byte("%PDF-1.4 signed")}, "/api", nil)

	c, rec := newGinContext(http.MethodGet, "/actas/a-1/download-signed", nil)
	c.Params = gin.Params{{Key: "id", Value: "a-1"}}
	withPrincipal(c, adminPrincipal)
	handler.DownloadSigned(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "%PDF-1.4 signed", rec.Body.String())
}
