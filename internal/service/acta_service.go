package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
	"github.com/noah-isme/academy-inventory-api/pkg/storage"
)

const sniffBytes = 3072

type actaRepository interface {
	List(ctx context.Context) ([]models.Acta, error)
	ListByInstructor(ctx context.Context, instructorName string) ([]models.Acta, error)
	FindByID(ctx context.Context, id string) (*models.Acta, error)
}

type actaAssignmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Assignment, error)
	SetSignedReceipt(ctx context.Context, id, filename string) error
}

type actaFileStore interface {
	Open(filename string) (*os.File, error)
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

type linkSigner interface {
	Generate(resourceID, relPath string) (string, time.Time, error)
	Parse(token string) (resourceID, relPath string, expiresAt time.Time, err error)
}

// ActaConfig bounds countersigned uploads.
type ActaConfig struct {
	MaxUploadBytes int64
	AllowedMIMEs   []string
}

// ActaFile is an opened stored document. Callers must close File.
type ActaFile struct {
	Name        string
	ContentType string
	Size        int64
	File        *os.File
}

// ActaService serves generated actas and manages countersigned copies.
type ActaService struct {
	actas       actaRepository
	assignments actaAssignmentRepository
	store       actaFileStore
	signer      linkSigner
	audit       auditRecorder
	cfg         ActaConfig
	logger      *zap.Logger
}

// NewActaService constructs an ActaService.
func NewActaService(actas actaRepository, assignments actaAssignmentRepository, store actaFileStore, signer linkSigner, audit auditRecorder, cfg ActaConfig, logger *zap.Logger) *ActaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"application/pdf", "image/jpeg", "image/png"}
	}
	return &ActaService{actas: actas, assignments: assignments, store: store, signer: signer, audit: audit, cfg: cfg, logger: logger}
}

// MaxUploadBytes exposes the configured upload limit.
func (s *ActaService) MaxUploadBytes() int64 {
	return s.cfg.MaxUploadBytes
}

// List returns actas visible to the principal with their assignment attached.
func (s *ActaService) List(ctx context.Context, p models.Principal) ([]models.Acta, error) {
	var (
		actas []models.Acta
		err   error
	)
	if p.IsInstructor() {
		actas, err = s.actas.ListByInstructor(ctx, p.Name())
	} else {
		actas, err = s.actas.List(ctx)
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list actas")
	}
	if len(actas) == 0 {
		return []models.Acta{}, nil
	}

	ids := make([]string, 0, len(actas))
	for _, a := range actas {
		ids = append(ids, a.AssignmentID)
	}
	assignments, err := s.assignments.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load acta assignments")
	}
	for i := range actas {
		if a, ok := assignments[actas[i].AssignmentID]; ok {
			assignment := a
			actas[i].Assignment = &assignment
		}
	}
	return actas, nil
}

// Open returns the generated PDF of an acta.
func (s *ActaService) Open(ctx context.Context, id string, p models.Principal) (*ActaFile, error) {
	acta, err := s.accessibleActa(ctx, id, p)
	if err != nil {
		return nil, err
	}
	return s.open(acta.PDFFilename, "application/pdf")
}

// Link issues a time-limited download URL for an acta under basePath.
func (s *ActaService) Link(ctx context.Context, id string, p models.Principal, basePath string) (*models.ActaLink, error) {
	acta, err := s.accessibleActa(ctx, id, p)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(acta.ID, acta.PDFFilename)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign download link")
	}
	link := fmt.Sprintf("%s/actas/%s/download?signature=%s", basePath, url.PathEscape(acta.ID), url.QueryEscape(token))
	return &models.ActaLink{URL: link, ExpiresAt: expiresAt}, nil
}

// OpenSigned serves an acta through a signed link instead of a bearer token.
func (s *ActaService) OpenSigned(ctx context.Context, id, token string) (*ActaFile, error) {
	resourceID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrTokenExpired, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrTokenInvalid, "invalid download link")
	}
	if resourceID != id {
		return nil, appErrors.Clone(appErrors.ErrTokenInvalid, "download link does not match acta")
	}
	return s.open(relPath, "application/pdf")
}

// UploadSigned stores the countersigned copy of an assignment's acta.
func (s *ActaService) UploadSigned(ctx context.Context, assignmentID string, p models.Principal, content io.Reader, size int64, ip string) (*models.SignedReceipt, error) {
	assignment, err := s.accessibleAssignment(ctx, assignmentID, p)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}
	if size > s.cfg.MaxUploadBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxUploadBytes))
	}

	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, appErrors.Internal(err, "failed to read upload")
	}
	head = head[:n]
	detected := mimetype.Detect(head)
	if !s.allowed(detected) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported file type: %s", detected.String()))
	}

	filename := storage.SignedFilename(assignment.ID, detected.Extension())
	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), content), s.cfg.MaxUploadBytes)
	if _, err := s.store.SaveStream(filename, body); err != nil {
		return nil, appErrors.Internal(err, "failed to store signed acta")
	}
	if assignment.SignedReceiptFile != nil && *assignment.SignedReceiptFile != filename {
		if err := s.store.Delete(*assignment.SignedReceiptFile); err != nil {
			s.logger.Warn("failed to remove previous signed acta", zap.String("file", *assignment.SignedReceiptFile), zap.Error(err))
		}
	}
	if err := s.assignments.SetSignedReceipt(ctx, assignment.ID, filename); err != nil {
		return nil, mapRepoError(err, "assignment", "update")
	}

	recordAudit(ctx, s.audit, models.ActorFrom(p, ip), models.AuditActionUploadSigned, models.AuditModuleActas,
		fmt.Sprintf("Signed acta %s uploaded for assignment %s", path.Base(filename), assignment.ID))
	return &models.SignedReceipt{AssignmentID: assignment.ID, Filename: filename, ContentType: detected.String(), Size: size}, nil
}

// OpenSignedCopy returns the countersigned upload of an assignment.
func (s *ActaService) OpenSignedCopy(ctx context.Context, assignmentID string, p models.Principal) (*ActaFile, error) {
	assignment, err := s.accessibleAssignment(ctx, assignmentID, p)
	if err != nil {
		return nil, err
	}
	if !assignment.SignedReceiptUploaded || assignment.SignedReceiptFile == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "signed acta not uploaded")
	}
	return s.open(*assignment.SignedReceiptFile, "")
}

func (s *ActaService) accessibleActa(ctx context.Context, id string, p models.Principal) (*models.Acta, error) {
	acta, err := s.actas.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "acta", "load")
	}
	if p.IsInstructor() {
		if _, err := s.accessibleAssignment(ctx, acta.AssignmentID, p); err != nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "acta not found")
		}
	}
	return acta, nil
}

// accessibleAssignment hides assignments of other instructors behind NotFound.
func (s *ActaService) accessibleAssignment(ctx context.Context, id string, p models.Principal) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "assignment", "load")
	}
	if p.IsInstructor() && assignment.InstructorName != p.Name() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return assignment, nil
}

func (s *ActaService) open(filename, contentType string) (*ActaFile, error) {
	file, err := s.store.Open(filename)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, appErrors.Internal(err, "failed to open file")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Internal(err, "failed to stat file")
	}
	if contentType == "" {
		detected, err := mimetype.DetectReader(file)
		if err == nil {
			contentType = detected.String()
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			file.Close() //nolint:errcheck
			return nil, appErrors.Internal(err, "failed to rewind file")
		}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &ActaFile{Name: path.Base(filename), ContentType: contentType, Size: info.Size(), File: file}, nil
}

func (s *ActaService) allowed(detected *mimetype.MIME) bool {
	for _, m := range s.cfg.AllowedMIMEs {
		if detected.Is(m) {
			return true
		}
	}
	return false
}
