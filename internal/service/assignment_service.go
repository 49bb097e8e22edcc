package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	"github.com/noah-isme/academy-inventory-api/internal/repository"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
	"github.com/noah-isme/academy-inventory-api/pkg/receipt"
)

type assignmentRepository interface {
	Create(ctx context.Context, na *models.NewAssignment) error
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	MarkReceived(ctx context.Context, id string, at time.Time) error
}

type goodBatchFinder interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Good, error)
}

type instructorNameFinder interface {
	FindByName(ctx context.Context, name string) (*models.Instructor, error)
}

type receiptRenderer interface {
	Render(doc receipt.Document) ([]byte, error)
}

type fileStore interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
}

type assignmentNotifier interface {
	Compose(assignment *models.Assignment, instructor *models.Instructor, actaCode string) *models.Notification
	Dispatch(ctx context.Context, id string)
}

// AssignmentServiceParams groups constructor dependencies.
type AssignmentServiceParams struct {
	Repo        assignmentRepository
	Goods       goodBatchFinder
	Instructors instructorNameFinder
	Renderer    receiptRenderer
	Store       fileStore
	Notifier    assignmentNotifier
	Audit       auditRecorder
	Stats       statsInvalidator
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// AssignmentService checks goods out to instructors and tracks their reception.
type AssignmentService struct {
	repo        assignmentRepository
	goods       goodBatchFinder
	instructors instructorNameFinder
	renderer    receiptRenderer
	store       fileStore
	notifier    assignmentNotifier
	audit       auditRecorder
	stats       statsInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAssignmentService constructs the assignment engine.
func NewAssignmentService(params AssignmentServiceParams) *AssignmentService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	return &AssignmentService{
		repo:        params.Repo,
		goods:       params.Goods,
		instructors: params.Instructors,
		renderer:    params.Renderer,
		store:       params.Store,
		notifier:    params.Notifier,
		audit:       params.Audit,
		stats:       params.Stats,
		metrics:     params.Metrics,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type requestedLine struct {
	goodID   string
	quantity int
}

// Create validates stock, renders the acta and commits the assignment with its
// decrements in one transaction. The rendered file is removed if the commit fails.
func (s *AssignmentService) Create(ctx context.Context, req models.CreateAssignmentRequest, actor models.Actor) (*models.CreateAssignmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid assignment payload")
	}
	lines := aggregateLines(req.Details)

	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.goodID
	}
	goods, err := s.goods.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load goods")
	}
	for _, l := range lines {
		good, ok := goods[l.goodID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("good not found: %s", l.goodID))
		}
		if good.AvailableQuantity < l.quantity {
			s.metrics.StockConflict()
			return nil, insufficientStock(good.Name, good.AvailableQuantity, l.quantity)
		}
	}

	now := s.now()
	assignmentID := uuid.NewString()
	code := receipt.Code(assignmentID)
	filename := receipt.Filename(code)

	assignment := models.Assignment{
		ID:             assignmentID,
		InstructorName: strings.TrimSpace(req.InstructorName),
		Discipline:     strings.TrimSpace(req.Discipline),
		CreatedBy:      actor.Email,
		Status:         models.AssignmentStatusActive,
		Notes:          strings.TrimSpace(req.Notes),
		CreatedAt:      now,
	}
	na := &models.NewAssignment{
		Acta: models.Acta{
			ID:           uuid.NewString(),
			AssignmentID: assignmentID,
			Code:         code,
			PDFFilename:  filename,
			Type:         models.ActaTypeDelivery,
			CreatedBy:    actor.Email,
			CreatedAt:    now,
		},
	}
	items := make([]receipt.Item, 0, len(lines))
	for _, l := range lines {
		good := goods[l.goodID]
		na.Details = append(na.Details, models.AssignmentDetail{
			ID:               uuid.NewString(),
			AssignmentID:     assignmentID,
			GoodID:           l.goodID,
			GoodName:         good.Name,
			QuantityAssigned: l.quantity,
			CreatedAt:        now,
		})
		na.Decrements = append(na.Decrements, models.StockDecrement{GoodID: l.goodID, GoodName: good.Name, Quantity: l.quantity})
		items = append(items, receipt.Item{Name: good.Name, Description: good.Description, Quantity: l.quantity})
	}
	assignment.Details = na.Details
	na.Assignment = assignment

	pdf, err := s.renderer.Render(receipt.Document{
		Code:           code,
		InstructorName: assignment.InstructorName,
		Discipline:     assignment.Discipline,
		IssuedAt:       now,
		IssuerName:     actor.Name,
		IssuerEmail:    actor.Email,
		Items:          items,
		Notes:          assignment.Notes,
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render acta")
	}
	if _, err := s.store.Save(filename, pdf); err != nil {
		return nil, appErrors.Internal(err, "failed to store acta")
	}

	if s.notifier != nil && s.instructors != nil {
		instructor, err := s.instructors.FindByName(ctx, assignment.InstructorName)
		switch {
		case err == nil:
			na.Notification = s.notifier.Compose(&assignment, instructor, code)
		case !errors.Is(err, sql.ErrNoRows):
			s.logger.Warn("failed to look up instructor for notification", zap.String("instructor", assignment.InstructorName), zap.Error(err))
		}
	}

	if err := s.repo.Create(ctx, na); err != nil {
		if delErr := s.store.Delete(filename); delErr != nil {
			s.logger.Warn("failed to remove orphaned acta", zap.String("file", filename), zap.Error(delErr))
		}
		return nil, s.translateCreateError(err, goods)
	}

	recordAudit(ctx, s.audit, actor, models.AuditActionCreateAssignment, models.AuditModuleAssignments,
		fmt.Sprintf("Instructor: %s, discipline: %s, items: %d, acta: %s", assignment.InstructorName, assignment.Discipline, len(na.Details), code))
	if na.Notification != nil {
		s.notifier.Dispatch(ctx, na.Notification.ID)
	}
	invalidate(ctx, s.stats)
	s.metrics.AssignmentCreated()

	return &models.CreateAssignmentResult{
		Message:      "Assignment created successfully",
		AssignmentID: assignmentID,
		ActaCode:     code,
	}, nil
}

func (s *AssignmentService) translateCreateError(err error, goods map[string]models.Good) error {
	var rbErr *repository.RollbackError
	if errors.As(err, &rbErr) {
		s.logger.Error("assignment rollback failed", zap.NamedError("cause", rbErr.Cause), zap.NamedError("rollback", rbErr.Rollback))
		return appErrors.Wrap(err, appErrors.ErrPartialAssignment.Code, appErrors.ErrPartialAssignment.Status, "assignment could not be rolled back cleanly")
	}
	var conflict *repository.StockConflictError
	if errors.As(err, &conflict) {
		s.metrics.StockConflict()
		name := conflict.GoodID
		if good, ok := goods[conflict.GoodID]; ok {
			name = good.Name
		}
		return appErrors.Wrap(err, appErrors.ErrInsufficientStock.Code, appErrors.ErrInsufficientStock.Status,
			fmt.Sprintf("insufficient stock for %s: it was assigned concurrently", name))
	}
	if errors.Is(err, repository.ErrReferenced) {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "a requested good no longer exists")
	}
	return appErrors.Internal(err, "failed to create assignment")
}

// List returns assignments with their lines.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	assignments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list assignments")
	}
	return assignments, nil
}

// Get returns one assignment with its lines.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "assignment", "load")
	}
	return assignment, nil
}

// ListForInstructor returns the assignments handed to the given instructor.
func (s *AssignmentService) ListForInstructor(ctx context.Context, instructorName string) ([]models.Assignment, error) {
	return s.List(ctx, models.AssignmentFilter{InstructorName: instructorName})
}

// Confirm marks an instructor's own assignment as received.
func (s *AssignmentService) Confirm(ctx context.Context, id string, instructor models.Principal, ip string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "assignment", "load")
	}
	if assignment.InstructorName != instructor.Name() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	if assignment.Status == models.AssignmentStatusReceived {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assignment already confirmed")
	}

	at := s.now()
	if err := s.repo.MarkReceived(ctx, id, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "assignment already confirmed")
		}
		return nil, appErrors.Internal(err, "failed to confirm assignment")
	}
	assignment.Status = models.AssignmentStatusReceived
	assignment.ConfirmedAt = &at
	invalidate(ctx, s.stats)

	recordAudit(ctx, s.audit, models.ActorFrom(instructor, ip), models.AuditActionConfirmAssignment, models.AuditModuleAssignments,
		fmt.Sprintf("Instructor %s confirmed reception of %s", instructor.Name(), receipt.Code(id)))
	return assignment, nil
}

// aggregateLines sums repeated goods while keeping first-seen order.
func aggregateLines(details []models.AssignmentLine) []requestedLine {
	index := make(map[string]int, len(details))
	lines := make([]requestedLine, 0, len(details))
	for _, d := range details {
		id := strings.TrimSpace(d.GoodID)
		if i, ok := index[id]; ok {
			lines[i].quantity += d.QuantityAssigned
			continue
		}
		index[id] = len(lines)
		lines = append(lines, requestedLine{goodID: id, quantity: d.QuantityAssigned})
	}
	return lines
}

func insufficientStock(name string, available, requested int) error {
	return appErrors.Clone(appErrors.ErrInsufficientStock,
		fmt.Sprintf("insufficient stock for %s: available %d, requested %d", name, available, requested))
}
