package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
	"github.com/noah-isme/academy-inventory-api/pkg/jobs"
)

// AuditJobType tags audit writes on the background queue.
const AuditJobType = "audit.write"

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
}

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

// AuditService appends audit entries off the request path and lists the trail.
type AuditService struct {
	repo    auditRepository
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuditService constructs the audit recorder. Without a queue entries are written inline.
func NewAuditService(repo auditRepository, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, metrics: metrics, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// UseQueue routes subsequent entries through the given queue.
func (s *AuditService) UseQueue(q jobEnqueuer) {
	s.queue = q
}

// Record appends an entry. It never fails the caller; failures are logged and counted.
func (s *AuditService) Record(ctx context.Context, entry models.AuditEntry) {
	if s == nil {
		return
	}
	log := &models.AuditLog{
		ID:        uuid.NewString(),
		UserEmail: entry.Actor,
		Action:    entry.Action,
		Module:    entry.Module,
		IP:        entry.IP,
		Details:   entry.Details,
		CreatedAt: s.now(),
	}

	if s.queue != nil {
		err := s.queue.TryEnqueue(jobs.Job{ID: log.ID, Type: AuditJobType, Payload: log})
		if err == nil {
			return
		}
		s.logger.Warn("audit queue unavailable, writing inline", zap.String("action", log.Action), zap.Error(err))
	}

	if err := s.repo.Create(context.WithoutCancel(ctx), log); err != nil {
		s.metrics.AuditWriteFailed()
		s.logger.Warn("failed to record audit log",
			zap.String("action", log.Action),
			zap.String("module", log.Module),
			zap.String("actor", log.UserEmail),
			zap.Error(err))
	}
}

// Handle is the queue handler persisting one audit entry.
func (s *AuditService) Handle(ctx context.Context, job jobs.Job) error {
	log, ok := job.Payload.(*models.AuditLog)
	if !ok || log == nil {
		s.logger.Error("discarding malformed audit job", zap.String("job_id", job.ID))
		return nil
	}
	return s.repo.Create(ctx, log)
}

// OnDrop observes audit entries abandoned after retries.
func (s *AuditService) OnDrop(job jobs.Job, err error) {
	s.metrics.AuditWriteFailed()
	fields := []zap.Field{zap.String("job_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err)}
	if log, ok := job.Payload.(*models.AuditLog); ok && log != nil {
		fields = append(fields, zap.String("action", log.Action), zap.String("module", log.Module), zap.String("actor", log.UserEmail))
	}
	s.logger.Error("audit entry dropped", fields...)
}

// List returns the newest entries matching the filter.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list audit logs")
	}
	return logs, nil
}

func recordAudit(ctx context.Context, audit auditRecorder, actor models.Actor, action, module, details string) {
	if audit == nil {
		return
	}
	audit.Record(ctx, models.AuditEntry{Actor: actor.Email, Action: action, Module: module, IP: actor.IP, Details: details})
}
