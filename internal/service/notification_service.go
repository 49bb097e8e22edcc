package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	"github.com/noah-isme/academy-inventory-api/pkg/jobs"
	"github.com/noah-isme/academy-inventory-api/pkg/mailer"
)

const (
	// NotificationJobType tags outbox deliveries on the background queue.
	NotificationJobType = "notification.send"

	sweepMinAge    = 30 * time.Second
	sweepBatchSize = 50
	// claimTimeout bounds how long a worker may hold a row before another may retake it.
	claimTimeout = 5 * time.Minute
)

type outboxRepository interface {
	Claim(ctx context.Context, id string, staleAfter time.Duration) (*models.Notification, error)
	ListPending(ctx context.Context, minAge, staleAfter time.Duration, limit int) ([]models.Notification, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkAttemptFailed(ctx context.Context, id, reason string, maxAttempts int) (models.NotificationStatus, error)
}

// NotificationService composes assignment e-mails and delivers rows of the outbox.
type NotificationService struct {
	repo        outboxRepository
	sender      mailer.Sender
	enabled     bool
	maxAttempts int
	queue       jobEnqueuer
	metrics     *MetricsService
	logger      *zap.Logger
	sanitizer   *bluemonday.Policy
	cron        *cron.Cron
}

// NewNotificationService builds the dispatcher. When disabled no outbox rows are composed.
func NewNotificationService(repo outboxRepository, sender mailer.Sender, enabled bool, maxAttempts int, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &NotificationService{
		repo:        repo,
		sender:      sender,
		enabled:     enabled,
		maxAttempts: maxAttempts,
		metrics:     metrics,
		logger:      logger,
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

// UseQueue routes deliveries through the given queue.
func (s *NotificationService) UseQueue(q jobEnqueuer) {
	s.queue = q
}

// Enabled reports whether notifications are produced.
func (s *NotificationService) Enabled() bool {
	return s != nil && s.enabled
}

// Compose builds the outbox row announcing an assignment to its instructor.
func (s *NotificationService) Compose(assignment *models.Assignment, instructor *models.Instructor, actaCode string) *models.Notification {
	if !s.Enabled() || assignment == nil || instructor == nil || strings.TrimSpace(instructor.Email) == "" {
		return nil
	}

	var rows strings.Builder
	for _, d := range assignment.Details {
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%d</td></tr>", s.sanitizer.Sanitize(d.GoodName), d.QuantityAssigned)
	}
	var notes string
	if clean := strings.TrimSpace(s.sanitizer.Sanitize(assignment.Notes)); clean != "" {
		notes = fmt.Sprintf("<p>Notes: %s</p>\n", clean)
	}
	body := fmt.Sprintf(`<h2>Equipment assigned</h2>
<p>Hello %s,</p>
<p>The following equipment was assigned to you for <strong>%s</strong>. Receipt code: <strong>%s</strong>.</p>
<table border="1" cellpadding="4" cellspacing="0"><tr><th>Item</th><th>Quantity</th></tr>%s</table>
%s<p>Please confirm reception and upload the signed receipt from the instructor portal.</p>`,
		s.sanitizer.Sanitize(instructor.Name), s.sanitizer.Sanitize(assignment.Discipline), s.sanitizer.Sanitize(actaCode), rows.String(), notes)

	now := time.Now().UTC()
	assignmentID := assignment.ID
	return &models.Notification{
		ID:           uuid.NewString(),
		AssignmentID: &assignmentID,
		Recipient:    normalizeEmail(instructor.Email),
		Subject:      fmt.Sprintf("Equipment assignment %s", actaCode),
		Body:         body,
		Status:       models.NotificationPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Dispatch schedules delivery of a committed outbox row. Rows that cannot be queued
// stay pending for the sweeper.
func (s *NotificationService) Dispatch(ctx context.Context, id string) {
	if s == nil || s.queue == nil || id == "" {
		return
	}
	if err := s.queue.TryEnqueue(jobs.Job{ID: id, Type: NotificationJobType, Payload: id}); err != nil {
		s.logger.Warn("notification left for sweeper", zap.String("notification_id", id), zap.Error(err))
	}
}

// Handle claims and delivers one outbox row. Rows already sent, failed or held by another
// worker are skipped. Failures are recorded on the row, not retried by the queue.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	id, _ := job.Payload.(string)
	if id == "" {
		id = job.ID
	}
	n, err := s.repo.Claim(ctx, id, claimTimeout)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("notification not claimable", zap.String("notification_id", id))
			return nil
		}
		return err
	}

	messageID, sendErr := s.sender.Send(ctx, mailer.Message{
		To:             []string{n.Recipient},
		Subject:        n.Subject,
		HTML:           n.Body,
		IdempotencyKey: n.ID,
	})
	if sendErr != nil {
		status, err := s.repo.MarkAttemptFailed(ctx, n.ID, sendErr.Error(), s.maxAttempts)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if status == models.NotificationFailed {
			s.metrics.NotificationResult("failed")
			s.logger.Error("notification failed permanently", zap.String("notification_id", n.ID), zap.String("recipient", n.Recipient), zap.Error(sendErr))
		} else {
			s.metrics.NotificationResult("retry")
			s.logger.Warn("notification delivery failed", zap.String("notification_id", n.ID), zap.Int("attempt", n.Attempts+1), zap.Error(sendErr))
		}
		return nil
	}

	if err := s.repo.MarkSent(ctx, n.ID, time.Now().UTC()); err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("failed to mark notification sent", zap.String("notification_id", n.ID), zap.Error(err))
	}
	s.metrics.NotificationResult("sent")
	s.logger.Info("notification sent", zap.String("notification_id", n.ID), zap.String("recipient", n.Recipient), zap.String("message_id", messageID))
	return nil
}

// Sweep re-enqueues pending rows that were not delivered yet and abandoned claims.
func (s *NotificationService) Sweep(ctx context.Context) (int, error) {
	pending, err := s.repo.ListPending(ctx, sweepMinAge, claimTimeout, sweepBatchSize)
	if err != nil {
		return 0, err
	}
	for _, n := range pending {
		s.Dispatch(ctx, n.ID)
	}
	return len(pending), nil
}

// StartSweeper runs Sweep on the cron schedule (for example "@every 1m").
func (s *NotificationService) StartSweeper(schedule string) error {
	if !s.Enabled() {
		return nil
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(zap.NewStdLog(s.logger)))))
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		count, err := s.Sweep(ctx)
		if err != nil {
			s.logger.Warn("outbox sweep failed", zap.Error(err))
			return
		}
		if count > 0 {
			s.logger.Info("outbox sweep requeued notifications", zap.Int("count", count))
		}
	}); err != nil {
		return fmt.Errorf("schedule outbox sweeper: %w", err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("outbox sweeper started", zap.String("schedule", schedule))
	return nil
}

// StopSweeper halts the schedule and waits for a running sweep up to ctx.
func (s *NotificationService) StopSweeper(ctx context.Context) {
	if s.cron == nil {
		return
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
