package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-inventory-api/internal/models"
)

const outboxColumns = `id, assignment_id, recipient, subject, body, status, attempts, last_error, created_at, updated_at, sent_at`

// OutboxRepository manages the notification outbox.
type OutboxRepository struct {
	db *sqlx.DB
}

// NewOutboxRepository creates a new instance of OutboxRepository.
func NewOutboxRepository(db *sqlx.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func insertNotification(ctx context.Context, ext sqlx.ExtContext, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	if n.Status == "" {
		n.Status = models.NotificationPending
	}
	const query = `INSERT INTO notification_outbox (id, assignment_id, recipient, subject, body, status, attempts, last_error, created_at, updated_at, sent_at) VALUES (:id, :assignment_id, :recipient, :subject, :body, :status, :attempts, :last_error, :created_at, :updated_at, :sent_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// Claim moves a pending row, or a claim older than staleAfter, to sending and returns it.
// sql.ErrNoRows means the row is gone or another worker holds it.
func (r *OutboxRepository) Claim(ctx context.Context, id string, staleAfter time.Duration) (*models.Notification, error) {
	const query = `UPDATE notification_outbox
SET status = $2, updated_at = $4
WHERE id = $1 AND (status = $3 OR (status = $2 AND updated_at <= $5))
RETURNING ` + outboxColumns
	now := time.Now().UTC()
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, query, id, models.NotificationSending, models.NotificationPending, now, now.Add(-staleAfter)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("claim notification: %w", err)
	}
	return &n, nil
}

// ListPending returns deliverable rows, oldest first: pending rows untouched for minAge and
// sending claims abandoned for staleAfter.
func (r *OutboxRepository) ListPending(ctx context.Context, minAge, staleAfter time.Duration, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT ` + outboxColumns + ` FROM notification_outbox WHERE (status = $1 AND updated_at <= $2) OR (status = $3 AND updated_at <= $4) ORDER BY created_at ASC LIMIT $5`
	pending := make([]models.Notification, 0)
	now := time.Now().UTC()
	if err := r.db.SelectContext(ctx, &pending, query, models.NotificationPending, now.Add(-minAge), models.NotificationSending, now.Add(-staleAfter), limit); err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	return pending, nil
}

// MarkSent records a successful delivery.
func (r *OutboxRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE notification_outbox SET status = $2, attempts = attempts + 1, last_error = NULL, sent_at = $3, updated_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.NotificationSent, at, models.NotificationSending)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return expectAffected(res, "mark notification sent")
}

// MarkAttemptFailed releases a claim after a failed delivery. Once attempts reach maxAttempts the row is failed for good.
func (r *OutboxRepository) MarkAttemptFailed(ctx context.Context, id, reason string, maxAttempts int) (models.NotificationStatus, error) {
	const query = `UPDATE notification_outbox
SET attempts = attempts + 1,
    last_error = $2,
    status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END,
    updated_at = $4
WHERE id = $1 AND status = 'sending'
RETURNING status`
	var status models.NotificationStatus
	if err := r.db.GetContext(ctx, &status, query, id, reason, maxAttempts, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sql.ErrNoRows
		}
		return "", fmt.Errorf("mark notification failed: %w", err)
	}
	return status, nil
}
