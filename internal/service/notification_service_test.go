package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	"github.com/noah-isme/academy-inventory-api/pkg/jobs"
	"github.com/noah-isme/academy-inventory-api/pkg/mailer"
)

type memOutbox struct {
	mu   sync.Mutex
	rows map[string]*models.Notification
}

func newMemOutbox(rows ...models.Notification) *memOutbox {
	m := &memOutbox{rows: make(map[string]*models.Notification)}
	for i := range rows {
		n := rows[i]
		m.rows[n.ID] = &n
	}
	return m
}

func (m *memOutbox) row(id string) models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.rows[id]
}

func (m *memOutbox) Claim(ctx context.Context, id string, staleAfter time.Duration) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	stale := n.Status == models.NotificationSending && time.Since(n.UpdatedAt) >= staleAfter
	if n.Status != models.NotificationPending && !stale {
		return nil, sql.ErrNoRows
	}
	n.Status = models.NotificationSending
	n.UpdatedAt = time.Now()
	claimed := *n
	return &claimed, nil
}

func (m *memOutbox) ListPending(ctx context.Context, minAge, staleAfter time.Duration, limit int) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.rows {
		pending := n.Status == models.NotificationPending
		stale := n.Status == models.NotificationSending && time.Since(n.UpdatedAt) >= staleAfter
		if (pending || stale) && len(out) < limit {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *memOutbox) MarkSent(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.rows[id]
	if !ok || n.Status != models.NotificationSending {
		return sql.ErrNoRows
	}
	n.Attempts++
	n.Status = models.NotificationSent
	n.SentAt = &at
	return nil
}

func (m *memOutbox) MarkAttemptFailed(ctx context.Context, id, reason string, maxAttempts int) (models.NotificationStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.rows[id]
	if !ok || n.Status != models.NotificationSending {
		return "", sql.ErrNoRows
	}
	n.Attempts++
	n.LastError = &reason
	n.Status = models.NotificationPending
	if n.Attempts >= maxAttempts {
		n.Status = models.NotificationFailed
	}
	return n.Status, nil
}

type fakeSender struct {
	mu    sync.Mutex
	sent  []mailer.Message
	err   error
	delay time.Duration
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) (string, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg-1", nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestNotificationServiceCompose(t *testing.T) {
	assignment := &models.Assignment{
		ID:         "a-1",
		Discipline: "Football",
		Notes:      `<script>alert(1)</script>Handle with care`,
		Details:    []models.AssignmentDetail{{GoodName: "Ball <b>Pro</b>", QuantityAssigned: 2}},
	}
	instructor := &models.Instructor{Name: "Ana", Email: " Ana@Academia.com "}

	svc := NewNotificationService(newMemOutbox(), &fakeSender{}, true, 3, nil, zap.NewNop())
	n := svc.Compose(assignment, instructor, "RECEIPT-ABCDEF12")
	require.NotNil(t, n)
	assert.Equal(t, "ana@academia.com", n.Recipient)
	assert.Equal(t, models.NotificationPending, n.Status)
	assert.Contains(t, n.Subject, "RECEIPT-ABCDEF12")
	assert.Contains(t, n.Body, "<td>Ball Pro</td>")
	assert.Contains(t, n.Body, "Notes: Handle with care")
	assert.NotContains(t, n.Body, "<script>")
	require.NotNil(t, n.AssignmentID)
	assert.Equal(t, "a-1", *n.AssignmentID)

	disabled := NewNotificationService(newMemOutbox(), &fakeSender{}, false, 3, nil, nil)
	assert.Nil(t, disabled.Compose(assignment, instructor, "RECEIPT-ABCDEF12"))
	assert.Nil(t, svc.Compose(assignment, &models.Instructor{Name: "No mail"}, "RECEIPT-ABCDEF12"))
}

func TestNotificationServiceHandleDelivers(t *testing.T) {
	outbox := newMemOutbox(models.Notification{ID: "n-1", Recipient: "ana@academia.com", Subject: "s", Body: "<p>b</p>", Status: models.NotificationPending})
	sender := &fakeSender{}
	metrics := NewMetricsService()
	svc := NewNotificationService(outbox, sender, true, 3, metrics, nil)

	require.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: "n-1", Payload: "n-1"}))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"ana@academia.com"}, sender.sent[0].To)
	assert.Equal(t, "n-1", sender.sent[0].IdempotencyKey)
	assert.Equal(t, models.NotificationSent, outbox.rows["n-1"].Status)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.notifications.WithLabelValues("sent")))

	require.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: "n-1"}))
	assert.Len(t, sender.sent, 1, "sent rows are not delivered twice")

	assert.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: "gone"}))
}

func TestNotificationServiceHandleRecordsFailures(t *testing.T) {
	outbox := newMemOutbox(models.Notification{ID: "n-1", Recipient: "ana@academia.com", Status: models.NotificationPending})
	sender := &fakeSender{err: errors.New("provider returned 503")}
	metrics := NewMetricsService()
	svc := NewNotificationService(outbox, sender, true, 2, metrics, nil)
	ctx := context.Background()

	require.NoError(t, svc.Handle(ctx, jobs.Job{ID: "n-1"}))
	assert.Equal(t, models.NotificationPending, outbox.rows["n-1"].Status)
	assert.Equal(t, 1, outbox.rows["n-1"].Attempts)
	require.NotNil(t, outbox.rows["n-1"].LastError)
	assert.True(t, strings.Contains(*outbox.rows["n-1"].LastError, "503"))

	require.NoError(t, svc.Handle(ctx, jobs.Job{ID: "n-1"}))
	assert.Equal(t, models.NotificationFailed, outbox.rows["n-1"].Status)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.notifications.WithLabelValues("retry")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.notifications.WithLabelValues("failed")))
}

func TestNotificationServiceHandleDeliversOnceUnderConcurrency(t *testing.T) {
	outbox := newMemOutbox(models.Notification{ID: "n-1", Recipient: "ana@academia.com", Status: models.NotificationPending})
	sender := &fakeSender{delay: 50 * time.Millisecond}
	svc := NewNotificationService(outbox, sender, true, 3, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: "n-1"}))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, sender.count(), "one outbox row yields one e-mail")
	row := outbox.row("n-1")
	assert.Equal(t, models.NotificationSent, row.Status)
	assert.Equal(t, 1, row.Attempts)
}

func TestNotificationServiceHandleRetakesStaleClaim(t *testing.T) {
	outbox := newMemOutbox(
		models.Notification{ID: "fresh", Recipient: "a@academia.com", Status: models.NotificationSending, UpdatedAt: time.Now()},
		models.Notification{ID: "stale", Recipient: "b@academia.com", Status: models.NotificationSending, UpdatedAt: time.Now().Add(-2 * claimTimeout)},
	)
	sender := &fakeSender{}
	svc := NewNotificationService(outbox, sender, true, 3, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Handle(ctx, jobs.Job{ID: "fresh"}))
	require.NoError(t, svc.Handle(ctx, jobs.Job{ID: "stale"}))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"b@academia.com"}, sender.sent[0].To)
	assert.Equal(t, models.NotificationSending, outbox.row("fresh").Status)
	assert.Equal(t, models.NotificationSent, outbox.row("stale").Status)
}

func TestNotificationServiceSweepRequeuesPending(t *testing.T) {
	outbox := newMemOutbox(
		models.Notification{ID: "n-1", Status: models.NotificationPending},
		models.Notification{ID: "n-2", Status: models.NotificationSent},
		models.Notification{ID: "n-3", Status: models.NotificationPending},
		models.Notification{ID: "n-4", Status: models.NotificationSending, UpdatedAt: time.Now()},
		models.Notification{ID: "n-5", Status: models.NotificationSending, UpdatedAt: time.Now().Add(-2 * claimTimeout)},
	)
	queue := &fakeQueue{}
	svc := NewNotificationService(outbox, &fakeSender{}, true, 3, nil, nil)
	svc.UseQueue(queue)

	count, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.Len(t, queue.jobs, 3)
	for _, job := range queue.jobs {
		assert.Equal(t, NotificationJobType, job.Type)
	}
}

func TestNotificationServiceSweeperLifecycle(t *testing.T) {
	svc := NewNotificationService(newMemOutbox(), &fakeSender{}, true, 3, nil, nil)
	require.NoError(t, svc.StartSweeper("@every 1h"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	svc.StopSweeper(ctx)

	assert.Error(t, NewNotificationService(newMemOutbox(), &fakeSender{}, true, 3, nil, nil).StartSweeper("not a schedule"))
}
