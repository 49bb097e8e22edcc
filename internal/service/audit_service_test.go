package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	"github.com/noah-isme/academy-inventory-api/pkg/jobs"
)

type memAuditRepo struct {
	logs []models.AuditLog
	err  error
}

func (m *memAuditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *memAuditRepo) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	return m.logs, m.err
}

func TestAuditServiceRecordsInlineWithoutQueue(t *testing.T) {
	repo := &memAuditRepo{}
	svc := NewAuditService(repo, NewMetricsService(), zap.NewNop())

	svc.Record(context.Background(), models.AuditEntry{Actor: "admin@academia.com", Action: models.AuditActionCreate, Module: models.AuditModuleGoods, IP: "10.0.0.1", Details: "Created good Ball"})

	require.Len(t, repo.logs, 1)
	assert.Equal(t, "admin@academia.com", repo.logs[0].UserEmail)
	assert.Equal(t, "10.0.0.1", repo.logs[0].IP)
	assert.NotEmpty(t, repo.logs[0].ID)
	assert.False(t, repo.logs[0].CreatedAt.IsZero())
}

func TestAuditServiceQueuesAndHandles(t *testing.T) {
	repo := &memAuditRepo{}
	queue := &fakeQueue{}
	svc := NewAuditService(repo, nil, nil)
	svc.UseQueue(queue)

	svc.Record(context.Background(), models.AuditEntry{Actor: "a@academia.com", Action: models.AuditActionLogin, Module: models.AuditModuleAuth})
	require.Len(t, queue.jobs, 1)
	assert.Empty(t, repo.logs)
	assert.Equal(t, AuditJobType, queue.jobs[0].Type)

	require.NoError(t, svc.Handle(context.Background(), queue.jobs[0]))
	require.Len(t, repo.logs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.logs[0].Action)

	assert.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: "bad", Payload: "oops"}))
}

func TestAuditServiceFallsBackWhenQueueFull(t *testing.T) {
	repo := &memAuditRepo{}
	svc := NewAuditService(repo, nil, nil)
	svc.UseQueue(&fakeQueue{err: jobs.ErrQueueFull})

	svc.Record(context.Background(), models.AuditEntry{Actor: "a@academia.com", Action: models.AuditActionDelete})
	assert.Len(t, repo.logs, 1)
}

func TestAuditServiceFailuresNeverReachCaller(t *testing.T) {
	repo := &memAuditRepo{err: errors.New("db down")}
	metrics := NewMetricsService()
	svc := NewAuditService(repo, metrics, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Record(ctx, models.AuditEntry{Action: models.AuditActionUpdate})
	svc.OnDrop(jobs.Job{ID: "j", Payload: &models.AuditLog{Action: models.AuditActionUpdate}}, errors.New("retries exhausted"))

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.auditFailures))

	var nilSvc *AuditService
	assert.NotPanics(t, func() { nilSvc.Record(context.Background(), models.AuditEntry{}) })
}
