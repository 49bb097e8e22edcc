package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academy-inventory-api/api/swagger"
	"github.com/noah-isme/academy-inventory-api/internal/handler"
	"github.com/noah-isme/academy-inventory-api/internal/middleware"
	"github.com/noah-isme/academy-inventory-api/internal/repository"
	"github.com/noah-isme/academy-inventory-api/internal/router"
	"github.com/noah-isme/academy-inventory-api/internal/service"
	"github.com/noah-isme/academy-inventory-api/pkg/cache"
	"github.com/noah-isme/academy-inventory-api/pkg/config"
	"github.com/noah-isme/academy-inventory-api/pkg/database"
	"github.com/noah-isme/academy-inventory-api/pkg/jobs"
	"github.com/noah-isme/academy-inventory-api/pkg/logger"
	"github.com/noah-isme/academy-inventory-api/pkg/mailer"
	"github.com/noah-isme/academy-inventory-api/pkg/receipt"
	"github.com/noah-isme/academy-inventory-api/pkg/storage"
)

// @title Academy Inventory API
// @version 1.0.0
// @description Sports academy equipment inventory, assignments and delivery actas
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const (
	shutdownTimeout     = 15 * time.Second
	limiterCleanupEvery = 5 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, logr); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	var statsCache service.StatsCache
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dashboard cache disabled", zap.String("addr", cache.Addr(cfg.Redis)), zap.Error(err))
		} else {
			defer client.Close()
			statsCache = repository.NewStatsCacheRepository(client, "dashboard")
		}
	}

	store, err := storage.NewLocalStorage(cfg.Receipts.Dir)
	if err != nil {
		return fmt.Errorf("prepare receipts dir: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Receipts.SignedURLSecret, cfg.Receipts.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	goodRepo := repository.NewGoodRepository(db)
	sportRepo := repository.NewSportRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	actaRepo := repository.NewActaRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	reportRepo := repository.NewReportRepository(db)

	queueCfg := func(onDrop jobs.DropFunc) jobs.QueueConfig {
		return jobs.QueueConfig{
			Workers:    cfg.Queue.Workers,
			BufferSize: cfg.Queue.BufferSize,
			MaxRetries: cfg.Queue.MaxRetries,
			RetryDelay: cfg.Queue.RetryDelay,
			Logger:     logr,
			OnDrop:     onDrop,
		}
	}

	auditSvc := service.NewAuditService(auditRepo, metrics, logr)
	auditQueue := jobs.NewQueue("audit", auditSvc.Handle, queueCfg(auditSvc.OnDrop))
	auditSvc.UseQueue(auditQueue)
	auditQueue.Start(context.Background())
	defer auditQueue.Stop()

	notificationSvc := service.NewNotificationService(outboxRepo, mailer.New(cfg.Email), cfg.Email.Enabled(), cfg.Outbox.MaxAttempts, metrics, logr)
	// Deliveries record their own failures on the outbox row; the sweeper retries.
	notificationCfg := queueCfg(nil)
	notificationCfg.MaxRetries = 0
	notificationQueue := jobs.NewQueue("notifications", notificationSvc.Handle, notificationCfg)
	notificationSvc.UseQueue(notificationQueue)
	notificationQueue.Start(context.Background())
	defer notificationQueue.Stop()
	if err := notificationSvc.StartSweeper(cfg.Outbox.SweepSchedule); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		notificationSvc.StopSweeper(stopCtx)
	}()

	dashboardSvc := service.NewDashboardService(goodRepo, assignmentRepo, categoryRepo, statsCache, metrics, cfg.Dashboard.CacheTTL, logr)
	authSvc := service.NewAuthService(userRepo, instructorRepo, auditSvc, metrics, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, auditSvc, validate, logr)
	categorySvc := service.NewCategoryService(categoryRepo, auditSvc, dashboardSvc, validate, logr)
	goodSvc := service.NewGoodService(goodRepo, categoryRepo, auditSvc, dashboardSvc, validate, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, auditSvc, dashboardSvc, validate, logr)
	sportSvc := service.NewSportService(sportRepo, auditSvc, dashboardSvc, validate, logr)
	warehouseSvc := service.NewWarehouseService(warehouseRepo, auditSvc, validate, logr)
	assignmentSvc := service.NewAssignmentService(service.AssignmentServiceParams{
		Repo:        assignmentRepo,
		Goods:       goodRepo,
		Instructors: instructorRepo,
		Renderer:    receipt.NewRenderer(""),
		Store:       store,
		Notifier:    notificationSvc,
		Audit:       auditSvc,
		Stats:       dashboardSvc,
		Metrics:     metrics,
		Validator:   validate,
		Logger:      logr,
	})
	actaSvc := service.NewActaService(actaRepo, assignmentRepo, store, signer, auditSvc, service.ActaConfig{
		MaxUploadBytes: cfg.Receipts.MaxUploadBytes,
		AllowedMIMEs:   cfg.Receipts.AllowedUploadMIMEs,
	}, logr)
	reportSvc := service.NewReportService(reportRepo, assignmentRepo, validate, logr)

	if created, err := userSvc.EnsureDefaultAdmin(ctx, cfg.DefaultAdmin.Name, cfg.DefaultAdmin.Email, cfg.DefaultAdmin.Password); err != nil {
		logr.Warn("failed to seed default admin", zap.Error(err))
	} else if created {
		logr.Info("default admin created", zap.String("email", cfg.DefaultAdmin.Email))
	}

	loginLimiter := middleware.NewRateLimiter(cfg.RateLimit.LoginPerSecond, cfg.RateLimit.LoginBurst, logr)
	loginLimiter.StartCleanup(limiterCleanupEvery, ctx.Done())

	prefix := router.Prefix(cfg.APIPrefix)
	engine := router.New(router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		User:       handler.NewUserHandler(userSvc),
		Category:   handler.NewCategoryHandler(categorySvc),
		Good:       handler.NewGoodHandler(goodSvc),
		Instructor: handler.NewInstructorHandler(instructorSvc),
		Sport:      handler.NewSportHandler(sportSvc),
		Warehouse:  handler.NewWarehouseHandler(warehouseSvc),
		Assignment: handler.NewAssignmentHandler(assignmentSvc),
		Acta:       handler.NewActaHandler(actaSvc, strings.TrimSuffix(prefix, "/"), logr),
		Dashboard:  handler.NewDashboardHandler(dashboardSvc),
		Audit:      handler.NewAuditHandler(auditSvc),
		Report:     handler.NewReportHandler(reportSvc),
		Metrics:    handler.NewMetricsHandler(metrics, db, logr),
	}, router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Resolver:       authSvc,
		LoginLimiter:   loginLimiter,
		Observer:       metrics,
		Logger:         logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", prefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
