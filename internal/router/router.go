// Package router assembles the HTTP route table.
package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-inventory-api/internal/handler"
	"github.com/noah-isme/academy-inventory-api/internal/middleware"
	"github.com/noah-isme/academy-inventory-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academy-inventory-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academy-inventory-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP surface.
type Handlers struct {
	Auth       *handler.AuthHandler
	User       *handler.UserHandler
	Category   *handler.CategoryHandler
	Good       *handler.GoodHandler
	Instructor *handler.InstructorHandler
	Sport      *handler.SportHandler
	Warehouse  *handler.WarehouseHandler
	Assignment *handler.AssignmentHandler
	Acta       *handler.ActaHandler
	Dashboard  *handler.DashboardHandler
	Audit      *handler.AuditHandler
	Report     *handler.ReportHandler
	Metrics    *handler.MetricsHandler
}

// Options carries the cross-cutting collaborators of the router.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Resolver       middleware.PrincipalResolver
	LoginLimiter   *middleware.RateLimiter
	Observer       middleware.HTTPObserver
	Logger         *zap.Logger
}

// New builds the gin engine with global middleware and all routes.
func New(h Handlers, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	if opts.Observer != nil {
		r.Use(middleware.Metrics(opts.Observer))
	}
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(Prefix(opts.APIPrefix))

	login := []gin.HandlerFunc{}
	if opts.LoginLimiter != nil {
		login = append(login, opts.LoginLimiter.Handler())
	}
	api.POST("/auth/login", append(login, h.Auth.Login)...)

	// Signed links carry their own credential, so the bearer token is optional here.
	api.GET("/actas/:id/download", middleware.OptionalJWT(opts.Resolver), h.Acta.Download)

	authed := api.Group("", middleware.JWT(opts.Resolver))
	authed.GET("/auth/me", h.Auth.Me)

	authed.GET("/actas", h.Acta.List)
	authed.GET("/actas/:id/link", h.Acta.Link)
	authed.POST("/actas/:id/upload-signed", h.Acta.UploadSigned)
	authed.GET("/actas/:id/download-signed", h.Acta.DownloadSigned)

	staff := authed.Group("", middleware.RequireUser())
	{
		staff.GET("/categories", h.Category.List)
		staff.POST("/categories", h.Category.Create)
		staff.PUT("/categories/:id", h.Category.Update)
		staff.DELETE("/categories/:id", h.Category.Delete)

		staff.GET("/goods", h.Good.List)
		staff.GET("/goods/:id", h.Good.Get)
		staff.POST("/goods", h.Good.Create)
		staff.PUT("/goods/:id", h.Good.Update)
		staff.DELETE("/goods/:id", h.Good.Delete)

		staff.GET("/instructors", h.Instructor.Names)
		staff.GET("/instructors-management", h.Instructor.List)
		staff.POST("/instructors-management", h.Instructor.Create)
		staff.PUT("/instructors-management/:id", h.Instructor.Update)
		staff.DELETE("/instructors-management/:id", h.Instructor.Delete)

		staff.GET("/disciplines", h.Sport.Disciplines)
		staff.GET("/sports-management", h.Sport.List)
		staff.POST("/sports-management", h.Sport.Create)
		staff.PUT("/sports-management/:id", h.Sport.Update)
		staff.DELETE("/sports-management/:id", h.Sport.Delete)

		staff.GET("/warehouses", h.Warehouse.List)
		staff.POST("/warehouses", h.Warehouse.Create)
		staff.PUT("/warehouses/:id", h.Warehouse.Update)
		staff.DELETE("/warehouses/:id", h.Warehouse.Delete)

		staff.GET("/assignments", h.Assignment.List)
		staff.GET("/assignments/:id", h.Assignment.Get)
		staff.POST("/assignments", h.Assignment.Create)

		staff.GET("/dashboard/stats", h.Dashboard.Stats)
		staff.GET("/reports", h.Report.Generate)
	}

	admin := authed.Group("", middleware.RequireAdmin())
	{
		admin.GET("/users", h.User.List)
		admin.GET("/users/:id", h.User.Get)
		admin.POST("/users", h.User.Create)
		admin.PUT("/users/:id", h.User.Update)
		admin.DELETE("/users/:id", h.User.Delete)

		admin.GET("/audit", h.Audit.List)
	}

	portal := authed.Group("/instructor", middleware.RequireInstructor())
	{
		portal.GET("/assignments", h.Assignment.Mine)
		portal.POST("/assignments/:id/confirm", h.Assignment.Confirm)
		portal.GET("/actas", h.Acta.Mine)
	}

	return r
}

// Prefix normalises the configured API prefix to "/name" form; empty mounts at the root.
func Prefix(raw string) string {
	trimmed := strings.Trim(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return "/"
	}
	return "/" + trimmed
}
