package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/chenglin1712/deming-rollcall/internal/handler"
	"github.com/chenglin1712/deming-rollcall/internal/middleware"
	"github.com/chenglin1712/deming-rollcall/internal/models"
	"github.com/chenglin1712/deming-rollcall/internal/service"
	"github.com/chenglin1712/deming-rollcall/pkg/config"
	appErrors "github.com/chenglin1712/deming-rollcall/pkg/errors"
	"github.com/chenglin1712/deming-rollcall/pkg/logger"
	corsmiddleware "github.com/chenglin1712/deming-rollcall/pkg/middleware/cors"
	reqidmiddleware "github.com/chenglin1712/deming-rollcall/pkg/middleware/requestid"
	"github.com/chenglin1712/deming-rollcall/pkg/response"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Student    *handler.StudentHandler
	Attendance *handler.AttendanceHandler
	Metrics    *handler.MetricsHandler
}

// Dependencies are the cross-cutting collaborators of the middleware chain.
type Dependencies struct {
	Sessions middleware.SessionAuthenticator
	Audit    middleware.AuditRecorder
	Metrics  *service.MetricsService
	Logger   *zap.Logger
}

// Setup builds the gin engine with every route of the API.
func Setup(cfg *config.Config, h Handlers, deps Dependencies) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/api")
	{
		api.POST("/login", middleware.BodyLimit(64<<10), h.Auth.Login)
		api.POST("/logout", h.Auth.Logout)
		api.GET("/check-login", h.Auth.CheckLogin)
		api.GET("/check-connection", h.Metrics.CheckConnection)
	}

	authed := api.Group("")
	authed.Use(middleware.RequireLogin(deps.Sessions, cfg.Session.CookieName))
	{
		authed.GET("/students", h.Student.List)
		authed.GET("/groups", h.Student.Groups)

		submit := []gin.HandlerFunc{
			middleware.BodyLimit(cfg.Upload.MaxBytes),
			middleware.Audit(deps.Audit, models.AuditActionAttendanceSubmit, "attendance"),
			h.Attendance.Submit,
		}
		authed.POST("/attendance/submit", submit...)
		// Path posted to by older front ends.
		authed.POST("/attendance", submit...)
	}

	managed := authed.Group("")
	managed.Use(middleware.DenyRestricted(cfg.RestrictedUsername))
	{
		managed.GET("/students/all", h.Student.ListAll)
		managed.POST("/students",
			middleware.BodyLimit(64<<10),
			middleware.Audit(deps.Audit, models.AuditActionStudentCreate, "student"),
			h.Student.Create,
		)
		managed.POST("/students/import",
			middleware.BodyLimit(cfg.Upload.MaxBytes),
			middleware.Audit(deps.Audit, models.AuditActionStudentImport, "student"),
			h.Student.Import,
		)

		managed.GET("/attendance/dates", h.Attendance.Dates)
		managed.GET("/attendance/history", h.Attendance.History)
		managed.GET("/attendance/export", h.Attendance.Export)
		managed.DELETE("/attendance/clear",
			middleware.Audit(deps.Audit, models.AuditActionAttendanceClear, "attendance"),
			h.Attendance.Clear,
		)
	}

	if cfg.StaticDir != "" {
		mountStatic(r, cfg.StaticDir)
	} else {
		r.NoRoute(func(c *gin.Context) {
			response.Error(c, appErrors.ErrNotFound)
		})
	}

	return r
}

// mountStatic serves the front-end directory for GET requests outside /api.
func mountStatic(r *gin.Engine, dir string) {
	fileServer := http.FileServer(http.Dir(dir))
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") ||
			(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		fileServer.ServeHTTP(c.Writer, c.Request)
	})
}
