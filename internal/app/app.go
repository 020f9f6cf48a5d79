// Package app wires repositories, services and handlers into a runnable API.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chenglin1712/deming-rollcall/internal/handler"
	"github.com/chenglin1712/deming-rollcall/internal/repository"
	"github.com/chenglin1712/deming-rollcall/internal/router"
	"github.com/chenglin1712/deming-rollcall/internal/service"
	"github.com/chenglin1712/deming-rollcall/pkg/config"
	"github.com/chenglin1712/deming-rollcall/pkg/storage"
)

// App is the assembled API.
type App struct {
	Engine  *gin.Engine
	Auth    *service.AuthService
	Audit   *service.AuditService
	Metrics *service.MetricsService
	Archive *storage.Archive

	cfg    *config.Config
	logger *zap.Logger
}

// New assembles the API on top of an open database and an optional Redis
// client.
func New(cfg *config.Config, db *sqlx.DB, rdb *redis.Client, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := service.NewValidator()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	cacheRepo := repository.NewCacheRepository(rdb, logger)

	var sessions service.SessionStore = repository.NewSessionRepository(db)
	if cfg.Session.Store == config.SessionStoreRedis {
		if rdb == nil {
			return nil, fmt.Errorf("redis session store requires a redis client")
		}
		sessions = repository.NewRedisSessionRepository(rdb)
	}

	var archive *storage.Archive
	var archiver service.FileArchiver
	if cfg.Upload.ArchiveDir != "" {
		a, err := storage.NewArchive(cfg.Upload.ArchiveDir)
		if err != nil {
			return nil, err
		}
		archive, archiver = a, a
	}

	cache := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logger, cfg.Cache.Enabled && rdb != nil)
	audit := service.NewAuditService(userRepo, logger)
	auth := service.NewAuthService(userRepo, sessions, audit, metrics, validate, logger, service.AuthConfig{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
	})
	students := service.NewStudentService(studentRepo, cache, validate, logger)
	importer := service.NewImportService(studentRepo, cache, archiver, metrics, logger)
	attendance := service.NewAttendanceService(attendanceRepo, cache, metrics, validate, logger)
	exporter := service.NewExportService(attendanceRepo, cfg.Export.PDFFont, metrics, validate, logger)

	health := service.NewHealthService(db, nil)
	if rdb != nil {
		health = service.NewHealthService(db, cacheRepo)
	}

	engine := router.Setup(cfg, router.Handlers{
		Auth:       handler.NewAuthHandler(auth, handler.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.Secure}),
		Student:    handler.NewStudentHandler(students, importer),
		Attendance: handler.NewAttendanceHandler(attendance, exporter),
		Metrics:    handler.NewMetricsHandler(metrics, health),
	}, router.Dependencies{
		Sessions: auth,
		Audit:    audit,
		Metrics:  metrics,
		Logger:   logger,
	})

	return &App{
		Engine:  engine,
		Auth:    auth,
		Audit:   audit,
		Metrics: metrics,
		Archive: archive,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Start seeds the configured accounts, prunes old upload copies and starts the
// audit writer.
func (a *App) Start(ctx context.Context) error {
	created, err := a.Auth.SeedAccounts(ctx, a.cfg.SeedAccounts)
	if err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}
	a.logger.Info("accounts ready", zap.Int("seeded", created), zap.Int("configured", len(a.cfg.SeedAccounts)))

	if a.Archive != nil && a.cfg.Upload.ArchiveRetention > 0 {
		removed, err := a.Archive.PruneOlderThan(a.cfg.Upload.ArchiveRetention)
		if err != nil {
			a.logger.Warn("failed to prune upload archive", zap.Error(err))
		} else if len(removed) > 0 {
			a.logger.Info("pruned upload archive", zap.Int("removed", len(removed)))
		}
	}

	a.Audit.Start()
	return nil
}

// Stop drains background work.
func (a *App) Stop(ctx context.Context) error {
	return a.Audit.Stop(ctx)
}
