package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/quillpost/core/internal/config"
	"github.com/quillpost/core/internal/database"
	"github.com/quillpost/core/internal/middleware"
	"github.com/quillpost/core/internal/modules/auth"
	"github.com/quillpost/core/internal/modules/storage/backup"
	pkgredis "github.com/quillpost/core/internal/pkg/redis"
	"github.com/quillpost/core/internal/pkg/response"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	db      *gorm.DB
	rc      *pkgredis.Client
	logger  *zap.Logger
	authSvc *auth.Service
	backups *backup.Exporter
	started time.Time
}

// New initializes the application: config → DB → Redis → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	var rc *pkgredis.Client
	if cfg.RedisURL != "" {
		rc, err = pkgredis.Connect(context.Background(), cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
	} else {
		logger.Warn("redis disabled, rate limiting and idempotence are off")
	}
	return build(logger, cfg, db, rc)
}

// NewWithStore builds the application on an existing database and optional
// redis client. The database must already be migrated.
func NewWithStore(logger *zap.Logger, cfg *config.AppConfig, db *gorm.DB, rdb *redis.Client) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	var rc *pkgredis.Client
	if rdb != nil {
		rc = pkgredis.Wrap(rdb)
	}
	return build(logger, cfg, db, rc)
}

func build(logger *zap.Logger, cfg *config.AppConfig, db *gorm.DB, rc *pkgredis.Client) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := applyRuntimeSettings(cfg, logger); err != nil {
		return nil, err
	}

	switch {
	case cfg.IsDev():
		gin.SetMode(gin.DebugMode)
	case cfg.Env == "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		response.Error(c, http.StatusInternalServerError, "Server Error")
	}))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(middleware.OptionalAuth())
	router.Use(middleware.RateLimit(rc.Raw(), middleware.RateLimitOptions{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
		Logger: logger,
	}))
	router.Use(middleware.Idempotence(rc.Raw()))

	authSvc := auth.NewService(db, auth.WithTokenTTL(cfg.JWTExpiresIn), auth.WithLogger(logger))
	if _, err := authSvc.EnsureAdmin(context.Background(), cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	backupOpts := []backup.Option{backup.WithLogger(logger)}
	uploader, err := backup.NewS3Uploader(cfg.Backup.S3)
	if err != nil {
		return nil, fmt.Errorf("backup: %w", err)
	}
	if uploader != nil {
		backupOpts = append(backupOpts, backup.WithUploader(uploader, ""))
	}

	app := &App{
		cfg:     cfg,
		router:  router,
		db:      db,
		rc:      rc,
		logger:  logger,
		authSvc: authSvc,
		backups: backup.NewExporter(db, cfg.BackupDir(), backupOpts...),
		started: time.Now(),
	}
	app.registerRoutes()

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown releases the redis connection.
func (a *App) Shutdown() {
	if err := a.rc.Close(); err != nil {
		a.logger.Warn("close redis", zap.Error(err))
	}
}
