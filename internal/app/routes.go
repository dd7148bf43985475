package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillpost/core/internal/database"
	"github.com/quillpost/core/internal/middleware"
	"github.com/quillpost/core/internal/modules/auth"
	"github.com/quillpost/core/internal/modules/content/category"
	"github.com/quillpost/core/internal/modules/content/post"
	"github.com/quillpost/core/internal/modules/storage/backup"
	"github.com/quillpost/core/internal/pkg/response"
	"go.uber.org/zap"
)

func (a *App) registerRoutes() {
	r := a.router
	authMW := middleware.Auth()

	r.NoRoute(response.NotFound)
	r.NoMethod(response.MethodNotAllowed)

	api := r.Group("/api")
	api.GET("/health", a.health)

	auth.NewHandler(a.authSvc).RegisterRoutes(api, authMW)
	category.NewHandler(category.NewService(a.db)).RegisterRoutes(api, authMW)
	post.NewHandler(post.NewService(a.db, a.logger.Named("post"))).RegisterRoutes(api, authMW)
	backup.NewHandler(a.backups).RegisterRoutes(api, authMW)
}

// GET /api/health
func (a *App) health(c *gin.Context) {
	redisState := "disabled"
	if rdb := a.rc.Raw(); rdb != nil {
		redisState = "up"
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			a.logger.Warn("health: redis ping", zap.Error(err))
			redisState = "down"
		}
	}
	if err := database.Ping(a.db); err != nil {
		a.logger.Error("health: database ping", zap.Error(err))
		response.Error(c, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	response.OK(c, gin.H{
		"status":   "ok",
		"env":      a.cfg.Env,
		"database": "up",
		"redis":    redisState,
		"uptime":   uptime(time.Since(a.started)),
	})
}
