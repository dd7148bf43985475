package backup

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillpost/core/internal/middleware"
	"github.com/quillpost/core/internal/models"
	"github.com/quillpost/core/internal/pkg/response"
)

type Handler struct {
	exp *Exporter
}

func NewHandler(exp *Exporter) *Handler {
	return &Handler{exp: exp}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/backup", authMW, middleware.RequireRole(models.RoleAdmin))
	g.GET("", h.createAndDownload)
	g.GET("/files", h.list)
}

// GET /backup
func (h *Handler) createAndDownload(c *gin.Context) {
	art, err := h.exp.Create(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+art.Filename+`"`)
	if art.RemoteURL != "" {
		c.Header("X-Backup-Location", art.RemoteURL)
	}
	c.Data(http.StatusOK, "application/zip", art.Data)
}

// GET /backup/files
func (h *Handler) list(c *gin.Context) {
	items, err := h.exp.List()
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, items)
}
