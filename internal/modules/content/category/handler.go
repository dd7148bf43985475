package category

import (
	"github.com/gin-gonic/gin"
	"github.com/quillpost/core/internal/middleware"
	"github.com/quillpost/core/internal/models"
	"github.com/quillpost/core/internal/pkg/response"
	"github.com/quillpost/core/internal/pkg/validation"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	cats := rg.Group("/categories")
	cats.GET("", h.list)
	cats.GET("/:id", h.getByQuery)

	admin := cats.Group("", authMW, middleware.RequireRole(models.RoleAdmin))
	admin.POST("", h.create)
	admin.PUT("/:id", h.update)
	admin.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	cats, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, cats)
}

func (h *Handler) getByQuery(c *gin.Context) {
	cat, err := h.svc.GetByQuery(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, cat)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateCategoryDTO
	if err := validation.BindJSON(c, &dto); err != nil {
		response.Fail(c, err)
		return
	}
	cat, err := h.svc.Create(c.Request.Context(), &dto)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, cat)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateCategoryDTO
	if err := validation.BindJSON(c, &dto); err != nil {
		response.Fail(c, err)
		return
	}
	cat, err := h.svc.Update(c.Request.Context(), c.Param("id"), &dto)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, cat)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.Message(c, "Category deleted successfully")
}
