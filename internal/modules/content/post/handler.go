package post

import (
	"github.com/gin-gonic/gin"
	"github.com/quillpost/core/internal/middleware"
	"github.com/quillpost/core/internal/pkg/apperr"
	"github.com/quillpost/core/internal/pkg/pagination"
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
	posts := rg.Group("/posts")
	posts.GET("", h.list)
	posts.GET("/search", h.search)
	posts.GET("/:id", h.get)

	authed := posts.Group("", authMW)
	authed.POST("", h.create)
	authed.PUT("/:id", h.update)
	authed.DELETE("/:id", h.delete)
	authed.POST("/:id/comments", h.addComment)
}

func (h *Handler) list(c *gin.Context) {
	var lq ListQuery
	if err := c.ShouldBindQuery(&lq); err != nil {
		response.Fail(c, apperr.Invalid("Invalid query parameters"))
		return
	}
	posts, pg, err := h.svc.List(c.Request.Context(), pagination.FromContext(c), lq)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Paged(c, toResponses(posts), pg)
}

func (h *Handler) search(c *gin.Context) {
	posts, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, toResponses(posts))
}

func (h *Handler) get(c *gin.Context) {
	post, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, toDetail(post, h.svc.RenderHTML(post)))
}

func (h *Handler) create(c *gin.Context) {
	var dto CreatePostDTO
	if err := validation.BindJSON(c, &dto); err != nil {
		response.Fail(c, err)
		return
	}
	post, err := h.svc.Create(c.Request.Context(), middleware.CurrentIdentity(c), &dto)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, toDetail(post, h.svc.RenderHTML(post)))
}

// update checks existence and ownership before looking at the body, so a
// stranger learns nothing from validation errors.
func (h *Handler) update(c *gin.Context) {
	who := middleware.CurrentIdentity(c)
	if _, err := h.svc.Authorize(c.Request.Context(), who, c.Param("id"), ActionUpdate); err != nil {
		response.Fail(c, err)
		return
	}
	var dto UpdatePostDTO
	if err := validation.BindJSON(c, &dto); err != nil {
		response.Fail(c, err)
		return
	}
	post, err := h.svc.Update(c.Request.Context(), who, c.Param("id"), &dto)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, toDetail(post, h.svc.RenderHTML(post)))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.Message(c, "Post deleted successfully")
}

func (h *Handler) addComment(c *gin.Context) {
	var dto CommentDTO
	if err := validation.BindJSON(c, &dto); err != nil {
		response.Fail(c, err)
		return
	}
	post, err := h.svc.AddComment(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), dto.Content)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, toDetail(post, h.svc.RenderHTML(post)))
}
