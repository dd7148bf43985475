package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillpost/core/internal/middleware"
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
	a := rg.Group("/auth")
	a.POST("/register", h.register)
	a.POST("/login", h.login)
	a.GET("/me", authMW, h.me)
	a.PUT("/profile", authMW, h.updateProfile)
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := validation.BindJSON(c, &dto); err != nil {
		response.Fail(c, err)
		return
	}
	token, u, err := h.svc.Register(c.Request.Context(), &dto)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"token": token, "user": u})
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := validation.BindJSON(c, &dto); err != nil {
		response.Fail(c, err)
		return
	}
	token, u, err := h.svc.Login(c.Request.Context(), &dto)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"token": token, "user": u})
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.svc.GetByID(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"user": u})
}

func (h *Handler) updateProfile(c *gin.Context) {
	var dto UpdateProfileDTO
	if err := validation.BindJSON(c, &dto); err != nil {
		response.Fail(c, err)
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"user": u})
}
