package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillpost/core/internal/pkg/apperr"
)

// Pagination metadata returned with paginated responses.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

type envelope struct {
	Success    bool                `json:"success"`
	Data       interface{}         `json:"data,omitempty"`
	Pagination *Pagination         `json:"pagination,omitempty"`
	Message    string              `json:"message,omitempty"`
	Error      string              `json:"error,omitempty"`
	Errors     []apperr.FieldError `json:"errors,omitempty"`
}

// OK sends a 200 response wrapping data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// Paged sends a paginated response.
func Paged(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data, Pagination: &pagination})
}

// Created sends a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// Message sends a 200 response carrying only a message.
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: message})
}

// JSON sends a success body with extra top-level keys, as used by the auth
// endpoints ({success, token, user}).
func JSON(c *gin.Context, status int, body gin.H) {
	out := gin.H{"success": true}
	for k, v := range body {
		out[k] = v
	}
	c.JSON(status, out)
}

// Error aborts with a single-message failure envelope.
func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Error: message})
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// Forbidden sends a 403 error response.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Route not found")
}

// MethodNotAllowed sends a 405 error response.
func MethodNotAllowed(c *gin.Context) {
	Error(c, http.StatusMethodNotAllowed, "Method not allowed")
}

// TooManyRequests sends a 429 error response.
func TooManyRequests(c *gin.Context) {
	Error(c, http.StatusTooManyRequests, "Too many requests, please try again later")
}

// Conflict sends a 409 error response.
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

// Fail is the single place where errors become HTTP responses. Server
// errors are attached to the gin context for the request logger and never
// leak their message.
func Fail(c *gin.Context, err error) {
	e := apperr.Translate(err)
	if e == nil {
		return
	}
	if e.Kind == apperr.KindServer {
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, "Server Error")
		return
	}
	if len(e.Fields) > 0 {
		c.AbortWithStatusJSON(e.Kind.Status(), envelope{Success: false, Errors: e.Fields})
		return
	}
	Error(c, e.Kind.Status(), e.Message)
}
