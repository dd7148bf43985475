package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/quillpost/core/internal/pkg/authz"
	"github.com/quillpost/core/internal/pkg/jwt"
	"github.com/quillpost/core/internal/pkg/response"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "user_role"

	msgNoToken      = "No token, authorization denied"
	msgInvalidToken = "Invalid token"
	msgTokenExpired = "Token has expired"
)

// Auth returns a middleware that requires a valid bearer token.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, msgNoToken)
			return
		}
		claims, err := jwt.Parse(token)
		if err != nil {
			if errors.Is(err, jwtlib.ErrTokenExpired) {
				response.Unauthorized(c, msgTokenExpired)
				return
			}
			response.Unauthorized(c, msgInvalidToken)
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the identity if a valid token is present, but does not block the request.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if claims, err := jwt.Parse(token); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRole rejects authenticated callers whose role is not one of roles.
// It must run after Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentIdentity(c).Role
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "User role "+role+" is not authorized to access this route")
	}
}

// CurrentIdentity returns the authenticated caller, zero when anonymous.
func CurrentIdentity(c *gin.Context) authz.Identity {
	return authz.Identity{
		UserID: c.GetString(ContextKeyUserID),
		Role:   c.GetString(ContextKeyRole),
	}
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

func setIdentity(c *gin.Context, claims *jwt.Claims) {
	c.Set(ContextKeyUserID, claims.UserID)
	c.Set(ContextKeyRole, claims.Role)
}

func extractToken(c *gin.Context) string {
	return NormalizeToken(c.GetHeader("Authorization"))
}

// NormalizeToken trims spaces and strips the Bearer prefix. Headers using any
// other scheme yield "".
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return ""
}
