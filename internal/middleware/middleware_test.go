package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/quillpost/core/internal/models"
	"github.com/quillpost/core/internal/pkg/jwt"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func do(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error
}

func sign(t *testing.T, uid, role string) string {
	t.Helper()
	token, err := jwt.Sign(uid, role, time.Hour)
	require.NoError(t, err)
	return token
}

func TestAuth(t *testing.T) {
	r := gin.New()
	r.GET("/me", Auth(), func(c *gin.Context) {
		id := CurrentIdentity(c)
		c.JSON(http.StatusOK, gin.H{"uid": id.UserID, "role": id.Role})
	})

	w := do(r, http.MethodGet, "/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, msgNoToken, errorOf(t, w))

	w = do(r, http.MethodGet, "/me", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, msgInvalidToken, errorOf(t, w))

	w = do(r, http.MethodGet, "/me", sign(t, "u1", models.RoleAdmin), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"u1","role":"admin"}`, w.Body.String())
}

func TestAuthExpiredToken(t *testing.T) {
	r := gin.New()
	r.GET("/me", Auth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	expired, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwt.Claims{
		UserID: "u1",
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString([]byte("quillpost-secret-change-me"))
	require.NoError(t, err)

	w := do(r, http.MethodGet, "/me", expired, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, msgTokenExpired, errorOf(t, w))
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.POST("/categories", Auth(), RequireRole(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := do(r, http.MethodPost, "/categories", sign(t, "u1", models.RoleUser), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, errorOf(t, w), "not authorized")

	w = do(r, http.MethodPost, "/categories", sign(t, "a1", models.RoleAdmin), "")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestOptionalAuthIgnoresBadTokens(t *testing.T) {
	r := gin.New()
	r.GET("/", OptionalAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUserID(c))
	})

	assert.Equal(t, "", do(r, http.MethodGet, "/", "garbage", "").Body.String())
	assert.Equal(t, "u9", do(r, http.MethodGet, "/", sign(t, "u9", models.RoleUser), "").Body.String())
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "abc", NormalizeToken("Bearer abc"))
	assert.Equal(t, "abc", NormalizeToken("  bearer   abc "))
	assert.Equal(t, "", NormalizeToken("Basic abc"))
	assert.Equal(t, "", NormalizeToken(""))
}

func TestRateLimit(t *testing.T) {
	rdb := newRedis(t)
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	r := gin.New()
	r.Use(OptionalAuth(), RateLimit(rdb, RateLimitOptions{Max: 2, Window: time.Minute, Now: func() time.Time { return fixed }}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "", "").Code)
	w := do(r, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = do(r, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// authenticated callers bypass the limiter
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", sign(t, "u1", models.RoleUser), "").Code)

	fixed = fixed.Add(time.Minute)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "", "").Code)
}

func TestRateLimitFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	defer rdb.Close()

	r := gin.New()
	r.Use(RateLimit(rdb, RateLimitOptions{Max: 1, Logger: zap.NewNop()}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "", "").Code)
}

func TestIdempotence(t *testing.T) {
	rdb := newRedis(t)
	status := http.StatusCreated

	r := gin.New()
	r.Use(Idempotence(rdb))
	r.POST("/api/posts", func(c *gin.Context) { c.Status(status) })
	r.POST("/api/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	body := `{"title":"x"}`
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/posts", "", body).Code)
	w := do(r, http.MethodPost, "/api/posts", "", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, errorOf(t, w), "only be sent once")

	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/posts", "", `{"title":"y"}`).Code)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/auth/login", "", body).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/auth/login", "", body).Code)
}

func TestIdempotenceAllowsRepeatedComments(t *testing.T) {
	rdb := newRedis(t)

	r := gin.New()
	r.Use(Idempotence(rdb))
	r.POST("/api/posts/:id/comments", func(c *gin.Context) { c.Status(http.StatusCreated) })

	tok := sign(t, "u1", "user")
	body := `{"content":"+1"}`
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/posts/p1/comments", tok, body).Code)
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/posts/p1/comments", tok, body).Code)

	req := func() int {
		rq := httptest.NewRequest(http.MethodPost, "/api/posts/p1/comments", strings.NewReader(body))
		rq.Header.Set("Authorization", "Bearer "+tok)
		rq.Header.Set("X-Idempotence", "retry-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, rq)
		return w.Code
	}
	assert.Equal(t, http.StatusCreated, req())
	assert.Equal(t, http.StatusConflict, req(), "an explicit key still deduplicates")
}

func TestIsCommentPath(t *testing.T) {
	assert.True(t, isCommentPath("/api/posts/abc/comments"))
	assert.True(t, isCommentPath("/api/posts/abc/comments/"))
	assert.False(t, isCommentPath("/api/posts"))
	assert.False(t, isCommentPath("/api/posts/abc"))
	assert.False(t, isCommentPath("/api/categories/abc/comments"))
}

func TestIdempotenceReleasesFailedRequests(t *testing.T) {
	rdb := newRedis(t)

	r := gin.New()
	r.Use(Idempotence(rdb))
	r.POST("/api/posts", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/posts", "", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/posts", "", `{}`).Code)
}

func TestLoggerRecordsErrors(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger(zap.NewNop()))
	r.GET("/", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusInternalServerError)
	})

	w := do(r, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}
