package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillpost/core/internal/pkg/response"
	"github.com/redis/go-redis/v9"
)

const (
	idempotenceHeader = "X-Idempotence"
	idempotenceTTL    = 60 * time.Second

	stateInFlight = "0"
	stateDone     = "1"
)

// Idempotence rejects a repeated non-GET request with 409 while the first is
// in flight and for a minute after it succeeds. Requests are identified by
// the X-Idempotence header or, failing that, a hash of the request.
func Idempotence(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}
		if shouldSkipIdempotence(c.Request.Method, c.Request.URL.Path) {
			c.Next()
			return
		}

		key, err := resolveIdempotenceKey(c)
		if err != nil || key == "" {
			c.Next()
			return
		}

		redisKey := "blog:idempotence:" + key
		ctx := c.Request.Context()

		ok, err := rdb.SetNX(ctx, redisKey, stateInFlight, idempotenceTTL).Result()
		if err != nil {
			c.Next()
			return
		}
		if !ok {
			val, getErr := rdb.Get(ctx, redisKey).Result()
			if getErr != nil && !errors.Is(getErr, redis.Nil) {
				c.Next()
				return
			}
			msg := "The same request can only be sent once within 60 seconds"
			if val == stateInFlight {
				msg = "The same request is already being processed"
			}
			response.Conflict(c, msg)
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			rdb.Set(ctx, redisKey, stateDone, redis.KeepTTL)
		} else {
			rdb.Del(ctx, redisKey)
		}
	}
}

func shouldSkipIdempotence(method, path string) bool {
	if method != http.MethodPost {
		return false
	}
	p := strings.TrimRight(strings.ToLower(strings.TrimSpace(path)), "/")
	switch p {
	case "/api/auth/login", "/api/auth/register":
		return true
	default:
		return false
	}
}

// isCommentPath reports whether path is POST /api/posts/:id/comments.
// Posting the same text twice is a legitimate second comment, so only an
// explicit X-Idempotence header deduplicates it.
func isCommentPath(path string) bool {
	parts := strings.Split(strings.Trim(strings.ToLower(path), "/"), "/")
	return len(parts) == 4 && parts[0] == "api" && parts[1] == "posts" && parts[3] == "comments"
}

// resolveIdempotenceKey returns the idempotence key for the current request.
func resolveIdempotenceKey(c *gin.Context) (string, error) {
	if hdr := strings.TrimSpace(c.GetHeader(idempotenceHeader)); hdr != "" {
		return c.Request.Method + ":" + c.Request.URL.Path + ":" + hdr, nil
	}
	if isCommentPath(c.Request.URL.Path) {
		return "", nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	ua := c.Request.UserAgent()
	ip := c.ClientIP()
	token := extractToken(c)
	if len(body) == 0 && ua == "" && ip == "" && token == "" {
		return "", nil
	}

	raw := c.Request.Method + "|" + c.Request.URL.String() + "|" + string(body) + "|" + ua + "|" + ip + "|" + token
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:]), nil
}
