package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillpost/core/internal/database/dbtest"
	"github.com/quillpost/core/internal/middleware"
	"github.com/quillpost/core/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type authBody struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Error   string `json:"error"`
	User    *struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Email  string `json:"email"`
		Role   string `json:"role"`
		Bio    string `json:"bio"`
		Avatar string `json:"avatar"`
	} `json:"user"`
	Errors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := NewService(dbtest.New(t), WithBcryptCost(bcrypt.MinCost))
	NewHandler(svc).RegisterRoutes(r.Group("/api"), middleware.Auth())
	return r
}

func do(t *testing.T, r http.Handler, method, path, tok, body string) (int, authBody, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out authBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out, w.Body.String()
}

func TestRegisterLoginMe(t *testing.T) {
	r := setupRouter(t)

	code, reg, raw := do(t, r, http.MethodPost, "/api/auth/register", "",
		`{"name":" Ann ","email":" Ann@Example.COM ","password":"secret1","role":"admin"}`)
	require.Equal(t, http.StatusCreated, code, raw)
	assert.True(t, reg.Success)
	assert.NotEmpty(t, reg.Token)
	require.NotNil(t, reg.User)
	assert.Equal(t, "Ann", reg.User.Name)
	assert.Equal(t, "ann@example.com", reg.User.Email)
	assert.Equal(t, "user", reg.User.Role)
	assert.NotContains(t, raw, "password")

	code, login, _ := do(t, r, http.MethodPost, "/api/auth/login", "", `{"email":"ann@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, login.Token)

	code, me, _ := do(t, r, http.MethodGet, "/api/auth/me", login.Token, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, reg.User.ID, me.User.ID)

	code, prof, _ := do(t, r, http.MethodPut, "/api/auth/profile", login.Token, `{"bio":"Gopher","avatar":"me.png"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Ann", prof.User.Name)
	assert.Equal(t, "Gopher", prof.User.Bio)
	assert.Equal(t, "me.png", prof.User.Avatar)
}

func TestRegisterErrors(t *testing.T) {
	r := setupRouter(t)

	code, out, _ := do(t, r, http.MethodPost, "/api/auth/register", "", `{"name":"","email":"nope","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	msgs := map[string]string{}
	for _, e := range out.Errors {
		msgs[e.Field] = e.Message
	}
	assert.Equal(t, "Name is required", msgs["name"])
	assert.Equal(t, "Please include a valid email", msgs["email"])
	assert.Equal(t, "Password must be at least 6 characters", msgs["password"])

	body := `{"name":"Ann","email":"ann@example.com","password":"secret1"}`
	code, _, _ = do(t, r, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, code)
	code, out, _ = do(t, r, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Email already exists", out.Error)
}

func TestLoginAndTokenErrors(t *testing.T) {
	r := setupRouter(t)

	code, out, _ := do(t, r, http.MethodPost, "/api/auth/login", "", `{"email":"ghost@example.com","password":"whatever"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid credentials", out.Error)

	code, out, _ = do(t, r, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "No token, authorization denied", out.Error)

	code, out, _ = do(t, r, http.MethodGet, "/api/auth/me", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid token", out.Error)

	ghost, err := jwt.Sign("deleted-user", "user", time.Hour)
	require.NoError(t, err)
	code, out, _ = do(t, r, http.MethodGet, "/api/auth/me", ghost, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User not found", out.Error)
}

func TestProfileRejectsBlankName(t *testing.T) {
	r := setupRouter(t)
	_, reg, _ := do(t, r, http.MethodPost, "/api/auth/register", "", `{"name":"Ann","email":"ann@example.com","password":"secret1"}`)

	code, out, _ := do(t, r, http.MethodPut, "/api/auth/profile", reg.Token, `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, code)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "name", out.Errors[0].Field)
}
