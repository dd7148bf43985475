package category

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
	"github.com/quillpost/core/internal/models"
	"github.com/quillpost/core/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(dbtest.New(t))).RegisterRoutes(r.Group("/api"), middleware.Auth())
	return r
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := jwt.Sign("user-"+role, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func call(t *testing.T, r http.Handler, method, path, tok, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestCategoryRoutes(t *testing.T) {
	r := setupRouter(t)
	admin := token(t, models.RoleAdmin)

	code, env := call(t, r, http.MethodPost, "/api/categories", admin, `{"name":"  Tutorials ","description":"How-tos"}`)
	require.Equal(t, http.StatusCreated, code)
	var created models.CategoryModel
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Tutorials", created.Name)
	assert.Equal(t, "tutorials", created.Slug)

	code, env = call(t, r, http.MethodGet, "/api/categories/tutorials", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = call(t, r, http.MethodPut, "/api/categories/"+created.ID, admin, `{"name":"Guides"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"slug":"guides"`)

	code, env = call(t, r, http.MethodGet, "/api/categories", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "Guides")

	code, env = call(t, r, http.MethodDelete, "/api/categories/"+created.ID, admin, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Category deleted successfully", env.Message)

	code, env = call(t, r, http.MethodGet, "/api/categories/"+created.ID, "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Category not found", env.Error)
}

func TestCategoryMutationsRequireAdmin(t *testing.T) {
	r := setupRouter(t)

	code, _ := call(t, r, http.MethodPost, "/api/categories", "", `{"name":"X"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = call(t, r, http.MethodPost, "/api/categories", token(t, models.RoleUser), `{"name":"X"}`)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestCategoryValidation(t *testing.T) {
	r := setupRouter(t)
	admin := token(t, models.RoleAdmin)

	code, env := call(t, r, http.MethodPost, "/api/categories", admin, `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "name", env.Errors[0].Field)
	assert.Equal(t, "Category name is required", env.Errors[0].Message)

	code, env = call(t, r, http.MethodPost, "/api/categories", admin, `{"name":"`+strings.Repeat("n", 51)+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Category name cannot be more than 50 characters", env.Errors[0].Message)

	code, env = call(t, r, http.MethodPost, "/api/categories", admin, `{"name":"Ok","description":"`+strings.Repeat("d", 201)+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "description", env.Errors[0].Field)
}

func TestCategoryDuplicateName(t *testing.T) {
	r := setupRouter(t)
	admin := token(t, models.RoleAdmin)

	code, _ := call(t, r, http.MethodPost, "/api/categories", admin, `{"name":"News"}`)
	require.Equal(t, http.StatusCreated, code)

	code, env := call(t, r, http.MethodPost, "/api/categories", admin, `{"name":"News"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Name already exists", env.Error)
}
