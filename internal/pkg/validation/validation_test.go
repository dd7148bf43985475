package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/quillpost/core/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title   string   `json:"title"   validate:"required,notblank,max=10"`
	Name    string   `json:"name"    validate:"omitempty,max=5" label:"Category name"`
	Email   string   `json:"email"   validate:"omitempty,email"`
	Secret  string   `json:"secret"  validate:"omitempty,min=6"`
	Tags    []string `json:"tags"`
	trimmed bool
}

func (s *sample) Normalize() {
	s.Title = strings.TrimSpace(s.Title)
	s.trimmed = true
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	e, ok := apperr.As(err)
	require.True(t, ok, "expected apperr.Error, got %v", err)
	require.Equal(t, apperr.KindValidation, e.Kind)
	out := map[string]string{}
	for _, f := range e.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestStructMessages(t *testing.T) {
	err := Struct(&sample{
		Title:  "   ",
		Name:   "toolongname",
		Email:  "nope",
		Secret: "123",
	})
	got := fieldsOf(t, err)
	assert.Equal(t, "Title is required", got["title"])
	assert.Equal(t, "Category name cannot be more than 5 characters", got["name"])
	assert.Equal(t, "Please include a valid email", got["email"])
	assert.Equal(t, "Secret must be at least 6 characters", got["secret"])
}

func TestStructNormalizesFirst(t *testing.T) {
	s := &sample{Title: "  ok  "}
	require.NoError(t, Struct(s))
	assert.True(t, s.trimmed)
	assert.Equal(t, "ok", s.Title)
}

func TestStructCountsRunesForMax(t *testing.T) {
	assert.NoError(t, Struct(&sample{Title: strings.Repeat("é", 10)}))
	assert.Error(t, Struct(&sample{Title: strings.Repeat("é", 11)}))
}

func bind(t *testing.T, body string, dst interface{}) error {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return BindJSON(c, dst)
}

func TestBindJSONEmptyBodyValidates(t *testing.T) {
	got := fieldsOf(t, bind(t, "", &sample{}))
	assert.Equal(t, "Title is required", got["title"])
}

func TestBindJSONTypeMismatch(t *testing.T) {
	got := fieldsOf(t, bind(t, `{"title":"x","tags":"go"}`, &sample{}))
	assert.Equal(t, "Tags must be an array", got["tags"])
}

func TestBindJSONMalformed(t *testing.T) {
	err := bind(t, `{"title":`, &sample{})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	assert.Equal(t, "Malformed JSON body", e.Message)
}
