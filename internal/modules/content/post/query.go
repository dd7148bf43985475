package post

import (
	"encoding/json"
	"strings"

	"github.com/quillpost/core/internal/pkg/apperr"
	"gorm.io/gorm"
)

// sortColumns maps the public sort keys to columns.
var sortColumns = map[string]string{
	"createdAt": "posts.created_at",
	"updatedAt": "posts.updated_at",
	"title":     "posts.title",
	"viewCount": "posts.view_count",
}

const defaultSort = "-createdAt"

var errBadSort = apperr.Validation(apperr.FieldError{
	Field:   "sort",
	Message: "Sort must be one of: createdAt, updatedAt, title, viewCount",
})

// parseSort turns "field" or "-field" into an ORDER BY clause. The id
// tie-breaker keeps pages stable when the sort key repeats.
func parseSort(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = defaultSort
	}
	dir := "ASC"
	if strings.HasPrefix(raw, "-") {
		dir = "DESC"
		raw = raw[1:]
	}
	col, ok := sortColumns[raw]
	if !ok {
		return "", errBadSort
	}
	return col + " " + dir + ", posts.id " + dir, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var matchColumns = []string{"posts.title", "posts.content", "posts.excerpt"}

// matchText filters to posts whose title, content or excerpt contains term,
// case-insensitively.
func matchText(term string) func(*gorm.DB) *gorm.DB {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	conds := make([]string, len(matchColumns))
	args := make([]interface{}, len(matchColumns))
	for i, col := range matchColumns {
		conds[i] = "LOWER(" + col + ") LIKE ? ESCAPE '!'"
		args[i] = pattern
	}
	where := "(" + strings.Join(conds, " OR ") + ")"
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(where, args...)
	}
}

// hasTag filters to posts carrying tag exactly. Tags are stored as a JSON
// array, so the quoted element is matched rather than any substring.
func hasTag(tag string) func(*gorm.DB) *gorm.DB {
	quoted, _ := json.Marshal(tag)
	pattern := "%" + escapeLike(string(quoted)) + "%"
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.tags LIKE ? ESCAPE '!'", pattern)
	}
}

func withRefs(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("Author")
}

func ordered(clause string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(clause)
	}
}
