package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quillpost/core/internal/pkg/response"
	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Query holds parsed pagination parameters.
type Query struct {
	Page  int
	Limit int
}

// FromContext extracts pagination params from ?page=&limit=. Values that are
// missing, malformed or below 1 fall back to the defaults; limit is capped.
func FromContext(c *gin.Context) Query {
	return Normalize(
		parseIntOr(c.Query("page"), DefaultPage),
		parseIntOr(c.Query("limit"), DefaultLimit),
	)
}

// Normalize clamps page and limit into their valid ranges.
func Normalize(page, limit int) Query {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Query{Page: page, Limit: limit}
}

func (q Query) Offset() int { return (q.Page - 1) * q.Limit }

// Paginate counts the filtered query, then loads the requested page into dest.
// Ordering and preloads go in scopes so they do not take part in the count.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T, scopes ...func(*gorm.DB) *gorm.DB) (response.Pagination, error) {
	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}

	page := db.Session(&gorm.Session{}).Scopes(scopes...)
	if err := page.Offset(q.Offset()).Limit(q.Limit).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}
	if *dest == nil {
		*dest = []T{}
	}

	return response.Pagination{
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
		Pages: Pages(total, q.Limit),
	}, nil
}

// Pages is ceil(total/limit).
func Pages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
