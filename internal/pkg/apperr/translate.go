package apperr

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

var (
	mysqlKeyPattern  = regexp.MustCompile(`for key '([^']+)'`)
	sqliteKeyPattern = regexp.MustCompile(`UNIQUE constraint failed: ([\w.]+)`)
)

// Translate maps driver, ORM and token errors onto the taxonomy.
// Errors that are already classified pass through untouched; anything
// unrecognised becomes KindServer.
func Translate(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}

	if field, ok := duplicateField(err); ok {
		return Wrap(KindDuplicateKey, Duplicate(field).Message, err)
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(KindNotFound, "Resource not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Wrap(KindDuplicateKey, "Duplicate field value entered", err)
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return Wrap(KindTokenExpired, "Token has expired", err)
	case isTokenError(err):
		return Wrap(KindInvalidToken, "Invalid token", err)
	}

	return Wrap(KindServer, "Server Error", err)
}

func duplicateField(err error) (string, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		if m := mysqlKeyPattern.FindStringSubmatch(myErr.Message); len(m) == 2 {
			return fieldFromIndex(m[1]), true
		}
		return "", true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		if m := sqliteKeyPattern.FindStringSubmatch(liteErr.Error()); len(m) == 2 {
			return columnName(m[1]), true
		}
		return "", true
	}
	return "", false
}

// fieldFromIndex turns gorm's index name ("users.idx_users_email" or
// "idx_users_email") into the JSON field name.
func fieldFromIndex(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[i+1:]
	}
	key = strings.TrimPrefix(key, "idx_")
	for _, table := range []string{"users_", "categories_", "posts_", "post_comments_"} {
		if strings.HasPrefix(key, table) {
			key = strings.TrimPrefix(key, table)
			break
		}
	}
	return columnName(key)
}

func columnName(col string) string {
	if i := strings.LastIndex(col, "."); i >= 0 {
		col = col[i+1:]
	}
	parts := strings.Split(col, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func isTokenError(err error) bool {
	return errors.Is(err, jwtlib.ErrTokenMalformed) ||
		errors.Is(err, jwtlib.ErrTokenSignatureInvalid) ||
		errors.Is(err, jwtlib.ErrTokenUnverifiable) ||
		errors.Is(err, jwtlib.ErrTokenNotValidYet) ||
		errors.Is(err, jwtlib.ErrTokenInvalidClaims)
}
