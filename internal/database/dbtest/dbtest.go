// Package dbtest opens isolated in-memory sqlite databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/quillpost/core/internal/config"
	"github.com/quillpost/core/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated in-memory database private to t. The pool is held
// at one connection so every statement sees the same memory database.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(config.DriverSQLite, dsn, logger.Silent)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("resolve sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
