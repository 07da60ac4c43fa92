// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/bbn-nutrition/storefront/internal/db"
)

// NewDB opens a migrated in-memory SQLite database that lives as long as
// the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := db.GormConfig()
	cfg.PrepareStmt = false
	gdb, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// every new connection would see its own empty :memory: database
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}
