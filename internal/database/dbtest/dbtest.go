// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"classroombooking/internal/database"

	"gorm.io/gorm"
)

var seq atomic.Int64

// Open returns a migrated in-memory SQLite database private to the test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	db, err := database.Connect(dsn, database.Options{Silent: true})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return db
}

// SeedClassroom inserts a classroom row and returns its id.
func SeedClassroom(t *testing.T, db *gorm.DB, code string, active bool) int64 {
	t.Helper()
	row := database.ClassroomRow{Name: "Room " + code, Code: code, Capacity: 30, IsActive: active}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("failed to seed classroom: %v", err)
	}
	return row.ID
}

// SeedUser inserts a user row and returns its id.
func SeedUser(t *testing.T, db *gorm.DB, email string) int64 {
	t.Helper()
	row := database.UserRow{Email: email, PasswordHash: "x", FullName: email, Role: "user", IsActive: true}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return row.ID
}

// OpenPostgres connects to DATABASE_URL and migrates it. The test is skipped
// unless DATABASE_URL points at PostgreSQL. Rows are not cleaned up; seed
// with unique codes and emails.
func OpenPostgres(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if !database.IsPostgresDSN(dsn) {
		t.Skip("DATABASE_URL does not point at PostgreSQL")
	}

	db, err := database.Connect(dsn, database.Options{Silent: true, MaxOpenConns: 8})
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate postgres: %v", err)
	}
	return db
}
