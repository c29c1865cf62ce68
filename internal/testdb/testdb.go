// Package testdb provides a shared test database helper for fast,
// realistic testing against an in-memory SQLite database.
package testdb

import (
	"context"
	"testing"

	"github.com/absdata/absidx/internal/assets"
	"github.com/absdata/absidx/internal/database"
	"github.com/absdata/absidx/internal/index"
)

// New creates an in-memory SQLite database with the index and asset tables
// migrated. The database is automatically closed when the test finishes.
func New(t *testing.T) database.Database {
	t.Helper()
	db := NewPlain(t)
	if err := index.AutoMigrate(db); err != nil {
		t.Fatalf("testdb.New: migrate index tables: %v", err)
	}
	if err := assets.AutoMigrate(db); err != nil {
		t.Fatalf("testdb.New: migrate asset tables: %v", err)
	}
	return db
}

// NewPlain creates an in-memory SQLite database without running migrations.
func NewPlain(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewDatabase(ctx, "sqlite:///:memory:")
	if err != nil {
		t.Fatalf("testdb.NewPlain: open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
