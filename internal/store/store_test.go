// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/pressly/goose/v3"

	"contentforge/internal/database"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := database.DSN(
		envOr("POSTGRES_HOST", "localhost"),
		envOr("POSTGRES_PORT", "5432"),
		envOr("POSTGRES_USER", "contentforge"),
		envOr("POSTGRES_PASSWORD", "changeme"),
		envOr("POSTGRES_DB", "contentforge"),
		"disable",
	)
	db, err := database.Connect(context.Background(), dsn)
	if err != nil {
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanItems removes test items by ID. Call in t.Cleanup().
func cleanItems(t *testing.T, db *sql.DB, ids ...string) {
	t.Helper()
	for _, id := range ids {
		db.Exec("DELETE FROM content_items WHERE id = $1", id)
		db.Exec("DELETE FROM publish_log WHERE item_id = $1", id)
	}
}

// cleanPages removes test pages by URL. Call in t.Cleanup().
func cleanPages(t *testing.T, db *sql.DB, urls ...string) {
	t.Helper()
	for _, u := range urls {
		db.Exec("DELETE FROM sitemap_pages WHERE url = $1", u)
	}
}
