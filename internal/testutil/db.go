package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/Arhamdeez/envVault/internal/config"
	"github.com/Arhamdeez/envVault/internal/db"
)

// OpenTestDB connects to the test Postgres, applies migrations and truncates
// all tables so each test starts clean. Skips when TEST_DB_HOST is unset.
func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "envvault",
		Password: "envvault_pass",
		DBName:   "envvault_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	if _, err := conn.Exec(`TRUNCATE audit_logs, shares, files, users`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
	}
}
