package db

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestJoinOpenDefaultsTrue(t *testing.T) {
	database := openTestDB(t)

	open, err := database.JoinOpen()
	if err != nil {
		t.Fatalf("join open: %v", err)
	}
	if !open {
		t.Fatalf("a fresh database should have joining open")
	}
}

func TestSetJoinOpen(t *testing.T) {
	database := openTestDB(t)

	if err := database.SetJoinOpen(false); err != nil {
		t.Fatalf("set join open: %v", err)
	}
	open, err := database.JoinOpen()
	if err != nil {
		t.Fatalf("join open: %v", err)
	}
	if open {
		t.Fatalf("expected joining closed")
	}

	if err := database.SetJoinOpen(true); err != nil {
		t.Fatalf("set join open: %v", err)
	}
	open, err = database.JoinOpen()
	if err != nil {
		t.Fatalf("join open: %v", err)
	}
	if !open {
		t.Fatalf("expected joining reopened")
	}
}

func TestModeratorPassHash(t *testing.T) {
	database := openTestDB(t)

	hash, err := database.ModeratorPassHash()
	if err != nil {
		t.Fatalf("pass hash: %v", err)
	}
	if hash != "" {
		t.Fatalf("expected no hash on a fresh database, got %q", hash)
	}

	if err := database.SetModeratorPassHash("$2a$12$fakehash"); err != nil {
		t.Fatalf("set pass hash: %v", err)
	}
	hash, err = database.ModeratorPassHash()
	if err != nil {
		t.Fatalf("pass hash: %v", err)
	}
	if hash != "$2a$12$fakehash" {
		t.Fatalf("unexpected hash: %q", hash)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	database, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	database.Close()

	database, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer database.Close()

	var n int
	if err := database.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected recorded migrations")
	}
}
