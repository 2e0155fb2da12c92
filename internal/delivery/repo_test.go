package delivery

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/thewages75-crypto/idnon/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database.DB
}

func TestOriginLookup(t *testing.T) {
	repo := NewRepo(openTestDB(t))

	if err := repo.Save(501, 10, 20); err != nil {
		t.Fatalf("save: %v", err)
	}

	origin, ok, err := repo.Origin(501)
	if err != nil {
		t.Fatalf("origin: %v", err)
	}
	if !ok || origin != 10 {
		t.Fatalf("expected origin 10, got %d ok=%v", origin, ok)
	}

	_, ok, err = repo.Origin(999)
	if err != nil {
		t.Fatalf("origin: %v", err)
	}
	if ok {
		t.Fatalf("unknown message id should not resolve")
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	repo := NewRepo(openTestDB(t))

	if err := repo.Save(501, 10, 20); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(501, 10, 20); err != nil {
		t.Fatalf("duplicate save: %v", err)
	}

	n, err := repo.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 record, got %d", n)
	}
}

func TestByOriginAndDelete(t *testing.T) {
	repo := NewRepo(openTestDB(t))

	if err := repo.Save(501, 10, 20); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(502, 10, 21); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(503, 11, 20); err != nil {
		t.Fatalf("save: %v", err)
	}

	placements, err := repo.ByOrigin(10)
	if err != nil {
		t.Fatalf("by origin: %v", err)
	}
	if len(placements) != 2 {
		t.Fatalf("expected 2 placements for origin 10, got %d", len(placements))
	}

	if err := repo.DeleteByOrigin(10); err != nil {
		t.Fatalf("delete by origin: %v", err)
	}
	n, err := repo.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected only the other origin's record, got %d", n)
	}
}
