package filter

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

func TestMatchCaseInsensitiveSubstring(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	if err := repo.Add("SPAM"); err != nil {
		t.Fatalf("add: %v", err)
	}

	word, matched, err := repo.Match("this is definitely Spammy content")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if !matched || word != "spam" {
		t.Fatalf("expected match on %q, got matched=%v word=%q", "spam", matched, word)
	}

	_, matched, err = repo.Match("a perfectly clean message")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if matched {
		t.Fatalf("clean text should not match")
	}
}

func TestAddNormalizesAndDeduplicates(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	if err := repo.Add("  Casino "); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.Add("casino"); err != nil {
		t.Fatalf("duplicate add should be ignored: %v", err)
	}
	if err := repo.Add("   "); err == nil {
		t.Fatalf("expected error for empty word")
	}

	words, err := repo.Words()
	if err != nil {
		t.Fatalf("words: %v", err)
	}
	if len(words) != 1 || words[0] != "casino" {
		t.Fatalf("expected [casino], got %v", words)
	}
}

func TestRemove(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	if err := repo.Add("spam"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.Remove("SPAM"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	words, err := repo.Words()
	if err != nil {
		t.Fatalf("words: %v", err)
	}
	if len(words) != 0 {
		t.Fatalf("expected empty set, got %v", words)
	}
}
