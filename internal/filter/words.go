package filter

import (
	"database/sql"
	"fmt"
	"strings"
)

// Repo handles database operations for the banned-word set.
type Repo struct {
	db *sql.DB
}

// NewRepo creates a new banned-word repository.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Add inserts a word into the set. Words are normalized to lowercase;
// duplicates are ignored.
func (r *Repo) Add(word string) error {
	word = normalize(word)
	if word == "" {
		return fmt.Errorf("empty word")
	}
	_, err := r.db.Exec("INSERT OR IGNORE INTO banned_words (word) VALUES (?)", word)
	if err != nil {
		return fmt.Errorf("add banned word %q: %w", word, err)
	}
	return nil
}

// Remove deletes a word from the set.
func (r *Repo) Remove(word string) error {
	_, err := r.db.Exec("DELETE FROM banned_words WHERE word = ?", normalize(word))
	if err != nil {
		return fmt.Errorf("remove banned word %q: %w", word, err)
	}
	return nil
}

// Words returns the current set, sorted.
func (r *Repo) Words() ([]string, error) {
	rows, err := r.db.Query("SELECT word FROM banned_words ORDER BY word")
	if err != nil {
		return nil, fmt.Errorf("list banned words: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// Match reports the first banned word found as a case-insensitive substring
// of the text, or false if the text is clean.
func (r *Repo) Match(text string) (string, bool, error) {
	words, err := r.Words()
	if err != nil {
		return "", false, err
	}
	lower := strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return w, true, nil
		}
	}
	return "", false, nil
}

func normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}
