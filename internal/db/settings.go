package db

import (
	"database/sql"
	"fmt"
)

// Setting keys stored in the settings table.
const (
	keyJoinOpen          = "join_open"
	keyModeratorPassHash = "moderator_pass_hash"
)

// JoinOpen reports whether new users may join the relay.
func (db *DB) JoinOpen() (bool, error) {
	v, err := db.getSetting(keyJoinOpen)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// SetJoinOpen opens or closes joining for new users.
func (db *DB) SetJoinOpen(open bool) error {
	v := "false"
	if open {
		v = "true"
	}
	return db.setSetting(keyJoinOpen, v)
}

// ModeratorPassHash returns the bcrypt hash guarding moderator connections,
// or "" if none is set.
func (db *DB) ModeratorPassHash() (string, error) {
	v, err := db.getSetting(keyModeratorPassHash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

// SetModeratorPassHash stores the bcrypt hash guarding moderator connections.
func (db *DB) SetModeratorPassHash(hash string) error {
	return db.setSetting(keyModeratorPassHash, hash)
}

func (db *DB) getSetting(key string) (string, error) {
	var v string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("load setting %s: %w", key, err)
	}
	return v, nil
}

func (db *DB) setSetting(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}
