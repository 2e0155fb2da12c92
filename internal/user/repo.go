package user

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Repo handles database operations for users.
type Repo struct {
	db *sql.DB
}

// NewRepo creates a new user repository.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Create inserts a user on first contact. Creating an existing user is a
// no-op; the stored row is returned either way.
func (r *Repo) Create(id int64) (*User, error) {
	now := time.Now()
	_, err := r.db.Exec(`
		INSERT INTO users (id, last_media_at) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, now)
	if err != nil {
		return nil, fmt.Errorf("create user %d: %w", id, err)
	}
	return r.Get(id)
}

// Get retrieves a user by id.
func (r *Repo) Get(id int64) (*User, error) {
	u := &User{}
	var handle sql.NullString
	var lastMedia, created sql.NullTime

	err := r.db.QueryRow(`
		SELECT id, handle, banned, auto_banned, shadow_banned, whitelisted,
		       media_count, last_media_at, created_at
		FROM users WHERE id = ?
	`, id).Scan(
		&u.ID, &handle, &u.Banned, &u.AutoBanned, &u.ShadowBanned, &u.Whitelisted,
		&u.MediaCount, &lastMedia, &created,
	)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}

	if handle.Valid {
		u.Handle = handle.String
	}
	if lastMedia.Valid {
		u.LastMediaAt = &lastMedia.Time
	}
	if created.Valid {
		u.CreatedAt = created.Time
	}

	return u, nil
}

// GetByHandle retrieves a user by their handle (case-insensitive).
func (r *Repo) GetByHandle(handle string) (*User, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	var id int64
	err := r.db.QueryRow(
		"SELECT id FROM users WHERE handle = ? COLLATE NOCASE", handle,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("get user by handle %q: %w", handle, err)
	}
	return r.Get(id)
}

// Exists checks whether a user row is present.
func (r *Repo) Exists(id int64) bool {
	var count int
	r.db.QueryRow("SELECT COUNT(*) FROM users WHERE id = ?", id).Scan(&count)
	return count > 0
}

// HandleTaken checks if a handle is already claimed (case-insensitive).
func (r *Repo) HandleTaken(handle string) bool {
	var count int
	r.db.QueryRow("SELECT COUNT(*) FROM users WHERE handle = ? COLLATE NOCASE", handle).Scan(&count)
	return count > 0
}

// SetHandle claims a handle for a user. Handles are stored lowercase.
func (r *Repo) SetHandle(id int64, handle string) error {
	handle = strings.ToLower(strings.TrimSpace(handle))
	if len(handle) < MinHandleLen {
		return fmt.Errorf("handle too short (min %d characters)", MinHandleLen)
	}
	if r.HandleTaken(handle) {
		return fmt.Errorf("handle %q already taken", handle)
	}
	_, err := r.db.Exec("UPDATE users SET handle = ? WHERE id = ?", handle, id)
	if err != nil {
		return fmt.Errorf("set handle for %d: %w", id, err)
	}
	return nil
}

// SetBanned sets or clears the manual ban flag.
func (r *Repo) SetBanned(id int64, banned bool) error {
	_, err := r.db.Exec("UPDATE users SET banned = ? WHERE id = ?", banned, id)
	if err != nil {
		return fmt.Errorf("set banned for %d: %w", id, err)
	}
	return nil
}

// ToggleShadow flips the shadow-ban flag and returns the new state.
func (r *Repo) ToggleShadow(id int64) (bool, error) {
	_, err := r.db.Exec("UPDATE users SET shadow_banned = NOT shadow_banned WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("toggle shadow for %d: %w", id, err)
	}
	var shadow bool
	if err := r.db.QueryRow("SELECT shadow_banned FROM users WHERE id = ?", id).Scan(&shadow); err != nil {
		return false, fmt.Errorf("toggle shadow for %d: %w", id, err)
	}
	return shadow, nil
}

// SetWhitelisted sets or clears the whitelist flag.
func (r *Repo) SetWhitelisted(id int64, whitelisted bool) error {
	_, err := r.db.Exec("UPDATE users SET whitelisted = ? WHERE id = ?", whitelisted, id)
	if err != nil {
		return fmt.Errorf("set whitelisted for %d: %w", id, err)
	}
	return nil
}

// Recipients returns the ids of every user eligible to receive a broadcast,
// excluding the origin. Shadow-banned users still receive; manually banned
// and auto-banned users do not.
func (r *Repo) Recipients(exclude int64) ([]int64, error) {
	rows, err := r.db.Query(`
		SELECT id FROM users
		WHERE banned = 0 AND auto_banned = 0 AND id != ?
		ORDER BY id
	`, exclude)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecordMediaActivity bumps the media counter by n and refreshes the
// last-media timestamp. Returns the updated user.
func (r *Repo) RecordMediaActivity(id int64, n int) (*User, error) {
	_, err := r.db.Exec(`
		UPDATE users
		SET media_count = media_count + ?, last_media_at = ?
		WHERE id = ?
	`, n, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("record media activity for %d: %w", id, err)
	}
	return r.Get(id)
}

// Touch refreshes the activity timestamp without bumping the media counter.
func (r *Repo) Touch(id int64) error {
	_, err := r.db.Exec("UPDATE users SET last_media_at = ? WHERE id = ?", time.Now(), id)
	if err != nil {
		return fmt.Errorf("touch user %d: %w", id, err)
	}
	return nil
}

// ClearAutoBan lifts an inactivity ban and clamps the media counter to the
// given value so a later reset restarts recovery from a known point.
func (r *Repo) ClearAutoBan(id int64, clampCount int) error {
	_, err := r.db.Exec(`
		UPDATE users SET auto_banned = 0, media_count = ? WHERE id = ?
	`, clampCount, id)
	if err != nil {
		return fmt.Errorf("clear auto ban for %d: %w", id, err)
	}
	return nil
}

// ResetActivation drops a user's media counter back to the given baseline,
// forcing them through activation again.
func (r *Repo) ResetActivation(id int64, baseline int) error {
	_, err := r.db.Exec("UPDATE users SET media_count = ? WHERE id = ?", baseline, id)
	if err != nil {
		return fmt.Errorf("reset activation for %d: %w", id, err)
	}
	return nil
}

// MarkInactiveSince flags every user whose last media activity predates the
// cutoff as auto-banned and drops their media counter to the recovery
// baseline. Manually banned users, whitelisted users and the moderator are
// exempt. The sweep is idempotent; it returns how many rows changed.
func (r *Repo) MarkInactiveSince(cutoff time.Time, moderatorID int64, baseline int) (int64, error) {
	res, err := r.db.Exec(`
		UPDATE users
		SET auto_banned = 1, media_count = MIN(media_count, ?)
		WHERE (last_media_at IS NULL OR last_media_at < ?)
		  AND auto_banned = 0
		  AND banned = 0
		  AND whitelisted = 0
		  AND id != ?
	`, baseline, cutoff, moderatorID)
	if err != nil {
		return 0, fmt.Errorf("mark inactive: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Stats returns flag totals for the moderator.
func (r *Repo) Stats() (*Stats, error) {
	s := &Stats{}
	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(banned), 0),
		       COALESCE(SUM(auto_banned), 0),
		       COALESCE(SUM(shadow_banned), 0),
		       COALESCE(SUM(whitelisted), 0)
		FROM users
	`).Scan(&s.Total, &s.Banned, &s.AutoBanned, &s.ShadowBanned, &s.Whitelisted)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	return s, nil
}

// List returns all users ordered by handle, unnamed users last.
func (r *Repo) List() ([]*User, error) {
	rows, err := r.db.Query(`
		SELECT id, handle, banned, auto_banned, shadow_banned, whitelisted,
		       media_count, last_media_at
		FROM users ORDER BY handle IS NULL, handle, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u := &User{}
		var handle sql.NullString
		var lastMedia sql.NullTime
		if err := rows.Scan(&u.ID, &handle, &u.Banned, &u.AutoBanned,
			&u.ShadowBanned, &u.Whitelisted, &u.MediaCount, &lastMedia); err != nil {
			return nil, err
		}
		if handle.Valid {
			u.Handle = handle.String
		}
		if lastMedia.Valid {
			u.LastMediaAt = &lastMedia.Time
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
