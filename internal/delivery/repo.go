package delivery

import (
	"database/sql"
	"fmt"
)

// Repo handles database operations for delivery records.
type Repo struct {
	db *sql.DB
}

// NewRepo creates a new delivery repository.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Save records a successful send. Saving the same message id twice is a
// no-op.
func (r *Repo) Save(messageID, originID, recipientID int64) error {
	_, err := r.db.Exec(`
		INSERT OR IGNORE INTO deliveries (message_id, origin_id, recipient_id)
		VALUES (?, ?, ?)
	`, messageID, originID, recipientID)
	if err != nil {
		return fmt.Errorf("save delivery %d: %w", messageID, err)
	}
	return nil
}

// Origin resolves the user who originated a relayed message. Returns
// (0, false) if the message is not tracked.
func (r *Repo) Origin(messageID int64) (int64, bool, error) {
	var origin int64
	err := r.db.QueryRow(
		"SELECT origin_id FROM deliveries WHERE message_id = ?", messageID,
	).Scan(&origin)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("origin of message %d: %w", messageID, err)
	}
	return origin, true, nil
}

// ByOrigin returns every delivered copy of messages sent by the given user.
func (r *Repo) ByOrigin(originID int64) ([]Placement, error) {
	rows, err := r.db.Query(`
		SELECT message_id, recipient_id FROM deliveries WHERE origin_id = ?
	`, originID)
	if err != nil {
		return nil, fmt.Errorf("deliveries by origin %d: %w", originID, err)
	}
	defer rows.Close()

	var placements []Placement
	for rows.Next() {
		var p Placement
		if err := rows.Scan(&p.MessageID, &p.RecipientID); err != nil {
			return nil, err
		}
		placements = append(placements, p)
	}
	return placements, rows.Err()
}

// DeleteByOrigin drops the records for a purged user's messages. The relayed
// copies themselves are deleted at the transport by the caller.
func (r *Repo) DeleteByOrigin(originID int64) error {
	_, err := r.db.Exec("DELETE FROM deliveries WHERE origin_id = ?", originID)
	if err != nil {
		return fmt.Errorf("delete deliveries by origin %d: %w", originID, err)
	}
	return nil
}

// Count returns the number of tracked deliveries.
func (r *Repo) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM deliveries").Scan(&n); err != nil {
		return 0, fmt.Errorf("count deliveries: %w", err)
	}
	return n, nil
}
