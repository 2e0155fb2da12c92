package delivery

import "time"

// Record links a relayed message to its origin and recipient. Records are
// written once per successful send and never updated; the moderator uses
// them to answer "who sent this" and "where did it land".
type Record struct {
	MessageID   int64
	OriginID    int64
	RecipientID int64
	SentAt      time.Time
}

// Placement is the (message, recipient) pair needed to delete a relayed
// copy at the transport.
type Placement struct {
	MessageID   int64
	RecipientID int64
}
