package user

import "time"

// User represents a relay participant.
//
// The ID is assigned by the transport and is never shown to other
// participants; the handle is the only identity recipients ever see.
type User struct {
	ID           int64
	Handle       string // empty until the user picks one
	Banned       bool   // manual ban set by the moderator
	AutoBanned   bool   // inactivity ban set by the sweep
	ShadowBanned bool
	Whitelisted  bool
	MediaCount   int
	LastMediaAt  *time.Time
	CreatedAt    time.Time
}

// HasHandle reports whether the user has completed handle onboarding.
func (u *User) HasHandle() bool {
	return u.Handle != ""
}

// MinHandleLen is the shortest handle a user may pick.
const MinHandleLen = 3

// Stats summarizes the user table for the moderator.
type Stats struct {
	Total        int
	Banned       int
	AutoBanned   int
	ShadowBanned int
	Whitelisted  int
}
