package models

import "time"

// Role is a matchmaking role. A session always pairs one listener
// with one seeker.
type Role string

const (
	RoleListener Role = "listener"
	RoleSeeker   Role = "seeker"
)

// Opposite returns the role this role is matched against.
func (r Role) Opposite() Role {
	if r == RoleListener {
		return RoleSeeker
	}
	return RoleListener
}

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleListener || r == RoleSeeker
}

// ParseRole converts a request string into a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// QueueEntry is a user waiting to be matched. At most one entry exists
// per user; the entry disappears the moment a pairing consumes it or
// the user leaves.
type QueueEntry struct {
	UserID   string    `json:"user_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// JoinResult is returned from a join attempt. SessionID is set only
// when Matched is true; the unmatched side learns of a later match
// through a push event or the state endpoint.
type JoinResult struct {
	Matched   bool   `json:"matched"`
	SessionID string `json:"session_id,omitempty"`
}
