package models

import "time"

type Note struct {
	NoteID    string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Summary   string     `json:"summary"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// TouchedAt is the instant a note shows up on the calendar.
func (n *Note) TouchedAt() time.Time {
	if n.UpdatedAt != nil && !n.UpdatedAt.IsZero() {
		return *n.UpdatedAt
	}
	return n.CreatedAt
}
