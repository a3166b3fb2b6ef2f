package models

import "time"

// Reminder is a standalone reminder not attached to a task.
type Reminder struct {
	ReminderID     string     `json:"id"`
	UserID         string     `json:"user_id"`
	Enabled        bool       `json:"enabled"`
	RecurrenceRule string     `json:"recurrence_rule"` // RFC 5545 RRULE
	Dtstart        *time.Time `json:"dtstart"`         // First occurrence (for RRULE calculation)
	Message        string     `json:"message"`
	RemindAt       *time.Time `json:"remind_at"` // Next scheduled reminder time
	Description    string     `json:"description"`
	CreatedAt      time.Time  `json:"created_at"`
}
