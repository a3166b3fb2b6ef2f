package models

import "time"

type AccessRole string

const (
	RoleOwner  AccessRole = "owner"
	RoleEditor AccessRole = "editor"
	RoleViewer AccessRole = "viewer"
)

// CanEdit reports whether the role may modify the task.
func (r AccessRole) CanEdit() bool {
	return r == RoleOwner || r == RoleEditor
}

func (r AccessRole) Valid() bool {
	switch r {
	case RoleOwner, RoleEditor, RoleViewer:
		return true
	}
	return false
}

type Task struct {
	TaskID                string         `json:"id"`
	UserID                string         `json:"user_id"`
	Title                 string         `json:"title"`
	Completed             bool           `json:"completed"`
	DueDate               *time.Time     `json:"due_date"`
	ReminderMinutesBefore *int           `json:"reminder_minutes_before"`
	ReminderRecurrence    map[string]any `json:"reminder_recurrence"` // loosely typed jsonb
	ReminderNextTriggerAt *time.Time     `json:"reminder_next_trigger_at"`
	ReminderSnoozedUntil  *time.Time     `json:"reminder_snoozed_until"`
	ReminderTimezone      string         `json:"reminder_timezone"`
	Category              string         `json:"category"`
	CategoryColor         string         `json:"category_color"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// SharedTask is a task another user granted access to.
type SharedTask struct {
	Task Task       `json:"task"`
	Role AccessRole `json:"role"`
}
