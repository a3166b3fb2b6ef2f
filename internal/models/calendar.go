package models

import "time"

// DefaultEventDuration is the display length of events that have no natural
// duration (due dates, reminder firings, timed entries without an end).
const DefaultEventDuration = 30 * time.Minute

type CalendarEventType string

const (
	EventTaskDue      CalendarEventType = "task_due"
	EventTaskReminder CalendarEventType = "task_reminder"
	EventNote         CalendarEventType = "note"
	EventZenReminder  CalendarEventType = "zen_reminder"
	EventManual       CalendarEventType = "event"
)

type Scope string

const (
	ScopeAll      Scope = "all"
	ScopePersonal Scope = "personal"
	ScopeShared   Scope = "shared"
)

// CalendarEvent is one rendered item on the calendar.
type CalendarEvent struct {
	ID          string            `json:"id"`
	EntityID    string            `json:"entityId"`
	Type        CalendarEventType `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	AllDay      bool              `json:"allDay"`
	Scope       Scope             `json:"scope"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
}

type CalendarRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CalendarDay groups the events of one local calendar date.
type CalendarDay struct {
	Date      string          `json:"date"`
	Tasks     []CalendarEvent `json:"tasks"`
	Reminders []CalendarEvent `json:"reminders"`
	Notes     []CalendarEvent `json:"notes"`
	Events    []CalendarEvent `json:"events"`
}

func (d *CalendarDay) Len() int {
	return len(d.Tasks) + len(d.Reminders) + len(d.Notes) + len(d.Events)
}

type AggregationResponse struct {
	Range    CalendarRange `json:"range"`
	Timezone string        `json:"timezone"`
	Days     []CalendarDay `json:"days"`
}

// CalendarResponse is the flat single-range view.
type CalendarResponse struct {
	Range    CalendarRange   `json:"range"`
	Timezone string          `json:"timezone"`
	Scope    Scope           `json:"scope"`
	Events   []CalendarEvent `json:"events"`
}

// TaskOccurrences lists upcoming reminder instants for one task.
type TaskOccurrences struct {
	TaskID      string      `json:"taskId"`
	Timezone    string      `json:"timezone"`
	Occurrences []time.Time `json:"occurrences"`
}
