package models

import "time"

// CalendarEntry is a manually created calendar event.
type CalendarEntry struct {
	EntryID        string     `json:"id"`
	UserID         string     `json:"user_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Location       string     `json:"location"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	AllDay         bool       `json:"all_day"`
	RecurrenceRule string     `json:"recurrence_rule"` // RFC 5545 RRULE
	CreatedAt      time.Time  `json:"created_at"`
}

// ResolvedEnd returns the stored end, or a default duration when the end is
// missing or not after the start: 30 minutes for timed entries, one day for
// all-day entries.
func (e *CalendarEntry) ResolvedEnd(start time.Time) time.Time {
	if e.EndTime != nil && e.EndTime.After(e.StartTime) {
		return start.Add(e.EndTime.Sub(e.StartTime))
	}
	if e.AllDay {
		return start.AddDate(0, 0, 1)
	}
	return start.Add(DefaultEventDuration)
}
