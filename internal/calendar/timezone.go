package calendar

import (
	"time"

	appLog "github.com/hray3182/daybook/internal/log"
	"github.com/hray3182/daybook/internal/reminder"
)

const dateKeyLayout = "2006-01-02"

// ResolveLocation loads an IANA zone. Empty names mean UTC; unknown names
// fall back to UTC with a warning so rendering always succeeds.
func ResolveLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc := reminder.LoadLocation(name)
	if loc == nil {
		appLog.Warn("unknown timezone; falling back to UTC", "name", name)
		return time.UTC
	}
	return loc
}

// FormatDateKey returns the YYYY-MM-DD date of t in loc.
func FormatDateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateKeyLayout)
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// formatInstant renders t like JavaScript's toISOString, which keeps ids
// stable across clients.
func formatInstant(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
