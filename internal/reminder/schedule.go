package reminder

import (
	"sync"
	"time"

	"github.com/hray3182/daybook/internal/models"
)

// MaxIterations caps how many times NextOccurrence advances a rule before
// treating the schedule as exhausted.
const MaxIterations = 512

// tick separates consecutive upcoming-occurrence lookups.
const tick = time.Millisecond

// Schedule is the reminder view of a task. Occurrences are computed on
// absolute instants with calendar fields read in UTC; Timezone is only
// carried for display.
type Schedule struct {
	DueDate       *time.Time
	MinutesBefore *int
	Recurrence    *Rule
	NextTriggerAt *time.Time
	SnoozedUntil  *time.Time
	Timezone      string
	Completed     bool
}

// ScheduleFromTask builds a Schedule, normalizing the task's raw recurrence
// and dropping negative lead times.
func ScheduleFromTask(t *models.Task) Schedule {
	s := Schedule{
		DueDate:       t.DueDate,
		NextTriggerAt: t.ReminderNextTriggerAt,
		SnoozedUntil:  t.ReminderSnoozedUntil,
		Timezone:      t.ReminderTimezone,
		Completed:     t.Completed,
	}
	if t.ReminderMinutesBefore != nil && *t.ReminderMinutesBefore >= 0 {
		minutes := *t.ReminderMinutesBefore
		s.MinutesBefore = &minutes
	}
	if rule, ok := NormalizeRecurrenceRule(t.ReminderRecurrence); ok {
		s.Recurrence = rule
	}
	return s
}

var locationCache sync.Map // string -> *time.Location

// LoadLocation resolves an IANA name, returning nil for empty or unknown
// names. Results are cached for the life of the process.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return nil
	}
	if loc, ok := locationCache.Load(name); ok {
		return loc.(*time.Location)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil
	}
	locationCache.Store(name, loc)
	return loc
}

// ShouldScheduleReminder reports whether the schedule carries any reminder
// intent worth expanding.
func ShouldScheduleReminder(s Schedule) bool {
	if s.Completed {
		return false
	}
	return s.MinutesBefore != nil || s.Recurrence != nil || s.NextTriggerAt != nil
}

type anchorSource func(Schedule) (time.Time, bool)

// anchorChain is ordered by precedence, highest first.
var anchorChain = []anchorSource{
	fromRecurrenceStart,
	fromNextTrigger,
	fromDueOffset,
}

func fromRecurrenceStart(s Schedule) (time.Time, bool) {
	if s.Recurrence == nil || s.Recurrence.StartAt == nil {
		return time.Time{}, false
	}
	return *s.Recurrence.StartAt, true
}

func fromNextTrigger(s Schedule) (time.Time, bool) {
	if s.NextTriggerAt == nil || s.NextTriggerAt.IsZero() {
		return time.Time{}, false
	}
	return *s.NextTriggerAt, true
}

func fromDueOffset(s Schedule) (time.Time, bool) {
	if s.DueDate == nil || s.MinutesBefore == nil || *s.MinutesBefore < 0 {
		return time.Time{}, false
	}
	return s.DueDate.Add(-time.Duration(*s.MinutesBefore) * time.Minute), true
}

// ResolveAnchor returns the schedule's first occurrence before any
// recurrence is applied. False means the schedule cannot fire.
func ResolveAnchor(s Schedule) (time.Time, bool) {
	for _, source := range anchorChain {
		if t, ok := source(s); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
