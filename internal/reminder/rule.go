// Package reminder expands task reminder schedules into concrete occurrence
// instants. Everything here is pure: no I/O, and results depend only on the
// inputs and the reference instant passed in.
package reminder

import (
	"time"
)

type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Pattern is the repeating part of a Rule. Implementations are Once, Daily,
// Weekly and Monthly.
type Pattern interface {
	Frequency() Frequency
	// next returns the first candidate strictly after current, with current
	// already expressed in UTC.
	next(current time.Time) (time.Time, bool)
}

// Rule is a validated recurrence rule.
type Rule struct {
	Pattern Pattern
	StartAt *time.Time
	EndAt   *time.Time
}

// Repeats reports whether the rule can produce more than one occurrence.
func (r *Rule) Repeats() bool {
	return r != nil && r.Pattern != nil && r.Pattern.Frequency() != FrequencyOnce
}

func (r *Rule) Frequency() Frequency {
	if r == nil || r.Pattern == nil {
		return FrequencyOnce
	}
	return r.Pattern.Frequency()
}

// afterEnd reports whether t lies strictly after the rule's end bound.
func (r *Rule) afterEnd(t time.Time) bool {
	return r != nil && r.EndAt != nil && t.After(*r.EndAt)
}

// bind fills empty weekday/monthday sets from the anchor so every later step
// stays on the anchor's own day.
func (r *Rule) bind(anchor time.Time) *Rule {
	if r == nil {
		return nil
	}
	bound := *r
	switch p := r.Pattern.(type) {
	case Weekly:
		if len(p.Weekdays) == 0 {
			p.Weekdays = []int{int(anchor.Weekday())}
			bound.Pattern = p
		}
	case Monthly:
		if len(p.Monthdays) == 0 {
			p.Monthdays = []int{anchor.Day()}
			bound.Pattern = p
		}
	}
	return &bound
}

type Once struct{}

func (Once) Frequency() Frequency { return FrequencyOnce }

func (Once) next(time.Time) (time.Time, bool) { return time.Time{}, false }

type Daily struct {
	Interval int
}

func (Daily) Frequency() Frequency { return FrequencyDaily }

func (d Daily) next(current time.Time) (time.Time, bool) {
	return current.AddDate(0, 0, d.Interval), true
}

// skipTo jumps close to (but not past) ref so long-running daily rules do not
// burn the iteration budget replaying history.
func (d Daily) skipTo(anchor, ref time.Time) time.Time {
	if !ref.After(anchor) || d.Interval <= 0 {
		return anchor
	}
	elapsedDays := int(ref.Sub(anchor).Hours() / 24)
	// One step back keeps the result strictly before ref.
	steps := elapsedDays/d.Interval - 1
	if steps <= 0 {
		return anchor
	}
	return anchor.AddDate(0, 0, steps*d.Interval)
}

// Weekly repeats on a set of weekdays (Sunday = 0) every Interval weeks. The
// interval only applies when the set wraps into the following week.
type Weekly struct {
	Interval int
	Weekdays []int
}

func (Weekly) Frequency() Frequency { return FrequencyWeekly }

func (w Weekly) next(current time.Time) (time.Time, bool) {
	wd := int(current.Weekday())
	days := w.Weekdays
	if len(days) == 0 {
		days = []int{wd}
	}
	for _, d := range days {
		if d > wd {
			return current.AddDate(0, 0, d-wd), true
		}
	}
	return current.AddDate(0, 0, 7*w.Interval-wd+days[0]), true
}

// Monthly repeats on a set of days of the month every Interval months. Days
// beyond the end of a month are clamped to its last day.
type Monthly struct {
	Interval  int
	Monthdays []int
}

func (Monthly) Frequency() Frequency { return FrequencyMonthly }

func (m Monthly) next(current time.Time) (time.Time, bool) {
	year, month, dom := current.Date()
	days := m.Monthdays
	if len(days) == 0 {
		days = []int{dom}
	}

	last := daysIn(year, month)
	for _, d := range days {
		if c := min(d, last); c > dom {
			return withDate(current, year, month, c), true
		}
	}

	// time.Date normalizes month overflow into later years.
	target := time.Date(year, month+time.Month(m.Interval), 1, 0, 0, 0, 0, current.Location())
	ty, tm, _ := target.Date()
	return withDate(current, ty, tm, min(days[0], daysIn(ty, tm))), true
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// withDate keeps the time of day of t and replaces its date.
func withDate(t time.Time, year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
