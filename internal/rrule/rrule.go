package rrule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/hray3182/daybook/internal/reminder"
)

// ParseRRule parses an RFC 5545 RRULE string anchored at dtstart.
func ParseRRule(ruleStr string, dtstart time.Time) (*rrule.RRule, error) {
	// Handle RRULE: prefix if present
	ruleStr = strings.TrimPrefix(strings.TrimSpace(ruleStr), "RRULE:")

	opt, err := rrule.StrToROption(ruleStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE: %w", err)
	}
	opt.Dtstart = dtstart
	return rrule.NewRRule(*opt)
}

// NextOccurrence returns the first occurrence strictly after the given time.
// Returns nil if there are no more occurrences.
func NextOccurrence(ruleStr string, dtstart time.Time, after time.Time) (*time.Time, error) {
	rule, err := ParseRRule(ruleStr, dtstart)
	if err != nil {
		return nil, err
	}

	next := rule.After(after, false)
	if next.IsZero() {
		return nil, nil
	}
	return &next, nil
}

// Between returns occurrences within [start, end], keeping at most limit of
// them. The second result reports whether the limit cut the list short.
func Between(ruleStr string, dtstart, start, end time.Time, limit int) ([]time.Time, bool, error) {
	rule, err := ParseRRule(ruleStr, dtstart)
	if err != nil {
		return nil, false, err
	}

	occurrences := rule.Between(start, end, true)
	if limit > 0 && len(occurrences) > limit {
		return occurrences[:limit], true, nil
	}
	return occurrences, false, nil
}

// IsRecurring checks if the RRULE string represents a recurring rule
func IsRecurring(ruleStr string) bool {
	return ruleStr != "" && strings.Contains(strings.ToUpper(ruleStr), "FREQ=")
}

// RRuleBuilder creates an RRULE string from components
type RRuleBuilder struct {
	Freq       rrule.Frequency
	Interval   int
	ByWeekday  []rrule.Weekday
	ByMonthDay []int
	Until      *time.Time
}

var weekdays = []rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// FromRule describes a task recurrence rule as an RRULE builder. It returns
// nil for rules that do not repeat.
func FromRule(r *reminder.Rule) *RRuleBuilder {
	if !r.Repeats() {
		return nil
	}
	b := &RRuleBuilder{Until: r.EndAt}
	switch p := r.Pattern.(type) {
	case reminder.Daily:
		b.Freq = rrule.DAILY
		b.Interval = p.Interval
	case reminder.Weekly:
		b.Freq = rrule.WEEKLY
		b.Interval = p.Interval
		for _, d := range p.Weekdays {
			b.ByWeekday = append(b.ByWeekday, weekdays[d])
		}
	case reminder.Monthly:
		b.Freq = rrule.MONTHLY
		b.Interval = p.Interval
		b.ByMonthDay = append(b.ByMonthDay, p.Monthdays...)
	default:
		return nil
	}
	return b
}

func (b *RRuleBuilder) String() string {
	var parts []string

	freqMap := map[rrule.Frequency]string{
		rrule.HOURLY:  "HOURLY",
		rrule.DAILY:   "DAILY",
		rrule.WEEKLY:  "WEEKLY",
		rrule.MONTHLY: "MONTHLY",
		rrule.YEARLY:  "YEARLY",
	}
	parts = append(parts, fmt.Sprintf("FREQ=%s", freqMap[b.Freq]))

	if b.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", b.Interval))
	}

	if len(b.ByWeekday) > 0 {
		days := make([]string, len(b.ByWeekday))
		dayMap := map[rrule.Weekday]string{
			rrule.MO: "MO",
			rrule.TU: "TU",
			rrule.WE: "WE",
			rrule.TH: "TH",
			rrule.FR: "FR",
			rrule.SA: "SA",
			rrule.SU: "SU",
		}
		for i, d := range b.ByWeekday {
			days[i] = dayMap[d]
		}
		parts = append(parts, fmt.Sprintf("BYDAY=%s", strings.Join(days, ",")))
	}

	if len(b.ByMonthDay) > 0 {
		days := make([]string, len(b.ByMonthDay))
		for i, d := range b.ByMonthDay {
			days[i] = fmt.Sprintf("%d", d)
		}
		parts = append(parts, fmt.Sprintf("BYMONTHDAY=%s", strings.Join(days, ",")))
	}

	if b.Until != nil {
		parts = append(parts, fmt.Sprintf("UNTIL=%s", b.Until.UTC().Format("20060102T150405Z")))
	}

	return strings.Join(parts, ";")
}

// Describe returns a short English description of an RRULE string, e.g.
// "every 2 weeks on Mon, Wed".
func Describe(ruleStr string) string {
	ruleStr = strings.TrimPrefix(strings.TrimSpace(ruleStr), "RRULE:")

	info := make(map[string]string)
	for _, p := range strings.Split(ruleStr, ";") {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) == 2 {
			info[strings.ToUpper(kv[0])] = kv[1]
		}
	}

	units := map[string]string{
		"HOURLY":  "hour",
		"DAILY":   "day",
		"WEEKLY":  "week",
		"MONTHLY": "month",
		"YEARLY":  "year",
	}
	unit, ok := units[strings.ToUpper(info["FREQ"])]
	if !ok {
		return "once"
	}

	var result strings.Builder
	if interval := info["INTERVAL"]; interval == "" || interval == "1" {
		result.WriteString("every " + unit)
	} else {
		result.WriteString(fmt.Sprintf("every %s %ss", interval, unit))
	}

	if byDay := info["BYDAY"]; byDay != "" {
		dayMap := map[string]string{
			"MO": "Mon", "TU": "Tue", "WE": "Wed", "TH": "Thu",
			"FR": "Fri", "SA": "Sat", "SU": "Sun",
		}
		var names []string
		for _, d := range strings.Split(byDay, ",") {
			if name, ok := dayMap[strings.ToUpper(d)]; ok {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			result.WriteString(" on " + strings.Join(names, ", "))
		}
	}

	if byMonthDay := info["BYMONTHDAY"]; byMonthDay != "" {
		result.WriteString(" on day " + strings.ReplaceAll(byMonthDay, ",", ", "))
	}

	if count := info["COUNT"]; count != "" {
		result.WriteString(fmt.Sprintf(", %s times", count))
	}

	if until := info["UNTIL"]; until != "" {
		if t, err := time.Parse("20060102T150405Z", until); err == nil {
			result.WriteString(", until " + t.Format("2006-01-02"))
		}
	}

	return result.String()
}
