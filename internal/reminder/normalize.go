package reminder

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// maxInterval keeps date arithmetic far away from overflow.
const maxInterval = 1000

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseRecurrence decodes a JSON recurrence descriptor. It returns false for
// empty, null, undecodable or unrecognised input; it never fails loudly.
func ParseRecurrence(data []byte) (*Rule, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, false
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	return NormalizeRecurrenceRule(raw)
}

// NormalizeRecurrenceRule validates a loosely typed recurrence descriptor as
// stored in the tasks.reminder_recurrence jsonb column.
//
// Unknown frequencies yield false. Interval is coerced to an integer >= 1.
// Weekdays (0-6) and monthdays (1-31) are deduplicated and sorted, with
// non-integer entries dropped. Range checking drops out-of-range entries
// instead of clamping them to the nearest bound, so a weekday of 7 does not
// become Saturday and a monthday of 0 does not become the 1st. Unparseable
// start/end bounds are dropped.
func NormalizeRecurrenceRule(raw map[string]any) (*Rule, bool) {
	if raw == nil {
		return nil, false
	}
	freq, _ := lookup(raw, "frequency", "freq").(string)

	interval := coerceInterval(lookup(raw, "interval"))
	rule := &Rule{
		StartAt: parseInstant(lookup(raw, "start_at", "startAt")),
		EndAt:   parseInstant(lookup(raw, "end_at", "endAt")),
	}

	switch Frequency(strings.ToLower(strings.TrimSpace(freq))) {
	case FrequencyOnce:
		rule.Pattern = Once{}
	case FrequencyDaily:
		rule.Pattern = Daily{Interval: interval}
	case FrequencyWeekly:
		rule.Pattern = Weekly{
			Interval: interval,
			Weekdays: coerceSet(lookup(raw, "weekdays", "by_weekday"), 0, 6),
		}
	case FrequencyMonthly:
		rule.Pattern = Monthly{
			Interval:  interval,
			Monthdays: coerceSet(lookup(raw, "monthdays", "by_monthday"), 1, 31),
		}
	default:
		return nil, false
	}
	return rule, true
}

func lookup(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func coerceNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func coerceInterval(v any) int {
	f, ok := coerceNumber(v)
	if !ok {
		return 1
	}
	f = math.Trunc(f)
	if f < 1 {
		return 1
	}
	if f > maxInterval {
		return maxInterval
	}
	return int(f)
}

func coerceSet(v any, lo, hi int) []int {
	var items []any
	switch s := v.(type) {
	case []any:
		items = s
	case []int:
		for _, n := range s {
			items = append(items, n)
		}
	case []float64:
		for _, n := range s {
			items = append(items, n)
		}
	default:
		return nil
	}

	seen := make(map[int]bool, len(items))
	var out []int
	for _, item := range items {
		f, ok := coerceNumber(item)
		if !ok || f != math.Trunc(f) {
			continue
		}
		if f < float64(lo) || f > float64(hi) {
			continue
		}
		n := int(f)
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func parseInstant(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		cp := *t
		return &cp
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range instantLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return &parsed
			}
		}
	}
	return nil
}
