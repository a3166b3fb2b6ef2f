package reminder

import "time"

// AdvanceOccurrence returns the first candidate strictly after current.
// Weekday and day-of-month are read in UTC. It returns false for once rules
// and for malformed rules that would not move forward.
func AdvanceOccurrence(current time.Time, rule *Rule) (time.Time, bool) {
	if !rule.Repeats() {
		return time.Time{}, false
	}
	next, ok := rule.Pattern.next(current.UTC())
	if !ok || !next.After(current) {
		return time.Time{}, false
	}
	return next, true
}

// NextOccurrence returns the first occurrence at or after ref, or strictly
// after it when includeEqual is false. A snooze later than ref moves the
// reference forward. Exceeding the rule's end bound or MaxIterations yields
// false.
func NextOccurrence(s Schedule, ref time.Time, includeEqual bool) (time.Time, bool) {
	anchor, ok := ResolveAnchor(s)
	if !ok {
		return time.Time{}, false
	}
	if s.SnoozedUntil != nil && s.SnoozedUntil.After(ref) {
		ref = *s.SnoozedUntil
	}

	rule := s.Recurrence
	if rule.afterEnd(anchor) {
		return time.Time{}, false
	}
	if qualifies(anchor, ref, includeEqual) {
		return anchor, true
	}
	if !rule.Repeats() {
		return time.Time{}, false
	}

	bound := rule.bind(anchor.UTC())
	current := anchor
	if d, ok := bound.Pattern.(Daily); ok {
		current = d.skipTo(anchor.UTC(), ref)
	}

	for i := 0; i < MaxIterations; i++ {
		next, ok := AdvanceOccurrence(current, bound)
		if !ok || rule.afterEnd(next) {
			return time.Time{}, false
		}
		if qualifies(next, ref, includeEqual) {
			return next, true
		}
		current = next
	}
	return time.Time{}, false
}

func qualifies(t, ref time.Time, includeEqual bool) bool {
	return t.After(ref) || (includeEqual && t.Equal(ref))
}

// UpcomingOccurrences lists up to limit occurrences starting at ref
// (inclusive), in strictly ascending order.
func UpcomingOccurrences(s Schedule, ref time.Time, limit int) []time.Time {
	var out []time.Time
	for len(out) < limit {
		next, ok := NextOccurrence(s, ref, len(out) == 0)
		if !ok {
			break
		}
		out = append(out, next)
		ref = next.Add(tick)
	}
	return out
}
