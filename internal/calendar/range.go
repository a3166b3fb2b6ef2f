package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hray3182/daybook/internal/models"
)

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidRange = errors.New("invalid range")
	ErrInvalidScope = errors.New("invalid scope")
)

const (
	DefaultRangeDays = 30
	MaxRangeDays     = 120
)

// Range is an inclusive [Start, End] window.
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// ParseRange resolves the from/to query parameters. Both accept a date
// (YYYY-MM-DD, read in loc) or an RFC 3339 instant; a date "to" covers the
// whole day. Missing bounds default to a DefaultRangeDays window starting at
// the start of today. Spans longer than MaxRangeDays are truncated at the end.
func ParseRange(from, to string, loc *time.Location, now time.Time) (Range, error) {
	var r Range
	var err error

	if strings.TrimSpace(from) == "" {
		r.Start = StartOfDay(now, loc)
	} else if r.Start, err = parseBound(from, loc, false); err != nil {
		return Range{}, fmt.Errorf("from: %w", err)
	}

	if strings.TrimSpace(to) == "" {
		r.End = r.Start.AddDate(0, 0, DefaultRangeDays).Add(-time.Millisecond)
	} else if r.End, err = parseBound(to, loc, true); err != nil {
		return Range{}, fmt.Errorf("to: %w", err)
	}

	if r.End.Before(r.Start) {
		return Range{}, fmt.Errorf("%w: end %s is before start %s", ErrInvalidRange,
			r.End.Format(time.RFC3339), r.Start.Format(time.RFC3339))
	}

	limit := r.Start.AddDate(0, 0, MaxRangeDays).Add(-time.Millisecond)
	if r.End.After(limit) {
		r.End = limit
	}
	return r, nil
}

func parseBound(s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseInLocation(dateKeyLayout, s, loc); err == nil {
		if endOfDay {
			return d.AddDate(0, 0, 1).Add(-time.Millisecond), nil
		}
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// ParseScope validates the scope filter. Empty means all.
func ParseScope(s string) (models.Scope, error) {
	switch scope := models.Scope(strings.ToLower(strings.TrimSpace(s))); scope {
	case "":
		return models.ScopeAll, nil
	case models.ScopeAll, models.ScopePersonal, models.ScopeShared:
		return scope, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
}
