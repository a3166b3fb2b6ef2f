package rrule

import (
	"testing"
	"time"

	"github.com/hray3182/daybook/internal/reminder"
)

func TestBetweenDaily(t *testing.T) {
	dtstart := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 5, 23, 59, 0, 0, time.UTC)

	got, truncated, err := Between("RRULE:FREQ=DAILY", dtstart, start, end, 0)
	if err != nil {
		t.Fatalf("Between: %v", err)
	}
	if truncated {
		t.Error("unexpected truncation")
	}
	if len(got) != 3 {
		t.Fatalf("got %d occurrences, want 3: %v", len(got), got)
	}
	if !got[0].Equal(time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("first = %v", got[0])
	}
}

func TestBetweenLimit(t *testing.T) {
	dtstart := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got, truncated, err := Between("FREQ=HOURLY", dtstart, dtstart, dtstart.AddDate(0, 0, 2), 5)
	if err != nil {
		t.Fatalf("Between: %v", err)
	}
	if !truncated || len(got) != 5 {
		t.Errorf("got %d occurrences truncated=%v, want 5 truncated", len(got), truncated)
	}
}

func TestBetweenInvalid(t *testing.T) {
	if _, _, err := Between("FREQ=SOMETIMES", time.Now(), time.Now(), time.Now(), 0); err == nil {
		t.Error("expected parse error")
	}
}

func TestNextOccurrence(t *testing.T) {
	dtstart := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	next, err := NextOccurrence("FREQ=WEEKLY;BYDAY=MO,WE", dtstart, dtstart)
	if err != nil {
		t.Fatalf("NextOccurrence: %v", err)
	}
	if next == nil || !next.Equal(time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("next = %v", next)
	}

	next, err = NextOccurrence("FREQ=DAILY;COUNT=1", dtstart, dtstart)
	if err != nil {
		t.Fatalf("NextOccurrence: %v", err)
	}
	if next != nil {
		t.Errorf("next = %v, want nil after the only occurrence", next)
	}
}

func TestFromRuleString(t *testing.T) {
	until := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		rule *reminder.Rule
		want string
	}{
		{"once", &reminder.Rule{Pattern: reminder.Once{}}, ""},
		{"nil", nil, ""},
		{"daily", &reminder.Rule{Pattern: reminder.Daily{Interval: 1}}, "FREQ=DAILY"},
		{
			"weekly",
			&reminder.Rule{Pattern: reminder.Weekly{Interval: 2, Weekdays: []int{0, 1, 3}}, EndAt: &until},
			"FREQ=WEEKLY;INTERVAL=2;BYDAY=SU,MO,WE;UNTIL=20241231T000000Z",
		},
		{"monthly", &reminder.Rule{Pattern: reminder.Monthly{Interval: 1, Monthdays: []int{1, 15}}}, "FREQ=MONTHLY;BYMONTHDAY=1,15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := FromRule(tt.rule)
			if tt.want == "" {
				if b != nil {
					t.Errorf("got builder %+v, want nil", b)
				}
				return
			}
			if got := b.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := map[string]string{
		"":           "once",
		"FREQ=DAILY": "every day",
		"RRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE": "every 2 weeks on Mon, Wed",
		"FREQ=MONTHLY;BYMONTHDAY=1,15;COUNT=3":     "every month on day 1, 15, 3 times",
		"FREQ=DAILY;UNTIL=20241231T000000Z":        "every day, until 2024-12-31",
	}
	for in, want := range tests {
		if got := Describe(in); got != want {
			t.Errorf("Describe(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsRecurring(t *testing.T) {
	if IsRecurring("") || IsRecurring("COUNT=1") {
		t.Error("expected non-recurring")
	}
	if !IsRecurring("rrule:freq=daily") {
		t.Error("expected recurring")
	}
}
