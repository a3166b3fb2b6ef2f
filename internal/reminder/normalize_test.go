package reminder

import (
	"reflect"
	"testing"
	"time"
)

func TestNormalizeRecurrenceRule(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  map[string]any
		want *Rule
		ok   bool
	}{
		{
			name: "nil input",
			raw:  nil,
		},
		{
			name: "unknown frequency",
			raw:  map[string]any{"frequency": "hourly"},
		},
		{
			name: "missing frequency",
			raw:  map[string]any{"interval": 2.0},
		},
		{
			name: "once",
			raw:  map[string]any{"frequency": "once"},
			want: &Rule{Pattern: Once{}},
			ok:   true,
		},
		{
			name: "daily with defaulted interval",
			raw:  map[string]any{"frequency": "Daily", "interval": "abc"},
			want: &Rule{Pattern: Daily{Interval: 1}},
			ok:   true,
		},
		{
			name: "daily truncates fractional interval",
			raw:  map[string]any{"frequency": "daily", "interval": 2.7},
			want: &Rule{Pattern: Daily{Interval: 2}},
			ok:   true,
		},
		{
			name: "daily clamps zero interval",
			raw:  map[string]any{"frequency": "daily", "interval": 0.0},
			want: &Rule{Pattern: Daily{Interval: 1}},
			ok:   true,
		},
		{
			name: "weekly dedupes sorts and drops out of range",
			raw: map[string]any{
				"frequency": "weekly",
				"interval":  2.0,
				"weekdays":  []any{3.0, 1.0, 3.0, 7.0, -1.0, 2.5, "5"},
			},
			want: &Rule{Pattern: Weekly{Interval: 2, Weekdays: []int{1, 3, 5}}},
			ok:   true,
		},
		{
			name: "monthly with bounds",
			raw: map[string]any{
				"frequency": "monthly",
				"monthdays": []any{31.0, 0.0, 15.0, 32.0},
				"start_at":  "2024-01-01T08:00:00Z",
				"end_at":    "not a date",
			},
			want: &Rule{Pattern: Monthly{Interval: 1, Monthdays: []int{15, 31}}, StartAt: &start},
			ok:   true,
		},
		{
			name: "weekdays ignored for daily",
			raw:  map[string]any{"frequency": "daily", "weekdays": []any{1.0}},
			want: &Rule{Pattern: Daily{Interval: 1}},
			ok:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeRecurrenceRule(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				if got != nil {
					t.Errorf("expected nil rule, got %+v", got)
				}
				return
			}
			if !reflect.DeepEqual(got.Pattern, tt.want.Pattern) {
				t.Errorf("pattern = %#v, want %#v", got.Pattern, tt.want.Pattern)
			}
			if !equalInstant(got.StartAt, tt.want.StartAt) {
				t.Errorf("start_at = %v, want %v", got.StartAt, tt.want.StartAt)
			}
			if !equalInstant(got.EndAt, tt.want.EndAt) {
				t.Errorf("end_at = %v, want %v", got.EndAt, tt.want.EndAt)
			}
		})
	}
}

func TestParseRecurrence(t *testing.T) {
	for _, in := range []string{"", "null", "{", `"weekly"`, `{"frequency":"yearly"}`} {
		if rule, ok := ParseRecurrence([]byte(in)); ok || rule != nil {
			t.Errorf("ParseRecurrence(%q) = %+v, %v; want nil, false", in, rule, ok)
		}
	}

	rule, ok := ParseRecurrence([]byte(`{"frequency":"weekly","interval":1,"weekdays":[5,1],"end_at":"2024-02-01"}`))
	if !ok {
		t.Fatal("expected rule")
	}
	want := Weekly{Interval: 1, Weekdays: []int{1, 5}}
	if !reflect.DeepEqual(rule.Pattern, want) {
		t.Errorf("pattern = %#v, want %#v", rule.Pattern, want)
	}
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !equalInstant(rule.EndAt, &end) {
		t.Errorf("end_at = %v, want %v", rule.EndAt, end)
	}
}

func equalInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
