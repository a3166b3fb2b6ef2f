package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/hray3182/daybook/internal/models"
)

func TestParseRange(t *testing.T) {
	ny := ResolveLocation("America/New_York")
	now := time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		from, to  string
		loc       *time.Location
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "defaults",
			loc:       time.UTC,
			wantStart: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 7, 14, 23, 59, 59, int(999*time.Millisecond), time.UTC),
		},
		{
			name:      "local dates",
			from:      "2024-06-01",
			to:        "2024-06-02",
			loc:       ny,
			wantStart: time.Date(2024, 6, 1, 0, 0, 0, 0, ny),
			wantEnd:   time.Date(2024, 6, 2, 23, 59, 59, int(999*time.Millisecond), ny),
		},
		{
			name:      "instants",
			from:      "2024-06-01T12:00:00Z",
			to:        "2024-06-01T13:00:00Z",
			loc:       time.UTC,
			wantStart: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC),
		},
		{
			name:      "clamped",
			from:      "2024-01-01",
			to:        "2024-12-31",
			loc:       time.UTC,
			wantStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 4, 29, 23, 59, 59, int(999*time.Millisecond), time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.from, tt.to, tt.loc, now)
			if err != nil {
				t.Fatalf("ParseRange: %v", err)
			}
			if !got.Start.Equal(tt.wantStart) || !got.End.Equal(tt.wantEnd) {
				t.Errorf("got [%v, %v], want [%v, %v]", got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParseRangeErrors(t *testing.T) {
	now := time.Now()
	if _, err := ParseRange("06/01/2024", "", time.UTC, now); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("err = %v, want ErrInvalidDate", err)
	}
	if _, err := ParseRange("2024-06-10", "2024-06-09", time.UTC, now); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("err = %v, want ErrInvalidRange", err)
	}
}

func TestParseScope(t *testing.T) {
	for in, want := range map[string]models.Scope{
		"":         models.ScopeAll,
		"all":      models.ScopeAll,
		"Personal": models.ScopePersonal,
		" shared ": models.ScopeShared,
	} {
		got, err := ParseScope(in)
		if err != nil || got != want {
			t.Errorf("ParseScope(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseScope("team"); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("err = %v, want ErrInvalidScope", err)
	}
}

func TestFormatDateKey(t *testing.T) {
	instant := time.Date(2024, 6, 1, 23, 50, 0, 0, time.UTC)
	if got := FormatDateKey(instant, ResolveLocation("America/New_York")); got != "2024-06-01" {
		t.Errorf("New York date = %s", got)
	}
	if got := FormatDateKey(instant, ResolveLocation("Asia/Tokyo")); got != "2024-06-02" {
		t.Errorf("Tokyo date = %s", got)
	}
}
